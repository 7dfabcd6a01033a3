package engine

import (
	"os"
	"sort"
	"strings"

	"github.com/flowkit-io/flowkit/pkg/schema"
)

// ExecutionContext is the mutable state threaded through one workflow run:
// variables written by step outputs, a read-only snapshot of the process
// environment, and the working directory steps execute in. It is created
// once per run and discarded afterwards; two runs never share one.
type ExecutionContext struct {
	Variables        map[string]string
	Env              map[string]string
	WorkingDirectory string
}

// NewExecutionContext builds a context seeded from the process environment
// and the workflow's static env block. extra holds caller-supplied variables
// (CLI --var flags) and is applied after the workflow env, so it wins.
func NewExecutionContext(wf *schema.Workflow, workingDirectory string, extra map[string]string) *ExecutionContext {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	variables := make(map[string]string, len(wf.Env)+len(extra))
	for k, v := range wf.Env {
		variables[k] = v
	}
	for k, v := range extra {
		variables[k] = v
	}

	return &ExecutionContext{
		Variables:        variables,
		Env:              env,
		WorkingDirectory: workingDirectory,
	}
}

// Lookup resolves a name for guard evaluation and substitution: variables
// first, then the environment snapshot, then "".
func (c *ExecutionContext) Lookup(name string) string {
	if v, ok := c.Variables[name]; ok {
		return v
	}
	return c.Env[name]
}

// Environ renders the merged environment for a subprocess: the snapshot
// overlaid with the run's variables, variables winning on collision. Keys
// are sorted for deterministic process environments.
func (c *ExecutionContext) Environ() []string {
	merged := make(map[string]string, len(c.Env)+len(c.Variables))
	for k, v := range c.Env {
		merged[k] = v
	}
	for k, v := range c.Variables {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}
