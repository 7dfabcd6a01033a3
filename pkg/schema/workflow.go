package schema

import "fmt"

// Workflow is the declarative automation definition loaded from a YAML file.
type Workflow struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string                 `yaml:"version,omitempty" json:"version,omitempty"`
	Author      string                 `yaml:"author,omitempty" json:"author,omitempty"`
	Triggers    *WorkflowTriggers      `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Env         map[string]string      `yaml:"env,omitempty" json:"env,omitempty"`
	Steps       []WorkflowStep         `yaml:"steps" json:"steps"`
	OnError     []WorkflowErrorHandler `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// WorkflowStep is a single unit of work: a command with an optional guard,
// output capture, and retry/timeout policy. Timeout and RetryDelay are in
// seconds; a zero Timeout means no enforced limit.
type WorkflowStep struct {
	Name            string `yaml:"name,omitempty" json:"name,omitempty"`
	Run             string `yaml:"run" json:"run"`
	Shell           string `yaml:"shell,omitempty" json:"shell,omitempty"`
	Output          string `yaml:"output,omitempty" json:"output,omitempty"`
	When            string `yaml:"when,omitempty" json:"when,omitempty"`
	Timeout         int    `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ContinueOnError bool   `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
	Retries         int    `yaml:"retries,omitempty" json:"retries,omitempty"`
	RetryDelay      int    `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
}

// WorkflowTriggers describes how a workflow may be started. All fields are
// optional and independent; the schedule expression is advisory to the
// engine itself and consumed by the scheduler.
type WorkflowTriggers struct {
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Manual   bool   `yaml:"manual,omitempty" json:"manual,omitempty"`
	Event    string `yaml:"event,omitempty" json:"event,omitempty"`
}

// WorkflowErrorHandler is invoked once if the workflow fails. At least one of
// Notify or Run should be populated.
type WorkflowErrorHandler struct {
	Notify string `yaml:"notify,omitempty" json:"notify,omitempty"`
	Run    string `yaml:"run,omitempty" json:"run,omitempty"`
}

// Label returns the step's name, falling back to its 1-based position when
// the name is empty. Used in diagnostics so unnamed steps stay addressable.
func (s *WorkflowStep) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d", index+1)
}
