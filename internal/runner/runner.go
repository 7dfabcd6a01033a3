// Package runner is the command-execution collaborator: it turns a rendered
// command string into one subprocess invocation and reports what happened.
// Each invocation is independent; a failed or timed-out attempt leaves no
// state behind for the next one.
package runner

import (
	"context"
	"time"
)

// Spec describes one command invocation.
type Spec struct {
	// Command is the fully rendered command text, passed to the interpreter
	// via -c.
	Command string
	// Shell is the interpreter to use. Empty means DefaultShell.
	Shell string
	// Dir is the working directory. Empty means the process's own.
	Dir string
	// Env is the complete environment for the subprocess, in os.Environ form.
	Env []string
	// Timeout bounds the invocation. Zero means no enforced limit.
	Timeout time.Duration
}

// Result captures one completed (or killed) invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// TimedOut is true when the process was killed because Timeout elapsed.
	TimedOut bool
	Duration time.Duration
}

// Runner executes a single command invocation. Implementations must be safe
// for sequential reuse across steps and runs.
type Runner interface {
	Run(ctx context.Context, spec Spec) (*Result, error)
}

// DefaultShell is used when a step does not override the interpreter.
const DefaultShell = "sh"
