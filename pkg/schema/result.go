package schema

import (
	"fmt"
	"strings"
	"time"
)

// StepResult records the outcome of one attempted or skipped step.
// Duration covers all attempts for the step, including retry delays.
// Immutable once produced.
type StepResult struct {
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
	Skipped  bool          `json:"skipped,omitempty"`
}

// WorkflowResult is the aggregate outcome of one workflow run. Steps holds
// one StepResult per attempted or skipped step, in execution order; steps
// after a blocking failure do not appear.
type WorkflowResult struct {
	Workflow      string        `json:"workflow"`
	Success       bool          `json:"success"`
	TotalDuration time.Duration `json:"total_duration"`
	Steps         []StepResult  `json:"steps"`
	Error         string        `json:"error,omitempty"`
}

// Formatted renders the result for console output: status line, duration,
// step-by-step outcome, and the top-level error when the run failed.
func (r *WorkflowResult) Formatted() string {
	var b strings.Builder

	status := "succeeded"
	if !r.Success {
		status = "failed"
	}
	fmt.Fprintf(&b, "workflow %q %s in %s\n", r.Workflow, status, formatDuration(r.TotalDuration))

	for _, step := range r.Steps {
		fmt.Fprintf(&b, "  %-4s %s (%s)", stepMark(step), step.Name, formatDuration(step.Duration))
		if !step.Success && step.Stderr != "" {
			fmt.Fprintf(&b, ": %s", firstLine(step.Stderr))
		}
		b.WriteString("\n")
	}

	if r.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", r.Error)
	}
	return b.String()
}

func stepMark(step StepResult) string {
	switch {
	case step.Skipped:
		return "skip"
	case step.Success:
		return "ok"
	default:
		return "fail"
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
