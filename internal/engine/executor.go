package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flowkit-io/flowkit/internal/expressions"
	"github.com/flowkit-io/flowkit/internal/logging"
	"github.com/flowkit-io/flowkit/internal/runner"
	"github.com/flowkit-io/flowkit/pkg/schema"
)

// StepExecutor runs one step at a time: guard, substitution, then the
// command through the Runner with timeout and retry policy applied.
type StepExecutor struct {
	runner runner.Runner
	clock  Clock
	logger *slog.Logger
}

// NewStepExecutor creates a StepExecutor. A nil clock means the wall clock;
// a nil logger discards.
func NewStepExecutor(r runner.Runner, clock Clock, logger *slog.Logger) *StepExecutor {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	return &StepExecutor{runner: r, clock: clock, logger: logger}
}

// Execute runs the step against the context and returns its result. Step
// failures are data, not errors: a guard that evaluates false yields a
// skipped success, a command that fails after exhausting retries yields
// Success == false with the last attempt's exit code and streams.
//
// On success, the step's trimmed stdout is captured into the context when
// Output is set. The context's Env is never mutated.
func (e *StepExecutor) Execute(ctx context.Context, step *schema.WorkflowStep, index int, ec *ExecutionContext) schema.StepResult {
	label := step.Label(index)
	ctx = logging.WithStep(ctx, label)

	// Guard. Malformed expressions are a validation-time concern; this is
	// the defensive runtime check.
	if step.When != "" {
		expr, err := expressions.ParseCondition(step.When)
		if err != nil {
			return failedResult(label, err.Error())
		}
		if !expr.Eval(ec) {
			e.logger.DebugContext(ctx, "step skipped, guard evaluated false", slog.String("when", step.When))
			return schema.StepResult{Name: label, Success: true, Skipped: true}
		}
	}

	// Substitution happens once per step invocation; retries reuse the
	// rendered text.
	rendered, err := expressions.Interpolate(step.Run, ec)
	if err != nil {
		return failedResult(label, err.Error())
	}

	spec := runner.Spec{
		Command: rendered,
		Shell:   step.Shell,
		Dir:     ec.WorkingDirectory,
		Env:     ec.Environ(),
		Timeout: time.Duration(step.Timeout) * time.Second,
	}

	start := e.clock.Now()
	var last schema.StepResult
	attempts := step.Retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			e.logger.InfoContext(ctx, "retrying step",
				slog.Int("attempt", attempt), slog.Int("max_attempts", attempts))
			if step.RetryDelay > 0 {
				e.clock.Sleep(time.Duration(step.RetryDelay) * time.Second)
			}
		}

		last = e.attempt(ctx, step, label, spec)
		if last.Success {
			break
		}
	}
	last.Duration = e.clock.Now().Sub(start)

	if last.Success && step.Output != "" {
		ec.Variables[step.Output] = strings.TrimRight(last.Stdout, "\r\n")
	}
	return last
}

// attempt performs one fresh process invocation.
func (e *StepExecutor) attempt(ctx context.Context, step *schema.WorkflowStep, label string, spec runner.Spec) schema.StepResult {
	res, err := e.runner.Run(ctx, spec)
	if err != nil {
		e.logger.ErrorContext(ctx, "command could not be started", slog.String("error", err.Error()))
		return failedResult(label, err.Error())
	}

	result := schema.StepResult{
		Name:     label,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	switch {
	case res.TimedOut:
		result.Stderr = fmt.Sprintf("step %q timed out after %ds", label, step.Timeout)
	case res.ExitCode == 0:
		result.Success = true
	}
	return result
}

func failedResult(label, message string) schema.StepResult {
	return schema.StepResult{Name: label, ExitCode: -1, Stderr: message}
}

// discardHandler drops all records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
