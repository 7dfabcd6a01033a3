// Package engine executes workflows: it threads an ExecutionContext through
// the guard evaluator and step executor for each step in order, applies
// workflow-level error handling, and produces the aggregate WorkflowResult.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowkit-io/flowkit/internal/expressions"
	"github.com/flowkit-io/flowkit/internal/logging"
	"github.com/flowkit-io/flowkit/internal/runner"
	"github.com/flowkit-io/flowkit/internal/validation"
	"github.com/flowkit-io/flowkit/pkg/schema"
)

// State is the engine's position in the run lifecycle.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Options configures one Run call.
type Options struct {
	// DryRun simulates execution: guards and substitution are evaluated but
	// the command runner is never invoked.
	DryRun bool
	// Verbose echoes per-step stdout as the run proceeds. Reporting only;
	// it never changes outcomes.
	Verbose bool
	// WorkingDirectory for step commands. Empty means the process's own.
	WorkingDirectory string
	// Variables are caller-supplied context variables, applied on top of
	// the workflow's env block.
	Variables map[string]string
}

// Engine drives workflow execution. Execution is strictly sequential; a
// single Run call owns its ExecutionContext and result list exclusively, and
// separate Run calls are fully independent.
type Engine struct {
	executor *StepExecutor
	runner   runner.Runner
	clock    Clock
	logger   *slog.Logger
	stdout   io.Writer
}

// New creates an Engine on top of the given command runner. A nil clock
// means the wall clock; a nil logger discards; a nil stdout disables
// verbose echo.
func New(r runner.Runner, clock Clock, logger *slog.Logger, stdout io.Writer) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	if stdout == nil {
		stdout = io.Discard
	}
	return &Engine{
		executor: NewStepExecutor(r, clock, logger),
		runner:   r,
		clock:    clock,
		logger:   logger,
		stdout:   stdout,
	}
}

// Run executes the workflow and always returns a usable, inspectable result;
// step failures are reflected in the result, never raised. Callers are
// expected to validate first, but Run re-validates defensively and refuses
// to execute an invalid workflow.
func (e *Engine) Run(ctx context.Context, wf *schema.Workflow, opts Options) *schema.WorkflowResult {
	result := &schema.WorkflowResult{Workflow: wfName(wf)}

	if vr := validation.Validate(wf); !vr.Valid() {
		result.Error = vr.ToError().Error()
		return result
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(logging.WithWorkflow(ctx, wf.Name), runID)

	ec := NewExecutionContext(wf, opts.WorkingDirectory, opts.Variables)
	state := StateRunning
	start := e.clock.Now()

	e.logger.InfoContext(ctx, "workflow started",
		slog.Int("steps", len(wf.Steps)), slog.Bool("dry_run", opts.DryRun))

	for i := range wf.Steps {
		step := &wf.Steps[i]

		// After a blocking failure no further steps execute; dry-run keeps
		// simulating so the report shows everything that would run.
		if state == StateFailed && !opts.DryRun {
			break
		}

		var stepResult schema.StepResult
		if opts.DryRun {
			stepResult = e.simulate(step, i, ec)
		} else {
			stepResult = e.executor.Execute(ctx, step, i, ec)
		}
		result.Steps = append(result.Steps, stepResult)

		if opts.Verbose && stepResult.Stdout != "" {
			fmt.Fprintln(e.stdout, stepResult.Stdout)
		}

		if stepResult.Success {
			continue
		}
		e.logger.WarnContext(logging.WithStep(ctx, stepResult.Name), "step failed",
			slog.Int("exit_code", stepResult.ExitCode),
			slog.Bool("tolerated", step.ContinueOnError))

		if step.ContinueOnError {
			// Tolerated failure: the sequence continues and the workflow
			// still succeeds overall if every failure was tolerated.
			continue
		}

		state = StateFailed
		if result.Error == "" {
			result.Error = fmt.Sprintf("step %q failed with exit code %d", stepResult.Name, stepResult.ExitCode)
		}
		if !opts.DryRun {
			e.runErrorHandlers(ctx, wf, ec)
		}
	}

	if state != StateFailed {
		state = StateSucceeded
	}
	result.Success = state == StateSucceeded
	result.TotalDuration = e.clock.Now().Sub(start)

	e.logger.InfoContext(ctx, "workflow finished",
		slog.String("state", string(state)),
		slog.Duration("duration", result.TotalDuration))
	return result
}

// simulate evaluates the step's guard and substitution without invoking the
// runner, recording a synthetic success that names the command that would
// execute. Output variables are not set: nothing ran, nothing was captured.
func (e *Engine) simulate(step *schema.WorkflowStep, index int, ec *ExecutionContext) schema.StepResult {
	label := step.Label(index)

	if step.When != "" {
		expr, err := expressions.ParseCondition(step.When)
		if err != nil {
			return failedResult(label, err.Error())
		}
		if !expr.Eval(ec) {
			return schema.StepResult{Name: label, Success: true, Skipped: true}
		}
	}

	rendered, err := expressions.Interpolate(step.Run, ec)
	if err != nil {
		return failedResult(label, err.Error())
	}
	return schema.StepResult{
		Name:    label,
		Success: true,
		Stdout:  "would execute: " + rendered,
	}
}

// runErrorHandlers invokes the workflow's on_error handlers once. Handler
// failures are logged, never re-raised: a broken handler must not turn
// failure reporting into a crash.
func (e *Engine) runErrorHandlers(ctx context.Context, wf *schema.Workflow, ec *ExecutionContext) {
	for i := range wf.OnError {
		handler := &wf.OnError[i]

		if handler.Notify != "" {
			msg, err := expressions.Interpolate(handler.Notify, ec)
			if err != nil {
				e.logger.ErrorContext(ctx, "error handler notify template invalid", slog.String("error", err.Error()))
			} else {
				e.logger.WarnContext(ctx, "workflow failure notification", slog.String("message", msg))
				fmt.Fprintln(e.stdout, msg)
			}
		}

		if handler.Run == "" {
			continue
		}
		rendered, err := expressions.Interpolate(handler.Run, ec)
		if err != nil {
			e.logger.ErrorContext(ctx, "error handler command template invalid", slog.String("error", err.Error()))
			continue
		}
		// Handlers run once, outside the step retry machinery.
		res, err := e.runner.Run(ctx, runner.Spec{
			Command: rendered,
			Dir:     ec.WorkingDirectory,
			Env:     ec.Environ(),
		})
		switch {
		case err != nil:
			e.logger.ErrorContext(ctx, "error handler command failed to start", slog.String("error", err.Error()))
		case res.ExitCode != 0:
			e.logger.ErrorContext(ctx, "error handler command failed",
				slog.Int("exit_code", res.ExitCode), slog.String("stderr", res.Stderr))
		}
	}
}

func wfName(wf *schema.Workflow) string {
	if wf == nil {
		return ""
	}
	return wf.Name
}
