package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

const defaultMaxOutput = 10 * 1024 * 1024 // 10MB per stream

// ShellRunner runs commands through a shell interpreter (`<shell> -c`),
// capturing stdout and stderr up to MaxOutput bytes per stream.
type ShellRunner struct {
	// DefaultShell is used when the spec does not name an interpreter.
	// Empty means the package default.
	DefaultShell string
	// MaxOutput caps each captured stream. Zero means the 10MB default.
	MaxOutput int64
}

// NewShellRunner returns a ShellRunner with the default output cap.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

// Run executes spec.Command and returns the captured outcome. A non-zero
// exit status is not an error: it is reported in Result.ExitCode. An error
// return means the process could not be started at all (missing interpreter,
// bad working directory).
func (r *ShellRunner) Run(ctx context.Context, spec Spec) (*Result, error) {
	shell := spec.Shell
	if shell == "" {
		shell = r.DefaultShell
	}
	if shell == "" {
		shell = DefaultShell
	}

	execCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, shell, "-c", spec.Command)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = defaultMaxOutput
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdoutBuf, limit: maxOutput}
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxOutput}

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: duration,
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Non-exit error: the process never ran.
			return nil, runErr
		}
		result.ExitCode = exitErr.ExitCode()
		if execCtx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
		}
	}
	return result, nil
}

// limitedWriter wraps a writer and silently discards bytes beyond the limit.
// Write always reports the full len(p) consumed to prevent the subprocess
// from blocking on a full pipe.
type limitedWriter struct {
	w       io.Writer
	limit   int64
	written int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	remaining := lw.limit - lw.written
	if remaining <= 0 {
		return total, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := lw.w.Write(p)
	lw.written += int64(n)
	if err != nil {
		return total, err
	}
	return total, nil
}
