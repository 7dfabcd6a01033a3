package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-io/flowkit/pkg/schema"
)

// recordingRunner captures RunWorkflow calls and signals each one on ran.
type recordingRunner struct {
	mu      sync.Mutex
	paths   []string
	ran     chan string
	release chan struct{} // when non-nil, runs block until it is closed
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{ran: make(chan string, 16)}
}

func (r *recordingRunner) RunWorkflow(ctx context.Context, path string, wf *schema.Workflow) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ran <- path
	if r.release != nil {
		<-r.release
	}
	return nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func waitForRun(t *testing.T, r *recordingRunner) string {
	t.Helper()
	select {
	case path := <-r.ran:
		return path
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a scheduled run")
		return ""
	}
}

func writeWorkflow(t *testing.T, dir, name, schedule string) string {
	t.Helper()
	doc := "name: " + name + "\n"
	if schedule != "" {
		doc += "triggers:\n  schedule: \"" + schedule + "\"\n"
	}
	doc += "steps:\n  - run: echo hi\n"
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.Local)
}

func TestTick_RunsDueWorkflow(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkflow(t, dir, "nightly", "0 3 * * *")
	runner := newRecordingRunner()
	s := New(dir, runner, discardLogger())

	s.tick(context.Background(), at(2, 59), at(3, 1))

	assert.Equal(t, path, waitForRun(t, runner))
}

func TestTick_NotDueOutsideWindow(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "nightly", "0 3 * * *")
	runner := newRecordingRunner()
	s := New(dir, runner, discardLogger())

	s.tick(context.Background(), at(4, 0), at(4, 1))

	assert.Equal(t, 0, runner.count())
}

func TestTick_IgnoresUnscheduledWorkflows(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "manual", "")
	runner := newRecordingRunner()
	s := New(dir, runner, discardLogger())

	s.tick(context.Background(), at(2, 59), at(3, 1))

	assert.Equal(t, 0, runner.count())
}

func TestTick_SkipsInvalidSchedule(t *testing.T) {
	dir := t.TempDir()
	writeWorkflow(t, dir, "bad", "not a cron")
	good := writeWorkflow(t, dir, "nightly", "0 3 * * *")
	runner := newRecordingRunner()
	s := New(dir, runner, discardLogger())

	s.tick(context.Background(), at(2, 59), at(3, 1))

	assert.Equal(t, good, waitForRun(t, runner))
	assert.Equal(t, 1, runner.count())
}

func TestTick_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))
	good := writeWorkflow(t, dir, "nightly", "0 3 * * *")
	runner := newRecordingRunner()
	s := New(dir, runner, discardLogger())

	s.tick(context.Background(), at(2, 59), at(3, 1))

	assert.Equal(t, good, waitForRun(t, runner))
}

func TestTick_NoOverlappingRuns(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkflow(t, dir, "slow", "* * * * *")
	runner := newRecordingRunner()
	runner.release = make(chan struct{})
	s := New(dir, runner, discardLogger())

	s.tick(context.Background(), at(9, 0), at(9, 1))
	waitForRun(t, runner)

	// The first run is still in flight; the next tick must skip the path.
	s.tick(context.Background(), at(9, 1), at(9, 2))
	assert.Equal(t, 1, runner.count())

	close(runner.release)
	require.Eventually(t, func() bool {
		s.inflightMu.Lock()
		defer s.inflightMu.Unlock()
		return len(s.inflight) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// With the slot released the workflow is runnable again.
	s.tick(context.Background(), at(9, 2), at(9, 3))
	assert.Equal(t, path, waitForRun(t, runner))
	assert.Equal(t, 2, runner.count())
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	runner := newRecordingRunner()
	s := New(dir, runner, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "a second Start is refused")
	s.Stop()
}
