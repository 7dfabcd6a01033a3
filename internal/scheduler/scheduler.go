// Package scheduler runs workflows on their triggers.schedule cron
// expressions. It is a separate consumer of the workflow directory; the
// engine itself treats schedules as advisory.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowkit-io/flowkit/internal/parser"
	"github.com/flowkit-io/flowkit/pkg/schema"
)

// WorkflowRunner is the interface the scheduler uses to run due workflows.
// Satisfied by the engine wiring in cmd.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, path string, wf *schema.Workflow) error
}

// Scheduler scans a directory of workflows on a fixed tick and runs every
// workflow whose schedule has come due since the previous tick. In-flight
// runs are deduplicated by path: a workflow never overlaps itself.
type Scheduler struct {
	dir      string
	runner   WorkflowRunner
	parser   cron.Parser
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// New creates a Scheduler over dir with a one-minute tick.
func New(dir string, runner WorkflowRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		dir:      dir,
		runner:   runner,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:   logger,
		interval: time.Minute,
		inflight: make(map[string]struct{}),
	}
}

// Start launches the background scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started", slog.String("dir", s.dir))
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	prev := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, prev, now)
			prev = now
		}
	}
}

// tick runs every scheduled workflow whose next activation after prev falls
// at or before now.
func (s *Scheduler) tick(ctx context.Context, prev, now time.Time) {
	entries, broken, err := parser.ListWorkflows(s.dir)
	if err != nil {
		s.logger.Error("failed to list workflows", slog.String("error", err.Error()))
		return
	}
	for path, loadErr := range broken {
		s.logger.Warn("skipping unparseable workflow",
			slog.String("path", path), slog.String("error", loadErr.Error()))
	}

	for _, entry := range entries {
		wf := entry.Workflow
		if wf.Triggers == nil || wf.Triggers.Schedule == "" {
			continue
		}
		sched, err := s.parser.Parse(wf.Triggers.Schedule)
		if err != nil {
			s.logger.Warn("skipping workflow with invalid schedule",
				slog.String("workflow", wf.Name), slog.String("schedule", wf.Triggers.Schedule))
			continue
		}
		next := sched.Next(prev)
		if next.After(now) {
			continue
		}
		if !s.tryAcquire(entry.Path) {
			s.logger.Debug("workflow still running, skipping tick", slog.String("workflow", wf.Name))
			continue
		}

		go func(entry parser.Entry) {
			defer s.release(entry.Path)
			s.logger.Info("running scheduled workflow",
				slog.String("workflow", entry.Workflow.Name), slog.String("path", entry.Path))
			if err := s.runner.RunWorkflow(ctx, entry.Path, entry.Workflow); err != nil {
				s.logger.Error("scheduled workflow failed",
					slog.String("workflow", entry.Workflow.Name), slog.String("error", err.Error()))
			}
		}(entry)
	}
}

func (s *Scheduler) tryAcquire(path string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, running := s.inflight[path]; running {
		return false
	}
	s.inflight[path] = struct{}{}
	return true
}

func (s *Scheduler) release(path string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, path)
}
