package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/flowkit-io/flowkit/internal/engine"
	"github.com/flowkit-io/flowkit/internal/parser"
	"github.com/flowkit-io/flowkit/internal/runner"
	"github.com/flowkit-io/flowkit/internal/scheduler"
	"github.com/flowkit-io/flowkit/internal/validation"
	"github.com/flowkit-io/flowkit/pkg/mcp"
	"github.com/flowkit-io/flowkit/pkg/schema"
)

func runList(cmd *cli.Command) error {
	dir := cmd.String("dir")
	entries, broken, err := parser.ListWorkflows(dir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTEPS\tTRIGGERS\tDESCRIPTION")
	for _, entry := range entries {
		wf := entry.Workflow
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			wf.Name, orDash(wf.Version), len(wf.Steps), triggerSummary(wf.Triggers), orDash(wf.Description))
	}
	w.Flush()

	for path, loadErr := range broken {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.YellowString("skipped"), path, loadErr)
	}
	return nil
}

func runValidate(cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: flowkit validate <workflow.yaml>")
	}

	wf, err := parser.Load(path)
	if err != nil {
		return err
	}
	result := validation.Validate(wf)
	fmt.Print(result.Formatted())
	if !result.Valid() {
		return cli.Exit("", 1)
	}
	return nil
}

func runRun(ctx context.Context, cmd *cli.Command, cfg Config) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: flowkit run <workflow.yaml>")
	}

	wf, err := parser.Load(path)
	if err != nil {
		return err
	}
	vr := validation.Validate(wf)
	if !vr.Valid() {
		fmt.Print(vr.Formatted())
		return cli.Exit("", 1)
	}

	variables, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return err
	}

	eng := newEngine(cmd, cfg)
	result := eng.Run(ctx, wf, engine.Options{
		DryRun:           cmd.Bool("dry-run"),
		Verbose:          cmd.Bool("verbose"),
		WorkingDirectory: cmd.String("workdir"),
		Variables:        variables,
	})

	printResult(result)
	if !result.Success {
		return cli.Exit("", 1)
	}
	return nil
}

func runSchedule(ctx context.Context, cmd *cli.Command, cfg Config) error {
	dir := cmd.String("dir")
	logger := newLogger(cmd)
	eng := newEngine(cmd, cfg)

	sched := scheduler.New(dir, &engineRunner{engine: eng}, logger)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command, cfg Config) error {
	logger := newLogger(cmd)
	srv := mcp.NewFlowkitServer(mcp.FlowkitServerDeps{
		Engine:       newEngine(cmd, cfg),
		WorkflowsDir: cmd.String("dir"),
		Logger:       logger,
	})
	return srv.Serve(ctx)
}

// engineRunner adapts the Engine to the scheduler's WorkflowRunner.
type engineRunner struct {
	engine *engine.Engine
}

func (r *engineRunner) RunWorkflow(ctx context.Context, path string, wf *schema.Workflow) error {
	result := r.engine.Run(ctx, wf, engine.Options{})
	if !result.Success {
		return fmt.Errorf("%s", result.Error)
	}
	return nil
}

func newEngine(cmd *cli.Command, cfg Config) *engine.Engine {
	r := &runner.ShellRunner{
		DefaultShell: cfg.DefaultShell,
		MaxOutput:    cfg.MaxOutputKB * 1024,
	}
	return engine.New(r, nil, newLogger(cmd), os.Stdout)
}

func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}

// printResult renders the formatted workflow result with a colored status
// line.
func printResult(result *schema.WorkflowResult) {
	formatted := result.Formatted()
	line, rest, _ := strings.Cut(formatted, "\n")
	if result.Success {
		fmt.Println(color.GreenString(line))
	} else {
		fmt.Println(color.RedString(line))
	}
	fmt.Print(rest)
}

func triggerSummary(t *schema.WorkflowTriggers) string {
	if t == nil {
		return "-"
	}
	var parts []string
	if t.Schedule != "" {
		parts = append(parts, "cron("+t.Schedule+")")
	}
	if t.Manual {
		parts = append(parts, "manual")
	}
	if t.Event != "" {
		parts = append(parts, "event("+t.Event+")")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
