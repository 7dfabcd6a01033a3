package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	cfg := loadConfig()

	cmd := &cli.Command{
		Name:                  "flowkit",
		Usage:                 "Run declarative multi-step automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: cfg.LogLevel,
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List workflows in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Workflow directory",
						Value: cfg.WorkflowsDir,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runList(cmd)
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a workflow file",
				ArgsUsage: "<workflow.yaml>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(cmd)
				},
			},
			{
				Name:      "run",
				Usage:     "Validate and execute a workflow file",
				ArgsUsage: "<workflow.yaml>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Simulate the run without executing commands",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Echo per-step stdout while the run proceeds",
					},
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "Extra context variable (key=value, repeatable)",
					},
					&cli.StringFlag{
						Name:  "workdir",
						Usage: "Working directory for step commands",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runRun(ctx, cmd, cfg)
				},
			},
			{
				Name:  "schedule",
				Usage: "Run workflows on their cron triggers until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Workflow directory",
						Value: cfg.WorkflowsDir,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSchedule(ctx, cmd, cfg)
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the workflow engine over MCP on stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Workflow directory",
						Value: cfg.WorkflowsDir,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runServe(ctx, cmd, cfg)
				},
			},
			{
				Name:  "version",
				Usage: "Print the flowkit version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Println("flowkit " + version)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "flowkit:", err)
		os.Exit(1)
	}
}
