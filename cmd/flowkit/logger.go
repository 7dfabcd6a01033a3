package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/flowkit-io/flowkit/internal/logging"
)

// newLogger builds the CLI logger: a tint handler on stderr wrapped with the
// run correlation handler.
func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	switch cmd.String("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	return slog.New(logging.NewCorrelationHandler(handler))
}
