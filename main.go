package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"transcribe/config"
	"transcribe/fasterwhisper"
)

func main() {
	cfg, logger := setup(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	model := fasterwhisper.New(cfg.Python, fasterwhisper.DefaultProfile, logger)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, model, logger)

	if err := model.Close(); err != nil {
		logger.Warn("releasing model", "err", err)
	}
	stop()
	os.Exit(code)
}

// setup loads the environment and builds the stderr logger. Config problems
// are warnings: argument handling never depends on the working directory.
func setup(stderr io.Writer, envFiles ...string) (config.Config, *slog.Logger) {
	cfg, err := config.Load(envFiles...)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err != nil {
		logger.Warn("using default configuration", "err", err)
	}
	return cfg, logger
}
