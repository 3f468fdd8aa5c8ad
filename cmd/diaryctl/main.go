package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/mydiary/internal/adapter/driving/cli"
	"github.com/ericfisherdev/mydiary/internal/bootstrap"
	"github.com/ericfisherdev/mydiary/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Warnings only, so command output stays clean.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("error closing storage", "error", closeErr)
		}
	}()

	root := cli.NewRootCommand(cli.Deps{
		Diary:       app.Diary,
		Gate:        app.Gate,
		Calendar:    app.Calendar,
		Exports:     app.Exports,
		Attachments: app.Attachments,
		Logger:      logger,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
