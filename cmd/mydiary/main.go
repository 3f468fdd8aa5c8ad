package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	httphandler "github.com/ericfisherdev/mydiary/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/mydiary/internal/adapter/driving/web"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/bootstrap"
	"github.com/ericfisherdev/mydiary/internal/config"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid settings).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_driver", cfg.DBDriver,
		"credential_backend", cfg.CredentialBackend,
		"github_backup", cfg.HasGitHubBackup(),
		"s3_attachments", cfg.HasS3(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open storage, run migrations and wire services.
	app, err := bootstrap.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing storage", "error", closeErr)
		}
	}()

	// 4. Entry list observes saves so the home page stays current.
	entryList := application.NewEntryList(app.Entries, slog.Default())
	if err := entryList.Refresh(ctx); err != nil {
		return err
	}
	app.Diary.Subscribe(entryList)
	go entryList.Watch(ctx, func(entries []model.DiaryEntry) {
		slog.Info("entry list refreshed", "entries", len(entries))
	})

	// 5. Sessions for the API and the GUI.
	sessions, err := application.NewSessionIssuer(cfg.SessionKey, cfg.SessionTTL)
	if err != nil {
		return err
	}
	if cfg.SessionKey == nil {
		slog.Warn("MYDIARY_SESSION_KEY not set, sessions end when the server restarts")
	}

	// 6. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(app.Diary, app.Gate, sessions, app.Calendar, app.Exports, app.Attachments, slog.Default())
	mux := http.NewServeMux()
	apiHandler.Register(mux)

	// 7. Create web handler and register GUI routes.
	webHandler := webhandler.NewHandler(app.Diary, entryList, app.Gate, sessions, app.Calendar, app.Exports, app.Attachments, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.Wrap(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 8. Log startup complete.
	slog.Info("mydiary started",
		"listen_addr", cfg.ListenAddr,
		"password_set", app.Gate.HasCredential(ctx),
		"formats", app.Exports.Renderer().Formats(),
	)

	// 9. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	// 10. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	// 11. Log shutdown complete.
	slog.Info("shutdown complete")
	return nil
}
