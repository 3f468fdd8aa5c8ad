// Package bootstrap wires configured adapters into the application services
// shared by the mydiary server and the diaryctl CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	githubadapter "github.com/ericfisherdev/mydiary/internal/adapter/driven/github"
	"github.com/ericfisherdev/mydiary/internal/adapter/driven/document"
	"github.com/ericfisherdev/mydiary/internal/adapter/driven/localfs"
	pgadapter "github.com/ericfisherdev/mydiary/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/mydiary/internal/adapter/driven/s3store"
	sqliteadapter "github.com/ericfisherdev/mydiary/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/config"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// App holds the wired services. Close releases the database.
type App struct {
	Entries     driven.EntryStore
	Diary       *application.DiaryService
	Gate        *application.CredentialGate
	Calendar    *application.CalendarService
	Exports     *application.ExportService
	Attachments driven.AttachmentStore

	closers []func() error
}

// Open connects storage, runs migrations and builds the services described
// by cfg. On error everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{}
	ready := false
	defer func() {
		if !ready {
			_ = app.Close()
		}
	}()

	weekStart, err := application.ParseWeekday(cfg.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("MYDIARY_WEEK_START: %w", err)
	}

	// 1. Entry and credential storage.
	entries, dbCredentials, err := app.openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Entries = entries

	var credentials driven.CredentialStore
	switch cfg.CredentialBackend {
	case config.CredentialDB:
		credentials = dbCredentials
	default:
		credentials = localfs.NewCredentialFile(cfg.CredentialFile)
	}
	logger.Info("credential store ready", "backend", cfg.CredentialBackend)

	// 2. Backups: local text copies always, GitHub when configured.
	backups := []driven.BackupSink{localfs.NewTextBackup(cfg.BackupDir)}
	if cfg.HasGitHubBackup() {
		sink, err := githubadapter.NewBackupSink(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubBranch)
		if err != nil {
			return nil, fmt.Errorf("github backup: %w", err)
		}
		if err := sink.Verify(ctx); err != nil {
			logger.Warn("github backup repository not reachable, saves will report backup failures", "repo", cfg.GitHubRepo, "error", err)
		}
		backups = append(backups, sink)
		logger.Info("github backup enabled", "repo", cfg.GitHubRepo, "branch", cfg.GitHubBranch)
	}

	// 3. Attachments.
	if cfg.HasS3() {
		store, err := s3store.New(ctx, s3store.Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 attachments: %w", err)
		}
		app.Attachments = store
		logger.Info("attachments stored in s3", "bucket", cfg.S3Bucket)
	} else {
		store, err := localfs.NewAttachments(cfg.AttachmentDir)
		if err != nil {
			return nil, fmt.Errorf("local attachments: %w", err)
		}
		app.Attachments = store
		logger.Info("attachments stored locally", "dir", cfg.AttachmentDir)
	}

	// 4. Services.
	pdfFont := cfg.PDFFont
	if pdfFont == "" {
		pdfFont = document.SystemFont()
	}
	if pdfFont == "" {
		logger.Warn("no CJK font found for PDF export, entries with Chinese text will fail to export; set MYDIARY_PDF_FONT")
	} else {
		logger.Info("pdf font selected", "path", pdfFont)
	}
	renderer := application.NewRenderer(app.Attachments, logger,
		document.NewPDFWriter(pdfFont),
		document.NewTextWriter(),
	)
	app.Diary = application.NewDiaryService(entries, backups, logger)
	app.Gate = application.NewCredentialGate(credentials, logger)
	app.Calendar = application.NewCalendarService(entries, weekStart)
	app.Exports = application.NewExportService(entries, renderer, logger)

	ready = true
	return app, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.EntryStore, driven.CredentialStore, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := pgadapter.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := pgadapter.RunMigrations(ctx, db); err != nil {
			return nil, nil, err
		}
		logger.Info("postgres database ready")
		return pgadapter.NewEntryRepo(db), pgadapter.NewCredentialRepo(db), nil

	default:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite database ready", "path", db.Path())
		return sqliteadapter.NewEntryRepo(db), sqliteadapter.NewCredentialRepo(db), nil
	}
}

// Close releases everything Open acquired.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
