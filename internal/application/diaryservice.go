package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// EntryObserver is notified after an entry has been persisted.
type EntryObserver interface {
	EntrySaved(ctx context.Context, entry model.DiaryEntry)
}

// BackupFailure records a backup sink that could not write its copy.
type BackupFailure struct {
	Sink string
	Err  error
}

// SaveResult describes a successful save. BackupFailures lists companion
// copies that failed; the entry itself is stored regardless.
type SaveResult struct {
	Entry          model.DiaryEntry
	BackupFailures []BackupFailure
}

// DiaryService coordinates entry persistence, best-effort backups and
// observer notification. It depends only on port interfaces.
type DiaryService struct {
	store   driven.EntryStore
	backups []driven.BackupSink
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	observers []EntryObserver
}

// NewDiaryService creates a DiaryService. backups may be empty.
func NewDiaryService(store driven.EntryStore, backups []driven.BackupSink, logger *slog.Logger) *DiaryService {
	return &DiaryService{
		store:   store,
		backups: backups,
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe registers an observer for saved entries.
func (s *DiaryService) Subscribe(o EntryObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Save validates and upserts the entry, writes backups, then notifies
// observers. A storage failure aborts before any backup or notification.
func (s *DiaryService) Save(ctx context.Context, entry model.DiaryEntry) (SaveResult, error) {
	entry, err := entry.Normalize()
	if err != nil {
		return SaveResult{}, err
	}

	now := s.now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.store.Save(ctx, entry); err != nil {
		return SaveResult{}, err
	}

	saved, err := s.store.Load(ctx, entry.Date)
	if err != nil {
		return SaveResult{}, err
	}
	if saved == nil {
		return SaveResult{}, &model.StorageError{Op: "reload " + entry.Date.String(), Err: model.ErrEntryNotFound}
	}

	result := SaveResult{Entry: *saved}
	for _, sink := range s.backups {
		if err := sink.Backup(ctx, *saved); err != nil {
			s.logger.Warn("backup failed", "sink", sink.Name(), "date", saved.Date.String(), "error", err)
			result.BackupFailures = append(result.BackupFailures, BackupFailure{Sink: sink.Name(), Err: err})
		}
	}

	s.mu.RLock()
	observers := append([]EntryObserver(nil), s.observers...)
	s.mu.RUnlock()
	for _, o := range observers {
		o.EntrySaved(ctx, *saved)
	}

	s.logger.Info("entry saved", "date", saved.Date.String(), "mood", string(saved.Mood), "weather", string(saved.Weather))
	return result, nil
}

// Get returns the stored entry for date, or nil when none exists.
func (s *DiaryService) Get(ctx context.Context, date model.Date) (*model.DiaryEntry, error) {
	return s.store.Load(ctx, date)
}

// Open returns the entry to show in an editor for date. When nothing is
// stored yet it returns a blank entry for that date and found=false.
func (s *DiaryService) Open(ctx context.Context, date model.Date) (entry model.DiaryEntry, found bool, err error) {
	stored, err := s.store.Load(ctx, date)
	if err != nil {
		return model.DiaryEntry{}, false, err
	}
	if stored == nil {
		return model.DiaryEntry{Date: date}, false, nil
	}
	return *stored, true, nil
}

// List returns every entry, most recent first.
func (s *DiaryService) List(ctx context.Context) ([]model.DiaryEntry, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}
