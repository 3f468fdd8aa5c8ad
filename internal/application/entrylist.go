package application

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// EntryList is the list view's data source. It observes saves, re-fetches
// the full list after each one and publishes the new snapshot to
// subscribers.
type EntryList struct {
	store  driven.EntryStore
	logger *slog.Logger

	mu      sync.RWMutex
	entries []model.DiaryEntry
	subs    map[int]chan []model.DiaryEntry
	nextSub int
}

// Compile-time interface satisfaction check.
var _ EntryObserver = (*EntryList)(nil)

// NewEntryList creates an empty EntryList. Call Refresh to load it.
func NewEntryList(store driven.EntryStore, logger *slog.Logger) *EntryList {
	return &EntryList{
		store:   store,
		logger:  logger,
		entries: []model.DiaryEntry{},
		subs:    make(map[int]chan []model.DiaryEntry),
	}
}

// Refresh reloads every entry from the store and publishes the snapshot.
// On failure the previous snapshot is kept.
func (l *EntryList) Refresh(ctx context.Context) error {
	entries, err := l.store.ListAll(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.entries = entries
	for _, ch := range l.subs {
		publish(ch, slices.Clone(entries))
	}
	l.mu.Unlock()
	return nil
}

// Entries returns a copy of the current snapshot.
func (l *EntryList) Entries() []model.DiaryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// EntrySaved implements EntryObserver.
func (l *EntryList) EntrySaved(ctx context.Context, entry model.DiaryEntry) {
	if err := l.Refresh(ctx); err != nil {
		l.logger.Error("refresh entry list after save", "date", entry.Date.String(), "error", err)
	}
}

// Subscribe returns a channel that receives the latest snapshot after every
// refresh. Only the newest snapshot is buffered. The returned func
// unsubscribes and closes the channel.
func (l *EntryList) Subscribe() (<-chan []model.DiaryEntry, func()) {
	ch := make(chan []model.DiaryEntry, 1)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// Watch calls fn with every snapshot published after it subscribes, until
// ctx is done.
func (l *EntryList) Watch(ctx context.Context, fn func([]model.DiaryEntry)) {
	updates, unsubscribe := l.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			fn(snap)
		}
	}
}

// publish replaces any unread snapshot in ch with snap. Callers hold l.mu,
// so sends on one channel never race.
func publish(ch chan []model.DiaryEntry, snap []model.DiaryEntry) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
