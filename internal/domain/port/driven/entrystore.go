// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

// EntryStore defines the driven port for diary entry persistence. All
// failures are reported as *model.StorageError.
type EntryStore interface {
	// Save inserts the entry or overwrites the mood, weather, content and
	// image path of the existing entry for the same date, atomically.
	Save(ctx context.Context, entry model.DiaryEntry) error

	// Load returns the entry for date, or (nil, nil) when none exists.
	Load(ctx context.Context, date model.Date) (*model.DiaryEntry, error)

	// ListAll returns every entry ordered by date, most recent first.
	// The result is never nil.
	ListAll(ctx context.Context) ([]model.DiaryEntry, error)

	// ListRange returns entries with from <= date <= to, most recent first.
	ListRange(ctx context.Context, from, to model.Date) ([]model.DiaryEntry, error)
}
