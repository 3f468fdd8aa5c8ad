package driven

import (
	"context"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

// BackupSink receives a human-readable copy of each saved entry. Backups are
// auxiliary; the EntryStore stays the system of record.
type BackupSink interface {
	Name() string
	Backup(ctx context.Context, entry model.DiaryEntry) error
}
