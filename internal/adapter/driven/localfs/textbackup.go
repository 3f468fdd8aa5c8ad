package localfs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var _ driven.BackupSink = (*TextBackup)(nil)

// TextBackup writes Diary_<date>.txt into a directory on every save.
type TextBackup struct {
	dir string
}

func NewTextBackup(dir string) *TextBackup {
	return &TextBackup{dir: dir}
}

func (b *TextBackup) Name() string { return "local" }

// Path returns where the backup for date is written.
func (b *TextBackup) Path(date model.Date) string {
	return filepath.Join(b.dir, model.BackupFileName(date))
}

func (b *TextBackup) Backup(_ context.Context, entry model.DiaryEntry) error {
	if err := writeFileAtomic(b.Path(entry.Date), model.BackupText(entry), 0o644); err != nil {
		return fmt.Errorf("write backup for %s: %w", entry.Date, err)
	}
	return nil
}
