package localfs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

func TestCredentialFile_MissingIsUnset(t *testing.T) {
	f := NewCredentialFile(filepath.Join(t.TempDir(), "config", "password.txt"))

	digest, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, digest)
}

func TestCredentialFile_StoreCreatesOwnerOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "password.txt")
	f := NewCredentialFile(path)
	ctx := context.Background()

	require.NoError(t, f.Store(ctx, "digest-one"))
	require.NoError(t, f.Store(ctx, "digest-two"))

	digest, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "digest-two", digest)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCredentialFile_LoadTrimsLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password.txt")
	require.NoError(t, os.WriteFile(path, []byte("  bGVnYWN5\r\n"), 0o600))

	digest, err := NewCredentialFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bGVnYWN5", digest)
}

func TestTextBackup_WritesCompanionFile(t *testing.T) {
	dir := t.TempDir()
	b := NewTextBackup(dir)

	entry := model.DiaryEntry{
		Date:    model.NewDate(2024, time.March, 1),
		Mood:    model.MoodGreat,
		Content: "hello",
	}
	require.NoError(t, b.Backup(context.Background(), entry))

	data, err := os.ReadFile(filepath.Join(dir, "Diary_2024-03-01.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01\n😊 很棒\n(未選)\nhello", string(data))
	assert.Equal(t, "local", b.Name())
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		name, contentType, want string
		wantErr                 bool
	}{
		{"a.png", "image/png", ".png", false},
		{"photo.JPEG", "application/octet-stream", ".jpg", false},
		{"x", "image/jpeg", ".jpg", false},
		{"anim.gif", "", ".gif", false},
		{"doc.pdf", "application/pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageExtension(tt.name, tt.contentType)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, model.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttachments_PutOpenLocal(t *testing.T) {
	store, err := NewAttachments(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, "cat.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.True(t, store.Owns(ref))

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	path, cleanup, err := store.Local(ctx, ref)
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, ref, path)
	_, err = os.Stat(path)
	assert.NoError(t, err, "cleanup must not remove stored attachments")
}

func TestAttachments_RejectsForeignRefs(t *testing.T) {
	store, err := NewAttachments(t.TempDir())
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "secret.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	assert.False(t, store.Owns(outside))
	assert.False(t, store.Owns("relative.png"))

	_, err = store.Open(context.Background(), outside)
	assert.True(t, errors.Is(err, driven.ErrAttachmentNotFound))
}

func TestAttachments_MissingFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewAttachments(dir)
	require.NoError(t, err)

	_, _, err = store.Local(context.Background(), filepath.Join(dir, "gone.png"))
	assert.ErrorIs(t, err, driven.ErrAttachmentNotFound)
}

func TestAttachments_Delete(t *testing.T) {
	store, err := NewAttachments(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, "cat.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(ref)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, store.Delete(ctx, ref), "deleting twice is fine")

	outside := filepath.Join(t.TempDir(), "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	assert.ErrorIs(t, store.Delete(ctx, outside), driven.ErrAttachmentNotFound)
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
