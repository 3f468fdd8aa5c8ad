package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var _ driven.AttachmentStore = (*Attachments)(nil)

// imageExtensions maps accepted image content types to file extensions.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

// ImageExtension returns the extension for an accepted image upload. The
// content type wins; the file name is consulted when the type is generic.
func ImageExtension(name, contentType string) (string, error) {
	if ext, ok := imageExtensions[strings.ToLower(contentType)]; ok {
		return ext, nil
	}
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".png", ".gif":
		return ext, nil
	case ".jpg", ".jpeg":
		return ".jpg", nil
	}
	return "", &model.ValidationError{Field: "image", Msg: fmt.Sprintf("unsupported image type %q", contentType)}
}

// Attachments stores uploaded images as files under a root directory. Refs
// are absolute file paths, matching how a desktop user picks an image.
type Attachments struct {
	root string
}

// NewAttachments returns a store rooted at dir. dir is made absolute.
func NewAttachments(dir string) (*Attachments, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve attachment dir: %w", err)
	}
	return &Attachments{root: root}, nil
}

func (a *Attachments) Put(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	ext, err := ImageExtension(name, contentType)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return "", &model.StorageError{Op: "create attachment dir", Err: err}
	}

	path := filepath.Join(a.root, uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &model.StorageError{Op: "create attachment", Err: err}
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", &model.StorageError{Op: "write attachment", Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &model.StorageError{Op: "close attachment", Err: err}
	}
	return path, nil
}

// Open refuses refs outside the root so callers cannot read arbitrary files.
func (a *Attachments) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !a.Owns(ref) {
		return nil, driven.ErrAttachmentNotFound
	}
	f, err := os.Open(ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, driven.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, &model.StorageError{Op: "open attachment", Err: err}
	}
	return f, nil
}

// Local returns ref itself; the file already lives on disk.
func (a *Attachments) Local(_ context.Context, ref string) (string, func(), error) {
	if _, err := os.Stat(ref); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, driven.ErrAttachmentNotFound
		}
		return "", nil, err
	}
	return ref, func() {}, nil
}

func (a *Attachments) Delete(_ context.Context, ref string) error {
	if !a.Owns(ref) {
		return driven.ErrAttachmentNotFound
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &model.StorageError{Op: "delete attachment", Err: err}
	}
	return nil
}

// Owns reports whether ref points inside the attachment root.
func (a *Attachments) Owns(ref string) bool {
	rel, err := filepath.Rel(a.root, ref)
	return err == nil && filepath.IsAbs(ref) && !strings.HasPrefix(rel, "..")
}
