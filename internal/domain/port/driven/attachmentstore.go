package driven

import (
	"context"
	"errors"
	"io"
)

// ErrAttachmentNotFound indicates the referenced attachment does not exist.
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentStore keeps images attached to diary entries. A ref is the
// opaque string stored in DiaryEntry.ImagePath.
type AttachmentStore interface {
	// Put stores the image read from r and returns its ref. name is the
	// client-supplied file name and only contributes its extension.
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)

	// Open returns a reader for the referenced image.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Local returns a filesystem path holding the image. cleanup must be
	// called once the path is no longer needed.
	Local(ctx context.Context, ref string) (path string, cleanup func(), err error)

	// Delete removes the referenced image. Deleting a missing image is not
	// an error.
	Delete(ctx context.Context, ref string) error

	// Owns reports whether ref was produced by this store.
	Owns(ref string) bool
}
