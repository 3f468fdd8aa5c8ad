package localfs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var _ driven.CredentialStore = (*CredentialFile)(nil)

// CredentialFile stores the password digest as the only line of a file
// readable by the owner alone.
type CredentialFile struct {
	path string
}

// NewCredentialFile returns a store backed by path. The file and its parent
// directory are created on first Store.
func NewCredentialFile(path string) *CredentialFile {
	return &CredentialFile{path: path}
}

// Path returns the backing file path.
func (f *CredentialFile) Path() string {
	return f.path
}

// Load returns the stored digest, or "" when the file does not exist.
func (f *CredentialFile) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", &model.StorageError{Op: "read credential file", Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

// Store overwrites the file with digest.
func (f *CredentialFile) Store(_ context.Context, digest string) error {
	if err := writeFileAtomic(f.path, []byte(digest+"\n"), 0o600); err != nil {
		return &model.StorageError{Op: "write credential file", Err: err}
	}
	return nil
}
