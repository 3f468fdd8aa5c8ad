// Package localfs keeps diary artifacts on the local filesystem: the
// password file, plain-text backups and attached images.
package localfs

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// writeFileAtomic replaces path with data so readers never observe a partial
// write, then applies perm to the result.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}
