package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// credentialName keys the single diary password row.
const credentialName = "diary"

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// It holds exactly one digest row; the plaintext never reaches this layer.
type CredentialRepo struct {
	db  *DB
	now func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db, now: time.Now}
}

// Load returns the stored digest, or ("", nil) if the password was never set.
func (r *CredentialRepo) Load(ctx context.Context) (string, error) {
	const query = `SELECT digest FROM credentials WHERE name = ?`

	var digest string
	err := r.db.Reader.QueryRowContext(ctx, query, credentialName).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &model.StorageError{Op: "load credential", Err: err}
	}
	return digest, nil
}

// Store replaces the stored digest.
func (r *CredentialRepo) Store(ctx context.Context, digest string) error {
	const query = `INSERT INTO credentials (name, digest, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET digest = excluded.digest, updated_at = excluded.updated_at`

	if _, err := r.db.Writer.ExecContext(ctx, query, credentialName, digest, formatTime(r.now())); err != nil {
		return &model.StorageError{Op: "store credential", Err: err}
	}
	return nil
}
