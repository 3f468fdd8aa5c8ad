package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

var _ driven.CredentialStore = (*CredentialRepo)(nil)

const credentialName = "diary"

// CredentialRepo keeps the single password digest row.
type CredentialRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{db: db, now: time.Now}
}

func (r *CredentialRepo) Load(ctx context.Context) (string, error) {
	var digest string
	err := r.db.QueryRowContext(ctx, `SELECT digest FROM credentials WHERE name = $1;`, credentialName).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &model.StorageError{Op: "load credential", Err: err}
	}
	return digest, nil
}

func (r *CredentialRepo) Store(ctx context.Context, digest string) error {
	query := `INSERT INTO credentials (name, digest, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET digest = EXCLUDED.digest, updated_at = EXCLUDED.updated_at;`

	if _, err := r.db.ExecContext(ctx, query, credentialName, digest, r.now().UTC()); err != nil {
		return &model.StorageError{Op: "store credential", Err: err}
	}
	return nil
}
