package driven

import "context"

// CredentialStore persists the single diary password digest. The adapter
// never sees the plaintext.
type CredentialStore interface {
	// Load returns the stored digest, or ("", nil) if none has been set.
	Load(ctx context.Context) (string, error)

	// Store replaces any previously stored digest.
	Store(ctx context.Context, digest string) error
}
