package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// Argon2Params tunes the argon2id digest. DefaultArgon2Params matches the
// cost the stored digests are expected to carry.
type Argon2Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params is used by NewCredentialGate.
var DefaultArgon2Params = Argon2Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

const argon2Prefix = "$argon2id$"

var errMalformedDigest = errors.New("malformed password digest")

// CredentialGate guards the diary with a single shared password. Only a
// salted digest is persisted, through the injected CredentialStore.
type CredentialGate struct {
	store  driven.CredentialStore
	params Argon2Params
	logger *slog.Logger
}

// NewCredentialGate creates a gate over store using DefaultArgon2Params.
func NewCredentialGate(store driven.CredentialStore, logger *slog.Logger) *CredentialGate {
	return NewCredentialGateWithParams(store, DefaultArgon2Params, logger)
}

// NewCredentialGateWithParams creates a gate with explicit hashing cost.
func NewCredentialGateWithParams(store driven.CredentialStore, params Argon2Params, logger *slog.Logger) *CredentialGate {
	return &CredentialGate{store: store, params: params, logger: logger}
}

// State reports whether a password is configured.
func (g *CredentialGate) State(ctx context.Context) (model.CredentialState, error) {
	digest, err := g.store.Load(ctx)
	if err != nil {
		return model.CredentialUnset, err
	}
	if strings.TrimSpace(digest) == "" {
		return model.CredentialUnset, nil
	}
	return model.CredentialSet, nil
}

// HasCredential reports whether a password is configured. An unreadable
// store counts as not configured.
func (g *CredentialGate) HasCredential(ctx context.Context) bool {
	state, err := g.State(ctx)
	if err != nil {
		g.logger.Warn("read credential state", "error", err)
		return false
	}
	return state == model.CredentialSet
}

// SetCredential hashes plaintext and stores the digest, replacing any
// existing one.
func (g *CredentialGate) SetCredential(ctx context.Context, plaintext string) error {
	if plaintext == "" {
		return &model.ValidationError{Field: "password", Msg: "password must not be empty"}
	}

	digest, err := hashPassword(plaintext, g.params)
	if err != nil {
		return err
	}

	if err := g.store.Store(ctx, digest); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	g.logger.Info("diary password set")
	return nil
}

// Validate reports whether plaintext matches the stored password. Any
// failure, including an unset password, yields false.
func (g *CredentialGate) Validate(ctx context.Context, plaintext string) bool {
	digest, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn("load credential for validation", "error", err)
		return false
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return false
	}

	ok, err := verifyPassword(plaintext, digest)
	if err != nil {
		g.logger.Warn("verify password", "error", err)
		return false
	}
	return ok
}

// hashPassword encodes an argon2id digest in the PHC string format.
func hashPassword(plaintext string, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// verifyPassword checks plaintext against an argon2id digest, or against a
// bare base64 SHA-256 digest left by older installs.
func verifyPassword(plaintext, digest string) (bool, error) {
	if !strings.HasPrefix(digest, argon2Prefix) {
		sum := sha256.Sum256([]byte(plaintext))
		want := base64.StdEncoding.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(want), []byte(digest)) == 1, nil
	}

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errMalformedDigest
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return false, errMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errMalformedDigest
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, errMalformedDigest
	}

	got := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
