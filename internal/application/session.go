package application

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionSubject = "diary"

// ErrInvalidSession is returned for missing, expired or forged tokens.
var ErrInvalidSession = errors.New("invalid session token")

// SessionIssuer hands out HS256 tokens after the password has been
// validated, so the HTTP surface does not re-hash the password per request.
type SessionIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSessionIssuer creates an issuer signing with key. An empty key is
// replaced by 32 random bytes, which invalidates tokens on restart.
func NewSessionIssuer(key []byte, ttl time.Duration) (*SessionIssuer, error) {
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
	}
	return &SessionIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token and its expiry.
func (s *SessionIssuer) Issue() (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, subject and expiry.
func (s *SessionIssuer) Verify(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(sessionSubject),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return ErrInvalidSession
	}
	return nil
}
