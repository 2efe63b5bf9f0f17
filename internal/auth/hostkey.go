package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid host key")
	ErrWeakHostKey        = errors.New("host key must be at least 16 characters")
)

// Ensure HostKeyAuthenticator implements HostAuthenticator
var _ HostAuthenticator = (*HostKeyAuthenticator)(nil)

// HostKeyAuthenticator checks a shared host key against a bcrypt hash.
// An empty hash disables the check (local development).
type HostKeyAuthenticator struct {
	hash []byte
}

// NewHostKeyAuthenticator creates an authenticator for the given bcrypt hash.
func NewHostKeyAuthenticator(hash string) *HostKeyAuthenticator {
	return &HostKeyAuthenticator{hash: []byte(hash)}
}

// HashHostKey hashes a new host key for the auth.host_key_hash setting.
func HashHostKey(key string) (string, error) {
	if len(key) < 16 {
		return "", ErrWeakHostKey
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash host key: %w", err)
	}
	return string(hashed), nil
}

// Enabled reports whether a hash is configured.
func (a *HostKeyAuthenticator) Enabled() bool {
	return len(a.hash) > 0
}

// Authenticate compares the key with the configured hash.
func (a *HostKeyAuthenticator) Authenticate(_ context.Context, credential string) error {
	if !a.Enabled() {
		return nil
	}
	if credential == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(credential)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
