package auth

import "context"

// HostAuthenticator verifies that a caller is an allowed host page.
// This abstraction allows swapping between key-based, mTLS or OAuth hosts
// without changing the service layer code.
type HostAuthenticator interface {
	// Authenticate verifies the host credential.
	// Returns ErrInvalidCredentials if it is not accepted.
	Authenticate(ctx context.Context, credential string) error
}
