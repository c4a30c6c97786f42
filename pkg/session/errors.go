package session

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by Manager operations. The manager never
// panics; every failure is one of these (possibly wrapped) so callers
// can tell a wrong password from a network outage.
var (
	// ErrInvalidCredentials indicates a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailInUse indicates the email already has an account.
	ErrEmailInUse = errors.New("email already in use")

	// ErrWeakCredential indicates the provider rejected the password.
	ErrWeakCredential = errors.New("credential too weak")

	// ErrUnknownEmail indicates no account matches the email.
	ErrUnknownEmail = errors.New("unknown email")

	// ErrProviderUnavailable indicates a transient provider failure.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrProfileNotFound indicates the profile store has no record for
	// an identity. Not a failure for the manager: it synthesizes
	// defaults instead.
	ErrProfileNotFound = errors.New("profile record not found")

	// ErrCacheMiss indicates the cache holds nothing under the key.
	ErrCacheMiss = errors.New("cache miss")
)

// ProviderError wraps a failure from the identity provider with the
// operation that produced it.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
