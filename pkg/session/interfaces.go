package session

import "context"

// IdentityProvider is the remote service performing credential
// verification, session issuance and session-change notification.
type IdentityProvider interface {
	// VerifyCredentials checks an email/password pair and returns the
	// account identity on success. Returns ErrInvalidCredentials for a
	// bad pair.
	VerifyCredentials(ctx context.Context, email, password string) (Identity, error)

	// CreateIdentity registers a new account. Returns ErrEmailInUse or
	// ErrWeakCredential when the provider rejects the input.
	CreateIdentity(ctx context.Context, email, password string) (Identity, error)

	// SetDisplayName updates the provider-level display name.
	SetDisplayName(ctx context.Context, identityID, name string) error

	// EndSession terminates the provider session. Best effort: local
	// state changes do not depend on its success.
	EndSession(ctx context.Context) error

	// SendCredentialReset asks the provider to send a reset message.
	// Returns ErrUnknownEmail when no account matches.
	SendCredentialReset(ctx context.Context, email string) error

	// OnSessionChange registers a callback that fires once at attach
	// time with the current state, then on every subsequent sign-in or
	// sign-out. A nil identity means signed out. Callbacks for one
	// subscriber are delivered one at a time. The returned func
	// unsubscribes.
	OnSessionChange(fn func(*Identity)) (unsubscribe func())
}

// ProfileStore holds the per-user profile record.
type ProfileStore interface {
	// Get returns the record for an identity, or ErrProfileNotFound.
	Get(ctx context.Context, identityID string) (*ProfileRecord, error)

	// Set creates or replaces the record for an identity.
	Set(ctx context.Context, identityID string, rec ProfileRecord) error

	// Update applies a partial update to an existing record.
	Update(ctx context.Context, identityID string, upd ProfileUpdate) error
}

// Cache is durable local key-value storage used only as a startup
// hint, never as the source of truth. Implementations must not fail a
// Read because the stored payload is garbage; decoding is the
// caller's problem and any parse failure is treated as absent.
type Cache interface {
	// Read returns the payload under key, or ErrCacheMiss.
	Read(ctx context.Context, key string) (string, error)

	// Write stores the payload under key.
	Write(ctx context.Context, key, payload string) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
