package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/medhublabs/medhub/pkg/session"
)

type account struct {
	id          string
	email       string
	password    string
	displayName string
}

// Provider is an in-memory implementation of the
// session.IdentityProvider interface, used for development mode and
// tests. Sign-in state is process-local: a successful verify or
// create signs the account in and notifies listeners, EndSession
// signs it out.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*account // keyed by email
	current  *session.Identity

	listeners map[uint64]func(*session.Identity)
	nextID    uint64

	resets []string // emails a reset was requested for
}

// New creates a new in-memory identity provider.
func New() *Provider {
	return &Provider{
		accounts:  make(map[string]*account),
		listeners: make(map[uint64]func(*session.Identity)),
	}
}

// Seed registers an account without signing it in. Returns the
// assigned identity ID.
func (p *Provider) Seed(email, password, displayName string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct := &account{
		id:          uuid.NewString(),
		email:       email,
		password:    password,
		displayName: displayName,
	}
	p.accounts[email] = acct
	return acct.id
}

// VerifyCredentials checks the pair and signs the account in.
func (p *Provider) VerifyCredentials(ctx context.Context, email, password string) (session.Identity, error) {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	if !ok || acct.password != password {
		p.mu.Unlock()
		return session.Identity{}, session.ErrInvalidCredentials
	}

	ident := session.Identity{ID: acct.id, Email: acct.email, DisplayName: acct.displayName}
	p.current = &ident
	p.mu.Unlock()

	p.notify(&ident)
	return ident, nil
}

// CreateIdentity registers a new account and signs it in.
func (p *Provider) CreateIdentity(ctx context.Context, email, password string) (session.Identity, error) {
	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return session.Identity{}, session.ErrEmailInUse
	}
	if len(password) < 6 {
		p.mu.Unlock()
		return session.Identity{}, session.ErrWeakCredential
	}

	acct := &account{id: uuid.NewString(), email: email, password: password}
	p.accounts[email] = acct

	ident := session.Identity{ID: acct.id, Email: acct.email}
	p.current = &ident
	p.mu.Unlock()

	p.notify(&ident)
	return ident, nil
}

// SetDisplayName updates the provider-level display name. It does not
// fire a session change.
func (p *Provider) SetDisplayName(ctx context.Context, identityID, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, acct := range p.accounts {
		if acct.id == identityID {
			acct.displayName = name
			if p.current != nil && p.current.ID == identityID {
				p.current.DisplayName = name
			}
			return nil
		}
	}
	return session.ErrUnknownEmail
}

// EndSession signs the current account out and notifies listeners.
func (p *Provider) EndSession(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.notify(nil)
	return nil
}

// SendCredentialReset records a reset request for the email.
func (p *Provider) SendCredentialReset(ctx context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; !ok {
		return session.ErrUnknownEmail
	}
	p.resets = append(p.resets, email)
	return nil
}

// ResetRequests returns the emails a reset was requested for, in
// order. Test helper.
func (p *Provider) ResetRequests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resets...)
}

// OnSessionChange registers fn and fires it once with the current
// state before returning.
func (p *Provider) OnSessionChange(fn func(*session.Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.currentCopyLocked()
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// SignInAs marks an already-seeded account as signed in and notifies
// listeners, simulating a provider-pushed session change. Test helper.
func (p *Provider) SignInAs(email string) bool {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	if !ok {
		p.mu.Unlock()
		return false
	}
	ident := session.Identity{ID: acct.id, Email: acct.email, DisplayName: acct.displayName}
	p.current = &ident
	p.mu.Unlock()

	p.notify(&ident)
	return true
}

func (p *Provider) currentCopyLocked() *session.Identity {
	if p.current == nil {
		return nil
	}
	identCopy := *p.current
	return &identCopy
}

// notify delivers one change to every listener sequentially, so
// callbacks for a listener never interleave with each other.
func (p *Provider) notify(ident *session.Identity) {
	p.mu.Lock()
	fns := make([]func(*session.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	var identCopy *session.Identity
	if ident != nil {
		c := *ident
		identCopy = &c
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(identCopy)
	}
}
