package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Placeholder values used when neither the provider nor the profile
// store supplies a field.
const (
	DefaultDisplayName = "User"
	DefaultInstitution = "Unknown"
	DefaultCohortYear  = "Unknown"
)

// DefaultCacheKey is the cache key the manager persists the session
// hint under. No other component may write to this key.
const DefaultCacheKey = "medhub:session"

// Manager is the single authority for "who is the current user". One
// Manager exists per running instance; logout transitions the session
// to anonymous, it never destroys the manager.
type Manager struct {
	provider IdentityProvider
	profiles ProfileStore
	cache    Cache
	logger   *slog.Logger
	cacheKey string

	mu          sync.Mutex
	current     Session
	generation  uint64
	initialized bool
	unsubscribe func()

	subMu   sync.Mutex
	subs    map[uint64]chan Session
	nextSub uint64
}

// Option represents a functional option for configuring the manager.
type Option func(*Manager)

// WithProvider sets the identity provider.
func WithProvider(p IdentityProvider) Option {
	return func(m *Manager) { m.provider = p }
}

// WithProfileStore sets the profile store.
func WithProfileStore(s ProfileStore) Option {
	return func(m *Manager) { m.profiles = s }
}

// WithCache sets the local session cache.
func WithCache(c Cache) Option {
	return func(m *Manager) { m.cache = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithCacheKey overrides the cache key. Defaults to DefaultCacheKey.
func WithCacheKey(key string) Option {
	return func(m *Manager) { m.cacheKey = key }
}

// NewManager creates a manager from the given options. Provider,
// profile store and cache are all required.
func NewManager(options ...Option) (*Manager, error) {
	m := &Manager{
		cacheKey: DefaultCacheKey,
		subs:     make(map[uint64]chan Session),
		current:  Session{Status: StatusUnresolved},
	}

	for _, option := range options {
		option(m)
	}

	if m.provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if m.profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if m.cache == nil {
		return nil, fmt.Errorf("session cache is required")
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m, nil
}

// Initialize reads the local cache exactly once, applies it as a
// provisional hint, then attaches the provider listener. The cache
// read strictly precedes the first listener callback; attaching the
// listener first could let a provider event race the hint path.
// Calling Initialize again is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.initialized = true
	m.mu.Unlock()

	m.applyCacheHint(ctx)

	m.unsubscribe = m.provider.OnSessionChange(func(ident *Identity) {
		m.handleProviderChange(context.Background(), ident)
	})

	return nil
}

// Close detaches the provider listener and closes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}

// Current returns the current session snapshot.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe returns a channel of session snapshots and a cancel
// function. Slow subscribers lose intermediate snapshots, never the
// ordering of the ones they receive.
func (m *Manager) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, 16)

	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}

	return ch, cancel
}

// Login verifies credentials with the provider and reconciles the
// resulting identity with the profile store. A missing profile record
// is not a failure: the profile is synthesized from provider defaults
// and placeholder values. Returns a typed error from the enumerated
// set on failure; the session degrades to anonymous.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	gen := m.beginAuthenticating()

	ident, err := m.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		m.logger.Warn("login failed", "email", email, "error", err)
		m.commit(ctx, gen, Session{Status: StatusAnonymous})
		return err
	}

	profile := m.resolveProfile(ctx, ident)
	m.commit(ctx, gen, Session{
		Identity: ident.ID,
		Profile:  &profile,
		Status:   StatusAuthenticated,
	})

	return nil
}

// Register creates a new identity, sets the provider-level display
// name and writes a fresh profile record. The session profile is
// constructed directly from the input, without a store re-fetch.
func (m *Manager) Register(ctx context.Context, input RegistrationInput) error {
	gen := m.beginAuthenticating()

	ident, err := m.provider.CreateIdentity(ctx, input.Email, input.Password)
	if err != nil {
		m.logger.Warn("registration failed", "email", input.Email, "error", err)
		m.commit(ctx, gen, Session{Status: StatusAnonymous})
		return err
	}

	if err := m.provider.SetDisplayName(ctx, ident.ID, input.Name); err != nil {
		m.logger.Warn("setting provider display name failed", "identity", ident.ID, "error", err)
	}

	now := time.Now().UTC()
	rec := ProfileRecord{
		DisplayName: input.Name,
		Email:       input.Email,
		Institution: input.Institution,
		CohortYear:  input.CohortYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.profiles.Set(ctx, ident.ID, rec); err != nil {
		m.logger.Warn("writing profile record failed", "identity", ident.ID, "error", err)
	}

	profile := Profile{
		DisplayName: input.Name,
		Email:       input.Email,
		Institution: input.Institution,
		CohortYear:  input.CohortYear,
	}
	m.commit(ctx, gen, Session{
		Identity: ident.ID,
		Profile:  &profile,
		Status:   StatusAuthenticated,
	})

	return nil
}

// Logout ends the provider session best-effort and always clears the
// local session and cache. The generation bump makes any in-flight
// login or provider round trip stale, so a late result cannot
// re-authenticate the session.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.provider.EndSession(ctx); err != nil {
		m.logger.Warn("provider end-session failed, clearing local session anyway", "error", err)
	}

	m.mu.Lock()
	m.generation++
	s := Session{Status: StatusAnonymous, Generation: m.generation}
	m.current = s
	m.mu.Unlock()

	m.broadcast(s)
	m.deleteCache(ctx)
}

// ResetCredential asks the provider to send a reset message. The
// session does not change.
func (m *Manager) ResetCredential(ctx context.Context, email string) error {
	if err := m.provider.SendCredentialReset(ctx, email); err != nil {
		m.logger.Warn("credential reset failed", "email", email, "error", err)
		return err
	}
	return nil
}

// applyCacheHint reads the cache once and, if it holds a parsable
// profile, publishes a provisional authenticated session. Corrupt
// payloads are deleted and treated as absent, never surfaced.
func (m *Manager) applyCacheHint(ctx context.Context) {
	payload, err := m.cache.Read(ctx, m.cacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			m.logger.Warn("session cache read failed, proceeding without hint", "error", err)
		}
		return
	}

	var profile Profile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil || profile == (Profile{}) {
		m.logger.Debug("discarding corrupt session cache entry")
		if err := m.cache.Delete(ctx, m.cacheKey); err != nil {
			m.logger.Warn("deleting corrupt session cache entry failed", "error", err)
		}
		return
	}

	m.mu.Lock()
	m.generation++
	s := Session{
		Profile:     &profile,
		Status:      StatusAuthenticated,
		Provisional: true,
		Generation:  m.generation,
	}
	m.current = s
	m.mu.Unlock()

	m.broadcast(s)
}

// handleProviderChange is the passive listener callback. It runs the
// same authenticate/commit cycle as an explicit login so a provider
// push and an explicit call contend on the generation counter alone.
func (m *Manager) handleProviderChange(ctx context.Context, ident *Identity) {
	gen := m.beginAuthenticating()

	if ident == nil {
		m.commit(ctx, gen, Session{Status: StatusAnonymous})
		return
	}

	profile := m.resolveProfile(ctx, *ident)
	m.commit(ctx, gen, Session{
		Identity: ident.ID,
		Profile:  &profile,
		Status:   StatusAuthenticated,
	})
}

// resolveProfile merges the stored profile record over provider
// defaults, filling any remaining holes with placeholders. Fetch
// failures degrade to the synthesized profile; nothing is fatal here.
func (m *Manager) resolveProfile(ctx context.Context, ident Identity) Profile {
	p := Profile{
		DisplayName: ident.DisplayName,
		Email:       ident.Email,
		Institution: DefaultInstitution,
		CohortYear:  DefaultCohortYear,
	}

	rec, err := m.profiles.Get(ctx, ident.ID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		// expected for accounts created outside the registration flow
	case err != nil:
		m.logger.Warn("profile fetch failed, using provider defaults", "identity", ident.ID, "error", err)
	default:
		if rec.DisplayName != "" {
			p.DisplayName = rec.DisplayName
		}
		if rec.Email != "" {
			p.Email = rec.Email
		}
		if rec.Institution != "" {
			p.Institution = rec.Institution
		}
		if rec.CohortYear != "" {
			p.CohortYear = rec.CohortYear
		}
	}

	if p.DisplayName == "" {
		p.DisplayName = DefaultDisplayName
	}

	return p
}

// beginAuthenticating publishes an authenticating snapshot (keeping
// any provisional profile visible) and returns the generation the
// in-flight operation must still see at commit time.
func (m *Manager) beginAuthenticating() uint64 {
	m.mu.Lock()
	m.generation++
	s := m.current
	s.Status = StatusAuthenticating
	s.Generation = m.generation
	m.current = s
	gen := m.generation
	m.mu.Unlock()

	m.broadcast(s)
	return gen
}

// commit publishes the result of a round trip unless another
// operation replaced the session since it started, in which case the
// stale result is discarded. On success the cache is synchronized:
// written for authenticated sessions, deleted for anonymous ones.
func (m *Manager) commit(ctx context.Context, started uint64, s Session) bool {
	m.mu.Lock()
	if m.generation != started {
		m.mu.Unlock()
		m.logger.Debug("discarding stale session update", "started_generation", started)
		return false
	}
	m.generation++
	s.Generation = m.generation
	m.current = s
	m.mu.Unlock()

	m.broadcast(s)

	switch s.Status {
	case StatusAuthenticated:
		m.writeCache(ctx, *s.Profile)
	case StatusAnonymous:
		m.deleteCache(ctx)
	}

	return true
}

func (m *Manager) broadcast(s Session) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			// subscriber is behind; it will catch up on the next snapshot
		}
	}
}

func (m *Manager) writeCache(ctx context.Context, profile Profile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		m.logger.Warn("encoding session cache record failed", "error", err)
		return
	}
	if err := m.cache.Write(ctx, m.cacheKey, string(payload)); err != nil {
		m.logger.Warn("writing session cache failed", "error", err)
	}
}

func (m *Manager) deleteCache(ctx context.Context) {
	if err := m.cache.Delete(ctx, m.cacheKey); err != nil {
		m.logger.Warn("deleting session cache failed", "error", err)
	}
}
