package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhublabs/medhub/pkg/session"
	cachememory "github.com/medhublabs/medhub/pkg/session/cache/memory"
	identitymemory "github.com/medhublabs/medhub/pkg/session/identity/memory"
	profilememory "github.com/medhublabs/medhub/pkg/session/profile/memory"
)

// fakeProvider is a scriptable identity provider for driving the
// manager through failure and race scenarios.
type fakeProvider struct {
	verify     func(ctx context.Context, email, password string) (session.Identity, error)
	create     func(ctx context.Context, email, password string) (session.Identity, error)
	setName    func(ctx context.Context, identityID, name string) error
	endSession func(ctx context.Context) error
	reset      func(ctx context.Context, email string) error

	attachCount int
	initial     *session.Identity
	callback    func(*session.Identity)
}

func (p *fakeProvider) VerifyCredentials(ctx context.Context, email, password string) (session.Identity, error) {
	if p.verify != nil {
		return p.verify(ctx, email, password)
	}
	return session.Identity{}, session.ErrInvalidCredentials
}

func (p *fakeProvider) CreateIdentity(ctx context.Context, email, password string) (session.Identity, error) {
	if p.create != nil {
		return p.create(ctx, email, password)
	}
	return session.Identity{}, session.ErrProviderUnavailable
}

func (p *fakeProvider) SetDisplayName(ctx context.Context, identityID, name string) error {
	if p.setName != nil {
		return p.setName(ctx, identityID, name)
	}
	return nil
}

func (p *fakeProvider) EndSession(ctx context.Context) error {
	if p.endSession != nil {
		return p.endSession(ctx)
	}
	return nil
}

func (p *fakeProvider) SendCredentialReset(ctx context.Context, email string) error {
	if p.reset != nil {
		return p.reset(ctx, email)
	}
	return nil
}

func (p *fakeProvider) OnSessionChange(fn func(*session.Identity)) func() {
	p.attachCount++
	p.callback = fn
	fn(p.initial)
	return func() { p.callback = nil }
}

// countingStore wraps a profile store and counts Get calls.
type countingStore struct {
	session.ProfileStore
	gets int
}

func (s *countingStore) Get(ctx context.Context, identityID string) (*session.ProfileRecord, error) {
	s.gets++
	return s.ProfileStore.Get(ctx, identityID)
}

func newTestManager(t *testing.T, provider session.IdentityProvider, profiles session.ProfileStore, cache session.Cache) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(
		session.WithProvider(provider),
		session.WithProfileStore(profiles),
		session.WithCache(cache),
	)
	require.NoError(t, err)
	require.NotNil(t, mgr)
	t.Cleanup(mgr.Close)
	return mgr
}

func drain(ch <-chan session.Session) []session.Session {
	var out []session.Session
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestManagerCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []session.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []session.Option{},
			expectError: true,
		},
		{
			name: "missing cache should fail",
			options: []session.Option{
				session.WithProvider(identitymemory.New()),
				session.WithProfileStore(profilememory.New()),
			},
			expectError: true,
		},
		{
			name: "all collaborators should succeed",
			options: []session.Option{
				session.WithProvider(identitymemory.New()),
				session.WithProfileStore(profilememory.New()),
				session.WithCache(cachememory.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := session.NewManager(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, mgr)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, mgr)
			}
		})
	}
}

func TestInitializeAppliesCacheHintBeforeListener(t *testing.T) {
	ctx := context.Background()
	cache := cachememory.New()

	hint := session.Profile{
		DisplayName: "Dr. Osei",
		Email:       "osei@example.edu",
		Institution: "Med College",
		CohortYear:  "3",
	}
	payload, err := json.Marshal(hint)
	require.NoError(t, err)
	require.NoError(t, cache.Write(ctx, session.DefaultCacheKey, string(payload)))

	provider := &fakeProvider{initial: nil}
	mgr := newTestManager(t, provider, profilememory.New(), cache)

	ch, cancel := mgr.Subscribe()
	defer cancel()

	require.NoError(t, mgr.Initialize(ctx))

	snapshots := drain(ch)
	require.GreaterOrEqual(t, len(snapshots), 2)

	// The provisional hint must be the first thing any observer sees.
	first := snapshots[0]
	assert.Equal(t, session.StatusAuthenticated, first.Status)
	assert.True(t, first.Provisional)
	require.NotNil(t, first.Profile)
	assert.Equal(t, hint, *first.Profile)

	// The provider reported signed-out, which supersedes the hint.
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, session.StatusAnonymous, last.Status)
	assert.False(t, last.Authenticated())
}

func TestInitializeIdempotent(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{initial: nil}
	mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())

	require.NoError(t, mgr.Initialize(ctx))
	require.NoError(t, mgr.Initialize(ctx))
	require.NoError(t, mgr.Initialize(ctx))

	assert.Equal(t, 1, provider.attachCount)
}

func TestCorruptCacheTolerance(t *testing.T) {
	ctx := context.Background()
	cache := cachememory.New()
	require.NoError(t, cache.Write(ctx, session.DefaultCacheKey, "{{not json"))

	provider := &fakeProvider{initial: nil}
	mgr := newTestManager(t, provider, profilememory.New(), cache)

	ch, cancel := mgr.Subscribe()
	defer cancel()

	require.NoError(t, mgr.Initialize(ctx))

	// No provisional hint was published.
	for _, s := range drain(ch) {
		assert.False(t, s.Provisional)
	}
	assert.Equal(t, session.StatusAnonymous, mgr.Current().Status)

	// The corrupt entry was removed.
	_, err := cache.Read(ctx, session.DefaultCacheKey)
	assert.ErrorIs(t, err, session.ErrCacheMiss)
}

func TestLoginMergesStoredProfileOverProviderDefaults(t *testing.T) {
	ctx := context.Background()
	cache := cachememory.New()
	profiles := profilememory.New()
	require.NoError(t, profiles.Set(ctx, "U1", session.ProfileRecord{
		Institution: "Med College",
		CohortYear:  "3",
	}))

	provider := &fakeProvider{
		verify: func(ctx context.Context, email, password string) (session.Identity, error) {
			assert.Equal(t, "a@b.com", email)
			assert.Equal(t, "pw", password)
			return session.Identity{ID: "U1", Email: "a@b.com", DisplayName: "Dr. A"}, nil
		},
	}
	mgr := newTestManager(t, provider, profiles, cache)
	require.NoError(t, mgr.Initialize(ctx))

	require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))

	current := mgr.Current()
	require.True(t, current.Authenticated())
	assert.Equal(t, "U1", current.Identity)
	assert.Equal(t, session.Profile{
		DisplayName: "Dr. A",
		Email:       "a@b.com",
		Institution: "Med College",
		CohortYear:  "3",
	}, *current.Profile)

	// Cache mirrors the resolved profile.
	payload, err := cache.Read(ctx, session.DefaultCacheKey)
	require.NoError(t, err)
	var cached session.Profile
	require.NoError(t, json.Unmarshal([]byte(payload), &cached))
	assert.Equal(t, *current.Profile, cached)
}

func TestLoginSynthesizesProfileWhenRecordAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("provider display name used", func(t *testing.T) {
		provider := &fakeProvider{
			verify: func(ctx context.Context, email, password string) (session.Identity, error) {
				return session.Identity{ID: "U2", Email: email, DisplayName: "Dr. B"}, nil
			},
		}
		mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())
		require.NoError(t, mgr.Login(ctx, "b@c.com", "pw"))

		current := mgr.Current()
		require.True(t, current.Authenticated())
		assert.Equal(t, "Dr. B", current.Profile.DisplayName)
		assert.Equal(t, session.DefaultInstitution, current.Profile.Institution)
		assert.Equal(t, session.DefaultCohortYear, current.Profile.CohortYear)
	})

	t.Run("placeholder display name when provider has none", func(t *testing.T) {
		provider := &fakeProvider{
			verify: func(ctx context.Context, email, password string) (session.Identity, error) {
				return session.Identity{ID: "U3", Email: email}, nil
			},
		}
		mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())
		require.NoError(t, mgr.Login(ctx, "c@d.com", "pw"))

		assert.Equal(t, session.DefaultDisplayName, mgr.Current().Profile.DisplayName)
	})
}

func TestLoginFailureDegradesToAnonymous(t *testing.T) {
	ctx := context.Background()
	cache := cachememory.New()
	provider := &fakeProvider{} // verify defaults to invalid credentials
	mgr := newTestManager(t, provider, profilememory.New(), cache)

	err := mgr.Login(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
	assert.Equal(t, session.StatusAnonymous, mgr.Current().Status)

	_, err = cache.Read(ctx, session.DefaultCacheKey)
	assert.ErrorIs(t, err, session.ErrCacheMiss)
}

func TestRegisterBuildsProfileFromInputWithoutRefetch(t *testing.T) {
	ctx := context.Background()
	profiles := &countingStore{ProfileStore: profilememory.New()}
	provider := &fakeProvider{
		create: func(ctx context.Context, email, password string) (session.Identity, error) {
			return session.Identity{ID: "NEW1", Email: email}, nil
		},
	}
	mgr := newTestManager(t, provider, profiles, cachememory.New())

	input := session.RegistrationInput{
		Name:        "Jo",
		Email:       "jo@x.com",
		Password:    "pw",
		Institution: "X",
		CohortYear:  "2",
	}
	require.NoError(t, mgr.Register(ctx, input))

	current := mgr.Current()
	require.True(t, current.Authenticated())
	assert.Equal(t, session.Profile{
		DisplayName: "Jo",
		Email:       "jo@x.com",
		Institution: "X",
		CohortYear:  "2",
	}, *current.Profile)

	// The session profile comes straight from the input.
	assert.Equal(t, 0, profiles.gets)

	// The store record was written with timestamps.
	rec, err := profiles.Get(ctx, "NEW1")
	require.NoError(t, err)
	assert.Equal(t, "Jo", rec.DisplayName)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{
		create: func(ctx context.Context, email, password string) (session.Identity, error) {
			return session.Identity{}, session.ErrEmailInUse
		},
	}
	mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())

	err := mgr.Register(ctx, session.RegistrationInput{Email: "jo@x.com", Password: "pw"})
	assert.ErrorIs(t, err, session.ErrEmailInUse)
	assert.Equal(t, session.StatusAnonymous, mgr.Current().Status)
}

func TestLogoutClearsCacheEvenWhenProviderFails(t *testing.T) {
	ctx := context.Background()
	cache := cachememory.New()
	provider := &fakeProvider{
		verify: func(ctx context.Context, email, password string) (session.Identity, error) {
			return session.Identity{ID: "U1", Email: email, DisplayName: "Dr. A"}, nil
		},
		endSession: func(ctx context.Context) error {
			return session.ErrProviderUnavailable
		},
	}
	mgr := newTestManager(t, provider, profilememory.New(), cache)
	require.NoError(t, mgr.Login(ctx, "a@b.com", "pw"))
	require.True(t, mgr.Current().Authenticated())

	mgr.Logout(ctx)

	assert.Equal(t, session.StatusAnonymous, mgr.Current().Status)
	_, err := cache.Read(ctx, session.DefaultCacheKey)
	assert.ErrorIs(t, err, session.ErrCacheMiss)
}

func TestStaleLoginDiscardedAfterLogout(t *testing.T) {
	ctx := context.Background()
	cache := cachememory.New()

	release := make(chan struct{})
	provider := &fakeProvider{
		verify: func(ctx context.Context, email, password string) (session.Identity, error) {
			<-release
			return session.Identity{ID: "U1", Email: email, DisplayName: "Dr. A"}, nil
		},
	}
	mgr := newTestManager(t, provider, profilememory.New(), cache)

	done := make(chan error, 1)
	go func() {
		done <- mgr.Login(ctx, "a@b.com", "pw")
	}()

	// Let the login reach its suspension point, then log out.
	time.Sleep(20 * time.Millisecond)
	mgr.Logout(ctx)
	require.Equal(t, session.StatusAnonymous, mgr.Current().Status)

	close(release)
	require.NoError(t, <-done)

	// The late login result lost the generation race and was dropped.
	assert.Equal(t, session.StatusAnonymous, mgr.Current().Status)
	_, err := cache.Read(ctx, session.DefaultCacheKey)
	assert.ErrorIs(t, err, session.ErrCacheMiss)
}

func TestProviderPushUpdatesSession(t *testing.T) {
	ctx := context.Background()
	provider := identitymemory.New()
	provider.Seed("osei@example.edu", "pw123456", "Dr. Osei")

	profiles := profilememory.New()
	mgr := newTestManager(t, provider, profiles, cachememory.New())
	require.NoError(t, mgr.Initialize(ctx))
	require.Equal(t, session.StatusAnonymous, mgr.Current().Status)

	require.True(t, provider.SignInAs("osei@example.edu"))

	current := mgr.Current()
	require.True(t, current.Authenticated())
	assert.Equal(t, "Dr. Osei", current.Profile.DisplayName)
	assert.Equal(t, session.DefaultInstitution, current.Profile.Institution)
}

func TestResetCredential(t *testing.T) {
	ctx := context.Background()
	provider := identitymemory.New()
	provider.Seed("osei@example.edu", "pw123456", "Dr. Osei")

	mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())
	before := mgr.Current()

	require.NoError(t, mgr.ResetCredential(ctx, "osei@example.edu"))
	assert.Equal(t, []string{"osei@example.edu"}, provider.ResetRequests())

	err := mgr.ResetCredential(ctx, "nobody@example.edu")
	assert.ErrorIs(t, err, session.ErrUnknownEmail)

	// No session change either way.
	assert.Equal(t, before.Status, mgr.Current().Status)
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	provider := identitymemory.New()
	provider.Seed("osei@example.edu", "pw123456", "Dr. Osei")

	mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())
	ch, cancel := mgr.Subscribe()

	require.NoError(t, mgr.Initialize(ctx))
	require.NotEmpty(t, drain(ch))

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestGenerationIncreasesMonotonically(t *testing.T) {
	ctx := context.Background()
	provider := identitymemory.New()
	provider.Seed("osei@example.edu", "pw123456", "Dr. Osei")

	mgr := newTestManager(t, provider, profilememory.New(), cachememory.New())
	ch, cancel := mgr.Subscribe()
	defer cancel()

	require.NoError(t, mgr.Initialize(ctx))
	require.NoError(t, mgr.Login(ctx, "osei@example.edu", "pw123456"))
	mgr.Logout(ctx)

	var last uint64
	for _, s := range drain(ch) {
		require.Greater(t, s.Generation, last)
		last = s.Generation
	}
}
