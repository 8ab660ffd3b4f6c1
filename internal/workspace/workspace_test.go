package workspace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/config"
	"github.com/keyxmakerx/costpilot/internal/identity"
	"github.com/keyxmakerx/costpilot/internal/notify"
	"github.com/keyxmakerx/costpilot/internal/tokenstore"
)

// --- Test Mocks ---

// stubProvider restores a fixed session and counts unsubscribes.
type stubProvider struct {
	session      *identity.Session
	unsubscribed atomic.Int32
}

func (s *stubProvider) GetSession(context.Context) (*identity.Session, error) {
	return s.session, nil
}

func (s *stubProvider) GetUser(context.Context) (*identity.User, error) {
	if s.session == nil {
		return nil, errors.New("no session")
	}
	return s.session.User, nil
}

func (s *stubProvider) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return s.session, nil
}

func (s *stubProvider) SignUp(context.Context, string, string, map[string]any) (*identity.SignUpResult, error) {
	return &identity.SignUpResult{}, nil
}

func (s *stubProvider) SignOut(context.Context) error { return nil }

func (s *stubProvider) OnAuthStateChange(identity.Listener) func() {
	return func() { s.unsubscribed.Add(1) }
}

// slotProvider keeps its session in the provider slot, the way GoTrue does,
// so a workspace id without a stored session has nothing to restore.
type slotProvider struct {
	slot *tokenstore.Slot
}

func (p *slotProvider) GetSession(ctx context.Context) (*identity.Session, error) {
	token, err := p.slot.Get(ctx)
	if err != nil || token == "" {
		return nil, err
	}
	return &identity.Session{AccessToken: token, User: signedInSession().User}, nil
}

func (p *slotProvider) GetUser(ctx context.Context) (*identity.User, error) {
	sess, err := p.GetSession(ctx)
	if err != nil || sess == nil {
		return nil, errors.New("no session")
	}
	return sess.User, nil
}

func (p *slotProvider) SignInWithPassword(ctx context.Context, _, _ string) (*identity.Session, error) {
	if err := p.slot.Set(ctx, "valid-token"); err != nil {
		return nil, err
	}
	return p.GetSession(ctx)
}

func (p *slotProvider) SignUp(context.Context, string, string, map[string]any) (*identity.SignUpResult, error) {
	return &identity.SignUpResult{}, nil
}

func (p *slotProvider) SignOut(ctx context.Context) error { return p.slot.Clear(ctx) }

func (p *slotProvider) OnAuthStateChange(identity.Listener) func() { return func() {} }

// expiringProvider renews its session on the next GetSession after expire
// and announces the new token with TOKEN_REFRESHED.
type expiringProvider struct {
	mu       sync.Mutex
	session  *identity.Session
	renewTo  string
	listener identity.Listener
}

func (p *expiringProvider) expire(renewTo string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renewTo = renewTo
}

func (p *expiringProvider) GetSession(context.Context) (*identity.Session, error) {
	p.mu.Lock()
	renewed := p.renewTo
	p.renewTo = ""
	if renewed != "" {
		p.session = &identity.Session{AccessToken: renewed, User: p.session.User}
	}
	sess, l := p.session, p.listener
	p.mu.Unlock()

	if renewed != "" && l != nil {
		l(identity.Event{Type: identity.EventTokenRefreshed, Session: &identity.Session{AccessToken: renewed}})
	}
	return sess, nil
}

func (p *expiringProvider) GetUser(context.Context) (*identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.User, nil
}

func (p *expiringProvider) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return nil, errors.New("not used")
}

func (p *expiringProvider) SignUp(context.Context, string, string, map[string]any) (*identity.SignUpResult, error) {
	return nil, errors.New("not used")
}

func (p *expiringProvider) SignOut(context.Context) error { return nil }

func (p *expiringProvider) OnAuthStateChange(l identity.Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
	return func() {}
}

type mockGauge struct {
	mu   sync.Mutex
	last int
}

func (m *mockGauge) SetActiveWorkspaces(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = n
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		API:           config.APIConfig{BaseURL: apiURL, Timeout: time.Second},
		Identity:      config.IdentityConfig{SignInFallback: true},
		Notifications: config.NotificationConfig{DefaultTTL: 5 * time.Second},
	}
}

func signedInSession() *identity.Session {
	return &identity.Session{
		AccessToken: "valid-token",
		User:        &identity.User{ID: "u-1", Email: "a@x.com", EmailConfirmedAt: "2025-01-01T00:00:00Z"},
	}
}

func newTestBuilder(store tokenstore.Store, apiURL string, provider *stubProvider) *Builder {
	return &Builder{
		Store:  store,
		Config: testConfig(apiURL),
		NewProvider: func(string, *tokenstore.Slot) identity.Provider {
			return provider
		},
	}
}

// --- Tests ---

func TestAcquire_RestoresSessionAndReusesWorkspace(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	provider := &stubProvider{session: signedInSession()}
	reg := NewRegistry(newTestBuilder(store, "http://127.0.0.1:1", provider), RegistryOptions{})

	id := uuid.NewString()
	require.NoError(t, tokenstore.AccessTokenSlot(store, id).Set(context.Background(), "valid-token"))
	w := reg.Acquire(context.Background(), id)

	assert.Equal(t, id, w.ID)
	assert.True(t, w.Session.IsAuthenticated())
	assert.False(t, w.Session.Snapshot().IsLoading)

	again := reg.Acquire(context.Background(), id)
	assert.Same(t, w, again)
	assert.Equal(t, 1, reg.Len())
}

func TestAcquire_MalformedIDGetsFreshOne(t *testing.T) {
	reg := NewRegistry(newTestBuilder(tokenstore.NewMemoryStore(), "http://127.0.0.1:1", &stubProvider{}), RegistryOptions{})

	w := reg.Acquire(context.Background(), "not-a-uuid")

	_, err := uuid.Parse(w.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", w.ID)
	assert.False(t, w.Session.IsAuthenticated())
}

func TestUnauthorized_ClearsTokenResetsSessionRedirectsOnce(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token expired"}`))
	}))
	defer api.Close()

	store := tokenstore.NewMemoryStore()
	reg := NewRegistry(newTestBuilder(store, api.URL, &stubProvider{session: signedInSession()}), RegistryOptions{})
	w := reg.Acquire(context.Background(), uuid.NewString())
	require.True(t, w.Session.IsAuthenticated())

	_, err := w.API.APIKeys(context.Background())
	require.True(t, apiclient.IsUnauthorized(err))
	_, err = w.API.BudgetStatus(context.Background())
	require.True(t, apiclient.IsUnauthorized(err))

	assert.False(t, w.Session.IsAuthenticated())
	token, err := tokenstore.AccessTokenSlot(store, w.ID).Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	target, ok := w.TakeRedirect()
	assert.True(t, ok)
	assert.Equal(t, LoginPath, target)

	_, ok = w.TakeRedirect()
	assert.False(t, ok, "redirect is consumed once")
}

func TestAPIClient_ReadsTokenFromSlot(t *testing.T) {
	var auth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer api.Close()

	store := tokenstore.NewMemoryStore()
	reg := NewRegistry(newTestBuilder(store, api.URL, &stubProvider{session: signedInSession()}), RegistryOptions{})
	w := reg.Acquire(context.Background(), uuid.NewString())

	_, err := w.API.APIKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer valid-token", auth.Load())
}

func TestSweep_EvictsIdleWorkspaces(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	gauge := &mockGauge{}
	provider := &stubProvider{}
	reg := NewRegistry(newTestBuilder(tokenstore.NewMemoryStore(), "http://127.0.0.1:1", provider), RegistryOptions{
		IdleTTL: 30 * time.Minute,
		Now:     func() time.Time { return now },
		Gauge:   gauge,
	})

	idle := reg.Acquire(context.Background(), uuid.NewString())
	now = now.Add(20 * time.Minute)
	active := reg.Acquire(context.Background(), uuid.NewString())
	assert.Equal(t, 2, gauge.last)

	now = now.Add(15 * time.Minute)
	evicted := reg.Sweep()

	assert.Equal(t, 1, evicted)
	_, ok := reg.Lookup(idle.ID)
	assert.False(t, ok)
	_, ok = reg.Lookup(active.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, gauge.last)
	assert.Equal(t, int32(1), provider.unsubscribed.Load())
}

func TestClose_StopsQueueTimers(t *testing.T) {
	reg := NewRegistry(newTestBuilder(tokenstore.NewMemoryStore(), "http://127.0.0.1:1", &stubProvider{}), RegistryOptions{})
	w := reg.Acquire(context.Background(), uuid.NewString())
	w.Notify.Info("Hello", "world")
	require.Equal(t, 1, w.Queue.Len())

	reg.Close()
	w.Close()

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, w.Queue.Len())
	w.Queue.Push(notify.SeverityInfo, "late", "", 0)
	assert.Equal(t, 0, w.Queue.Len())
}

func TestAcquire_UnknownIDWithoutCredentialsGetsFreshOne(t *testing.T) {
	reg := NewRegistry(newTestBuilder(tokenstore.NewMemoryStore(), "http://127.0.0.1:1", &stubProvider{}), RegistryOptions{})
	planted := uuid.NewString()

	w := reg.Acquire(context.Background(), planted)

	assert.NotEqual(t, planted, w.ID)
	_, live := reg.Lookup(planted)
	assert.False(t, live)
}

func TestRotate_PlantedIDNeverCarriesSignIn(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	builder := &Builder{
		Store:  store,
		Config: testConfig("http://127.0.0.1:1"),
		NewProvider: func(_ string, slot *tokenstore.Slot) identity.Provider {
			return &slotProvider{slot: slot}
		},
	}
	reg := NewRegistry(builder, RegistryOptions{})

	// An id handed out to one browser is planted in another.
	planted := reg.Acquire(ctx, "").ID
	victim := reg.Acquire(ctx, planted)
	require.Equal(t, planted, victim.ID)

	require.NoError(t, victim.Session.Login(ctx, "a@x.com", "password1"))
	rotated, err := reg.Rotate(ctx, victim)
	require.NoError(t, err)

	assert.NotEqual(t, planted, rotated.ID)
	assert.True(t, rotated.Session.IsAuthenticated())
	_, live := reg.Lookup(planted)
	assert.False(t, live, "the signed-out id is torn down")

	attacker := reg.Acquire(ctx, planted)
	assert.NotEqual(t, planted, attacker.ID)
	assert.False(t, attacker.Session.IsAuthenticated())

	for _, slot := range builder.slots(planted) {
		v, err := slot.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, v)
	}

	// A restart restores the rotated id from its slots.
	restarted := NewRegistry(builder, RegistryOptions{})
	restored := restarted.Acquire(ctx, rotated.ID)
	assert.Equal(t, rotated.ID, restored.ID)
	assert.True(t, restored.Session.IsAuthenticated())
}

func TestAPIClient_RenewsExpiredSessionBetweenCalls(t *testing.T) {
	var auth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer api.Close()

	ctx := context.Background()
	provider := &expiringProvider{session: signedInSession()}
	reg := NewRegistry(&Builder{
		Store:  tokenstore.NewMemoryStore(),
		Config: testConfig(api.URL),
		NewProvider: func(string, *tokenstore.Slot) identity.Provider {
			return provider
		},
	}, RegistryOptions{})
	w := reg.Acquire(ctx, "")
	require.True(t, w.Session.IsAuthenticated())

	_, err := w.API.APIKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer valid-token", auth.Load())

	provider.expire("renewed-token")

	_, err = w.API.APIKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer renewed-token", auth.Load())
	assert.Equal(t, "renewed-token", w.Session.Token())
	assert.True(t, w.Session.IsAuthenticated())
}
