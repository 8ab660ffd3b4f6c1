package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/costpilot/internal/tokenstore"
)

// fakeGoTrue is a minimal in-process auth server.
type fakeGoTrue struct {
	mu          sync.Mutex
	autoConfirm bool
	passwords   map[string]string
	confirmed   map[string]bool
	refreshOK   bool
	calls       []string
}

func newFakeGoTrue() *fakeGoTrue {
	return &fakeGoTrue{
		passwords: map[string]string{},
		confirmed: map[string]bool{},
		refreshOK: true,
	}
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)

	if r.Header.Get("apikey") != "anon" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"No API key found in request"}`))
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	switch {
	case r.URL.Path == "/auth/v1/signup":
		f.passwords[email] = password
		f.confirmed[email] = f.autoConfirm
		user := map[string]any{"id": "11111111-2222-3333-4444-555555555555", "email": email, "user_metadata": body["data"]}
		if f.autoConfirm {
			user["email_confirmed_at"] = "2025-01-01T00:00:00Z"
			writeJSON(w, http.StatusOK, map[string]any{"access_token": "at-" + email, "refresh_token": "rt-1", "expires_in": 3600, "user": user})
			return
		}
		writeJSON(w, http.StatusOK, user)

	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
		if pw, ok := f.passwords[email]; !ok || pw != password {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		if !f.confirmed[email] {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "error_code": "email_not_confirmed", "msg": "Email not confirmed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "at-" + email, "refresh_token": "rt-1", "expires_in": 3600,
			"user": map[string]any{"id": "u-1", "email": email, "email_confirmed_at": "2025-01-01T00:00:00Z"},
		})

	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
		if !f.refreshOK {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid Refresh Token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "at-refreshed", "refresh_token": "rt-2", "expires_in": 3600})

	case r.URL.Path == "/auth/v1/user":
		writeJSON(w, http.StatusOK, map[string]any{"id": "u-1", "email": "bearer:" + r.Header.Get("Authorization")})

	case r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type mockRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (m *mockRecorder) RecordIdentityCall(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls[op+":"+outcome]++
}

type eventLog struct {
	mu     sync.Mutex
	events []EventType
}

func (l *eventLog) listen(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev.Type)
}

func newTestProvider(t *testing.T, fake *fakeGoTrue, store tokenstore.Store, now func() time.Time) (*GoTrue, *mockRecorder) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	rec := &mockRecorder{}
	g := NewGoTrue(GoTrueConfig{URL: srv.URL, AnonKey: "anon", Recorder: rec, Now: now},
		tokenstore.ProviderSessionSlot(store, "ws-1"))
	return g, rec
}

func TestGoTrue_SignInPersistsAndEmits(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["a@x.com"] = "password1"
	fake.confirmed["a@x.com"] = true
	store := tokenstore.NewMemoryStore()
	g, rec := newTestProvider(t, fake, store, nil)

	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	sess, err := g.SignInWithPassword(context.Background(), "a@x.com", "password1")

	require.NoError(t, err)
	assert.Equal(t, "at-a@x.com", sess.AccessToken)
	assert.NotZero(t, sess.ExpiresAt)
	assert.Equal(t, []EventType{EventSignedIn}, log.events)
	assert.Equal(t, 1, rec.calls["sign_in:ok"])

	// A second provider on the same slot restores the session.
	g2, _ := newTestProvider(t, fake, store, nil)
	restored, err := g2.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "at-a@x.com", restored.AccessToken)
}

func TestGoTrue_SignInErrors(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["u@x.com"] = "password1"
	g, rec := newTestProvider(t, fake, tokenstore.NewMemoryStore(), nil)

	_, err := g.SignInWithPassword(context.Background(), "u@x.com", "password1")
	require.Error(t, err)
	assert.True(t, IsEmailNotConfirmed(err))

	_, err = g.SignInWithPassword(context.Background(), "u@x.com", "wrong")
	var idErr *Error
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, "Invalid login credentials", idErr.UserMessage())
	assert.Equal(t, "invalid_grant", idErr.Code)
	assert.False(t, IsEmailNotConfirmed(err))
	assert.Equal(t, 2, rec.calls["sign_in:error"])
}

func TestGoTrue_SignUpUnconfirmedReturnsNoSession(t *testing.T) {
	fake := newFakeGoTrue()
	g, _ := newTestProvider(t, fake, tokenstore.NewMemoryStore(), nil)
	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	res, err := g.SignUp(context.Background(), "new@x.com", "password10", map[string]any{"full_name": "New", "plan": "free"})

	require.NoError(t, err)
	assert.Nil(t, res.Session)
	require.NotNil(t, res.User)
	assert.Equal(t, "new@x.com", res.User.Email)
	assert.False(t, res.User.Confirmed())
	assert.Equal(t, "free", res.User.Metadata("plan"))
	assert.Empty(t, log.events)
}

func TestGoTrue_SignUpAutoConfirmSignsIn(t *testing.T) {
	fake := newFakeGoTrue()
	fake.autoConfirm = true
	g, _ := newTestProvider(t, fake, tokenstore.NewMemoryStore(), nil)
	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	res, err := g.SignUp(context.Background(), "auto@x.com", "password10", nil)

	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "at-auto@x.com", res.Session.AccessToken)
	require.NotNil(t, res.User)
	assert.True(t, res.User.Confirmed())
	assert.Equal(t, []EventType{EventSignedIn}, log.events)
}

func TestGoTrue_RefreshesExpiredSession(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["a@x.com"] = "password1"
	fake.confirmed["a@x.com"] = true

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	g, _ := newTestProvider(t, fake, tokenstore.NewMemoryStore(), clock)
	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	_, err := g.SignInWithPassword(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	sess, err := g.GetSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "at-refreshed", sess.AccessToken)
	assert.Equal(t, "rt-2", sess.RefreshToken)
	assert.Equal(t, []EventType{EventSignedIn, EventTokenRefreshed}, log.events)

	user, err := g.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bearer:Bearer at-refreshed", user.Email)
}

func TestGoTrue_ConcurrentCallersShareOneRefresh(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["a@x.com"] = "password1"
	fake.confirmed["a@x.com"] = true

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	g, rec := newTestProvider(t, fake, tokenstore.NewMemoryStore(), clock)
	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	_, err := g.SignInWithPassword(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)

	var wg sync.WaitGroup
	tokens := make([]string, 4)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := g.GetSession(context.Background())
			if assert.NoError(t, err) {
				tokens[i] = sess.AccessToken
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"at-refreshed", "at-refreshed", "at-refreshed", "at-refreshed"}, tokens)
	assert.Equal(t, 1, rec.calls["refresh:ok"])
	assert.Equal(t, []EventType{EventSignedIn, EventTokenRefreshed}, log.events)
}

func TestGoTrue_FailedRefreshSignsOut(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["a@x.com"] = "password1"
	fake.confirmed["a@x.com"] = true
	fake.refreshOK = false

	now := time.Unix(1_700_000_000, 0)
	store := tokenstore.NewMemoryStore()
	g, _ := newTestProvider(t, fake, store, func() time.Time { return now })
	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	_, err := g.SignInWithPassword(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	sess, err := g.GetSession(context.Background())

	require.Error(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, []EventType{EventSignedIn, EventSignedOut}, log.events)

	raw, err := tokenstore.ProviderSessionSlot(store, "ws-1").Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestGoTrue_SignOutClearsLocallyAndEmits(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["a@x.com"] = "password1"
	fake.confirmed["a@x.com"] = true
	store := tokenstore.NewMemoryStore()
	g, _ := newTestProvider(t, fake, store, nil)
	log := &eventLog{}
	g.OnAuthStateChange(log.listen)

	_, err := g.SignInWithPassword(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)

	require.NoError(t, g.SignOut(context.Background()))

	sess, err := g.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, []EventType{EventSignedIn, EventSignedOut}, log.events)
	assert.Contains(t, fake.calls, "POST /auth/v1/logout?")
}

func TestGoTrue_GetUserWithoutSession(t *testing.T) {
	g, _ := newTestProvider(t, newFakeGoTrue(), tokenstore.NewMemoryStore(), nil)

	_, err := g.GetUser(context.Background())

	var idErr *Error
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, http.StatusUnauthorized, idErr.Status)
}

func TestGoTrue_UnsubscribeIsIdempotent(t *testing.T) {
	fake := newFakeGoTrue()
	fake.passwords["a@x.com"] = "password1"
	fake.confirmed["a@x.com"] = true
	g, _ := newTestProvider(t, fake, tokenstore.NewMemoryStore(), nil)
	log := &eventLog{}

	unsubscribe := g.OnAuthStateChange(log.listen)
	unsubscribe()
	unsubscribe()

	_, err := g.SignInWithPassword(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)
	assert.Empty(t, log.events)
}

func TestSession_Expired(t *testing.T) {
	now := time.Unix(1_000, 0)

	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: 2_000}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: 1_005}).Expired(now), "inside skew window")
	assert.True(t, (&Session{ExpiresAt: 900}).Expired(now))
}
