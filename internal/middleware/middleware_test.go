package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/config"
	"github.com/keyxmakerx/costpilot/internal/identity"
	"github.com/keyxmakerx/costpilot/internal/tokenstore"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

// --- Test Mocks ---

// signedInProvider always reports an authenticated session.
type signedInProvider struct{}

func (signedInProvider) session() *identity.Session {
	return &identity.Session{
		AccessToken: "tok",
		User:        &identity.User{ID: "u-1", Email: "a@x.com", EmailConfirmedAt: "2025-01-01T00:00:00Z"},
	}
}

func (p signedInProvider) GetSession(context.Context) (*identity.Session, error) {
	return p.session(), nil
}

func (p signedInProvider) GetUser(context.Context) (*identity.User, error) {
	return p.session().User, nil
}

func (p signedInProvider) SignInWithPassword(context.Context, string, string) (*identity.Session, error) {
	return p.session(), nil
}

func (signedInProvider) SignUp(context.Context, string, string, map[string]any) (*identity.SignUpResult, error) {
	return &identity.SignUpResult{}, nil
}

func (signedInProvider) SignOut(context.Context) error { return nil }

func (signedInProvider) OnAuthStateChange(identity.Listener) func() { return func() {} }

func newTestRegistry(t *testing.T, apiURL string) *workspace.Registry {
	t.Helper()
	b := &workspace.Builder{
		Store: tokenstore.NewMemoryStore(),
		Config: &config.Config{
			API: config.APIConfig{BaseURL: apiURL, Timeout: time.Second},
		},
		NewProvider: func(string, *tokenstore.Slot) identity.Provider {
			return signedInProvider{}
		},
	}
	reg := workspace.NewRegistry(b, workspace.RegistryOptions{})
	t.Cleanup(reg.Close)
	return reg
}

func unauthorizedAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// --- CSRF ---

func TestCSRF_IssuesCookieOnSafeRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, CSRF()(okHandler)(c))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.Len(t, cookies[0].Value, csrfTokenLength*2)
	assert.Equal(t, cookies[0].Value, GetCSRFToken(c))
}

func TestCSRF_RejectsMutationWithoutToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api-keys", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
	c := e.NewContext(req, httptest.NewRecorder())

	err := CSRF()(okHandler)(c)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusForbidden, appErr.Code)
}

func TestCSRF_AcceptsHeaderOrFormField(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api-keys", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
	req.Header.Set(csrfHeaderName, "abc")
	rec := httptest.NewRecorder()
	require.NoError(t, CSRF()(okHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api-keys", strings.NewReader("csrf_token=abc"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
	rec = httptest.NewRecorder()
	require.NoError(t, CSRF()(okHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_SkipsPrefixes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, CSRF("/metrics", "/healthz")(okHandler)(e.NewContext(req, rec)))
	assert.Empty(t, rec.Result().Cookies())
}

// --- Rate limiting ---

func TestRateLimit_PerIP(t *testing.T) {
	e := echo.New()
	h := RateLimit(2, time.Minute)(okHandler)

	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call("10.0.0.1"))
	require.NoError(t, call("10.0.0.1"))

	err := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, apperror.SafeCode(err))

	assert.NoError(t, call("10.0.0.2"), "other clients keep their own bucket")
}

func TestIPLimiters_PrunesIdleEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newIPLimiters(1, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	now = now.Add(limiterIdle + time.Second)
	assert.True(t, l.allow("b"))
	assert.Len(t, l.entries, 1)
}

// --- Trusted proxies ---

func TestTrustedProxies_OnlyBelievesTrustedPeers(t *testing.T) {
	extract := buildIPExtractor(parseCIDRs([]string{"10.0.0.0/8", "bogus"}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.1.2.3")
	assert.Equal(t, "203.0.113.7", extract(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", extract(req))

	req.RemoteAddr = "192.0.2.9:5000"
	assert.Equal(t, "192.0.2.9", extract(req))
}

// --- Workspaces ---

func TestWorkspaces_IssuesCookieAndStoresWorkspace(t *testing.T) {
	reg := newTestRegistry(t, "http://127.0.0.1:1")
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *workspace.Workspace
	h := Workspaces(reg, time.Hour, nil)(func(c echo.Context) error {
		seen = GetWorkspace(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))

	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, WorkspaceCookieName, cookies[0].Name)
	assert.Equal(t, seen.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestWorkspaces_KnownCookieIsReused(t *testing.T) {
	reg := newTestRegistry(t, "http://127.0.0.1:1")
	existing := reg.Acquire(context.Background(), "")
	id := existing.ID

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: WorkspaceCookieName, Value: id})
	rec := httptest.NewRecorder()

	h := Workspaces(reg, time.Hour, nil)(func(c echo.Context) error {
		assert.Same(t, existing, GetWorkspace(c))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Empty(t, rec.Result().Cookies(), "cookie is not re-issued")
}

func TestWorkspaces_UnknownCookieIsReplaced(t *testing.T) {
	reg := newTestRegistry(t, "http://127.0.0.1:1")
	planted := uuid.NewString()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: WorkspaceCookieName, Value: planted})
	rec := httptest.NewRecorder()

	var seen *workspace.Workspace
	h := Workspaces(reg, time.Hour, nil)(func(c echo.Context) error {
		seen = GetWorkspace(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(e.NewContext(req, rec)))

	assert.NotEqual(t, planted, seen.ID)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, seen.ID, cookies[0].Value)
}

func TestWorkspaces_SecureOnlyBehindTrustedProxy(t *testing.T) {
	reg := newTestRegistry(t, "http://127.0.0.1:1")
	e := echo.New()
	h := Workspaces(reg, time.Hour, []string{"10.0.0.0/8"})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name   string
		remote string
		want   bool
	}{
		{"trusted proxy", "10.1.2.3:4000", true},
		{"direct client", "203.0.113.7:4000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set(echo.HeaderXForwardedProto, "https")
			rec := httptest.NewRecorder()

			require.NoError(t, h(e.NewContext(req, rec)))

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, tt.want, cookies[0].Secure)
		})
	}
}

func TestRotateWorkspace_ReissuesCookie(t *testing.T) {
	reg := newTestRegistry(t, "http://127.0.0.1:1")
	old := reg.Acquire(context.Background(), "")
	require.True(t, old.Session.IsAuthenticated())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: WorkspaceCookieName, Value: old.ID})
	rec := httptest.NewRecorder()

	var rotated *workspace.Workspace
	h := Workspaces(reg, time.Hour, nil)(func(c echo.Context) error {
		var err error
		rotated, err = RotateWorkspace(c)
		if err != nil {
			return err
		}
		assert.Same(t, rotated, GetWorkspace(c))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(e.NewContext(req, rec)))

	assert.NotEqual(t, old.ID, rotated.ID)
	assert.True(t, rotated.Session.IsAuthenticated())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, rotated.ID, cookies[0].Value)

	_, live := reg.Lookup(old.ID)
	assert.False(t, live)
}

func TestRotateWorkspace_WithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), httptest.NewRecorder())

	_, err := RotateWorkspace(c)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
}

func TestWorkspaces_FlushesPendingLoginRedirect(t *testing.T) {
	api := unauthorizedAPI(t)
	reg := newTestRegistry(t, api.URL)
	e := echo.New()

	// The handler swallows the error, as dashboard loads do.
	h := Workspaces(reg, time.Hour, nil)(func(c echo.Context) error {
		_, _ = GetWorkspace(c).API.APIKeys(c.Request().Context())
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, workspace.LoginPath, rec.Header().Get(echo.HeaderLocation))
}

func TestRender_RedirectsInsteadOfRenderingAfter401(t *testing.T) {
	api := unauthorizedAPI(t)
	reg := newTestRegistry(t, api.URL)
	e := echo.New()

	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>page</p>")
		return err
	})
	h := Workspaces(reg, time.Hour, nil)(func(c echo.Context) error {
		_, _ = GetWorkspace(c).API.BudgetStatus(c.Request().Context())
		return Render(c, http.StatusOK, page)
	})

	req := httptest.NewRequest(http.MethodGet, "/budget", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, workspace.LoginPath, rec.Header().Get("HX-Redirect"))
	assert.NotContains(t, rec.Body.String(), "page")
}

func TestRender_WritesComponent(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hello</p>")
		return err
	})
	require.NoError(t, Render(c, http.StatusAccepted, page))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "<p>hello</p>", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
}

func TestRecovery_ConvertsPanic(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := Recovery()(func(echo.Context) error { panic("boom") })(c)
	assert.Equal(t, http.StatusInternalServerError, apperror.SafeCode(err))
}

func TestRequestLogger_LogsHandledStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/missing", nil), rec)

	err := RequestLogger()(func(echo.Context) error { return echo.ErrNotFound })(c)

	require.NoError(t, err, "the error is handled, not propagated")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, requestLevel("/notifications", http.StatusOK))
	assert.Equal(t, slog.LevelInfo, requestLevel("/dashboard", http.StatusOK))
	assert.Equal(t, slog.LevelWarn, requestLevel("/notifications", http.StatusForbidden))
	assert.Equal(t, slog.LevelError, requestLevel("/readyz", http.StatusBadGateway))
}
