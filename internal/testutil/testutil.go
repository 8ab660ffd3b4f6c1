// Package testutil provides the handler test harness shared by the plugins:
// a configurable identity provider, a fake cost API and an Echo instance
// wired with the workspace middleware exactly like the app.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/config"
	"github.com/keyxmakerx/costpilot/internal/identity"
	"github.com/keyxmakerx/costpilot/internal/middleware"
	"github.com/keyxmakerx/costpilot/internal/notify"
	"github.com/keyxmakerx/costpilot/internal/tokenstore"
	"github.com/keyxmakerx/costpilot/internal/workspace"
)

// --- Identity provider ---

// Provider is an identity.Provider whose behavior is set per test. With the
// function fields nil, GetSession returns Session and sign-in returns a
// session for the given email.
type Provider struct {
	mu      sync.Mutex
	Session *identity.Session

	SignInFn  func(email, password string) (*identity.Session, error)
	SignUpFn  func(email, password string, metadata map[string]any) (*identity.SignUpResult, error)
	SignOutFn func() error
}

// SignedIn returns a confirmed session for email.
func SignedIn(email string) *identity.Session {
	return &identity.Session{
		AccessToken: "token-for-" + email,
		User: &identity.User{
			ID:               "user-" + email,
			Email:            email,
			EmailConfirmedAt: "2025-01-01T00:00:00Z",
			UserMetadata:     map[string]any{"full_name": "Test User", "plan": "free"},
		},
	}
}

func (p *Provider) GetSession(context.Context) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Session, nil
}

func (p *Provider) GetUser(context.Context) (*identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Session == nil {
		return nil, &identity.Error{Op: "user", Status: http.StatusUnauthorized, Code: "no_session", Message: "no session"}
	}
	return p.Session.User, nil
}

func (p *Provider) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	if p.SignInFn != nil {
		return p.SignInFn(email, password)
	}
	return SignedIn(email), nil
}

func (p *Provider) SignUp(_ context.Context, email, password string, metadata map[string]any) (*identity.SignUpResult, error) {
	if p.SignUpFn != nil {
		return p.SignUpFn(email, password, metadata)
	}
	s := SignedIn(email)
	return &identity.SignUpResult{User: s.User, Session: s}, nil
}

func (p *Provider) SignOut(context.Context) error {
	p.mu.Lock()
	p.Session = nil
	p.mu.Unlock()
	if p.SignOutFn != nil {
		return p.SignOutFn()
	}
	return nil
}

func (p *Provider) OnAuthStateChange(identity.Listener) func() { return func() {} }

// --- Fake cost API ---

// API is an httptest server routing with Go 1.22 mux patterns
// ("GET /proxy/api-keys").
type API struct {
	Server *httptest.Server
	mux    *http.ServeMux
}

// Handle registers h for pattern.
func (a *API) Handle(pattern string, h http.HandlerFunc) {
	a.mux.HandleFunc(pattern, h)
}

// JSON registers a handler answering pattern with status and v as JSON.
func (a *API) JSON(pattern string, status int, v any) {
	a.Handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, v)
	})
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- Harness ---

// Harness runs requests through an Echo instance that resolves workspaces
// from a fixed cookie. Routes go on Group.
type Harness struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Registry *workspace.Registry
	Store    *tokenstore.MemoryStore
	Provider *Provider
	API      *API
	Config   *config.Config

	WorkspaceID string
}

// New builds a harness with an anonymous workspace.
func New(t *testing.T) *Harness {
	t.Helper()

	api := &API{mux: http.NewServeMux()}
	api.Server = httptest.NewServer(api.mux)
	t.Cleanup(api.Server.Close)

	cfg := &config.Config{
		API: config.APIConfig{
			BaseURL:        api.Server.URL,
			Timeout:        2 * time.Second,
			ProxyPublicURL: "https://proxy.example.com",
		},
		Identity:      config.IdentityConfig{SignInFallback: true},
		Notifications: config.NotificationConfig{DefaultTTL: time.Minute},
	}

	h := &Harness{
		Store:       tokenstore.NewMemoryStore(),
		Provider:    &Provider{},
		API:         api,
		Config:      cfg,
	}
	h.Registry = workspace.NewRegistry(&workspace.Builder{
		Store:  h.Store,
		Config: cfg,
		NewProvider: func(string, *tokenstore.Slot) identity.Provider {
			return h.Provider
		},
	}, workspace.RegistryOptions{})
	t.Cleanup(h.Registry.Close)

	h.Echo = echo.New()
	h.Echo.HTTPErrorHandler = errorHandler
	h.Group = h.Echo.Group("", middleware.Workspaces(h.Registry, time.Hour, nil))
	h.WorkspaceID = h.Registry.Acquire(context.Background(), "").ID
	return h
}

// SignIn makes the harness workspace authenticated as email.
func (h *Harness) SignIn(t *testing.T, email string) *workspace.Workspace {
	t.Helper()
	h.Provider.mu.Lock()
	h.Provider.Session = SignedIn(email)
	h.Provider.mu.Unlock()

	w := h.Workspace()
	if !w.Session.IsAuthenticated() {
		if err := w.Session.Initialize(context.Background()); err != nil {
			t.Fatalf("initialize session: %v", err)
		}
	}
	return w
}

// Workspace returns (creating if needed) the harness workspace.
func (h *Harness) Workspace() *workspace.Workspace {
	return h.Registry.Acquire(context.Background(), h.WorkspaceID)
}

// Request describes one call to Do.
type Request struct {
	Method string
	Path   string
	Form   url.Values
	HTMX   bool
}

// Do serves r with the harness workspace cookie and follows a re-issued one,
// as a browser would.
func (h *Harness) Do(r Request) *httptest.ResponseRecorder {
	var body *strings.Reader
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if r.HTMX {
		req.Header.Set("HX-Request", "true")
	}
	req.AddCookie(&http.Cookie{Name: middleware.WorkspaceCookieName, Value: h.WorkspaceID})

	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.WorkspaceCookieName {
			h.WorkspaceID = c.Value
		}
	}
	return rec
}

// Get is shorthand for a plain GET.
func (h *Harness) Get(path string) *httptest.ResponseRecorder {
	return h.Do(Request{Method: http.MethodGet, Path: path})
}

// Post is shorthand for a form POST.
func (h *Harness) Post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return h.Do(Request{Method: http.MethodPost, Path: path, Form: form})
}

// Notifications returns the titles of the workspace's queued notifications
// keyed by severity.
func (h *Harness) Notifications() map[notify.Severity][]string {
	out := make(map[notify.Severity][]string)
	for _, e := range h.Workspace().Queue.List() {
		out[e.Severity] = append(out[e.Severity], e.Title)
	}
	return out
}

// errorHandler is a reduced app error handler: AppError codes become the
// status, 401 redirects to the login page.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
		_ = middleware.Redirect(c, workspace.LoginPath)
		return
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		_ = c.String(echoErr.Code, http.StatusText(echoErr.Code))
		return
	}
	code := apperror.SafeCode(err)
	_ = c.String(code, apperror.SafeMessage(err))
}
