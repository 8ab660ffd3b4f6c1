package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/costpilot/internal/sanitize"
	"github.com/keyxmakerx/costpilot/internal/tokenstore"
)

// Recorder receives one observation per provider call. Implemented by
// metrics.Collector.
type Recorder interface {
	RecordIdentityCall(operation string, err error)
}

// GoTrueConfig configures a GoTrue provider.
type GoTrueConfig struct {
	// URL is the project root; "/auth/v1" is appended.
	URL string

	// AnonKey is sent in the "apikey" header on every call.
	AnonKey string

	HTTPClient *http.Client
	Recorder   Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

// GoTrue implements Provider against a Supabase/GoTrue auth REST API. One
// instance serves one workspace: its session is persisted in that
// workspace's provider slot so it survives restarts.
type GoTrue struct {
	endpoint   string
	anonKey    string
	httpClient *http.Client
	recorder   Recorder
	now        func() time.Time
	slot       *tokenstore.Slot

	// refreshMu makes concurrent callers of an expired session share one
	// refresh; GoTrue rotates the refresh token on use.
	refreshMu sync.Mutex

	mu        sync.Mutex
	session   *Session
	loaded    bool
	listeners map[string]Listener
}

var _ Provider = (*GoTrue)(nil)

// NewGoTrue creates a provider persisting its session in slot.
func NewGoTrue(cfg GoTrueConfig, slot *tokenstore.Slot) *GoTrue {
	g := &GoTrue{
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		httpClient: cfg.HTTPClient,
		recorder:   cfg.Recorder,
		now:        cfg.Now,
		slot:       slot,
		listeners:  make(map[string]Listener),
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// GetSession returns the stored session, refreshing it first when expired.
// A failed refresh drops the session and emits EventSignedOut.
func (g *GoTrue) GetSession(ctx context.Context) (*Session, error) {
	sess, err := g.currentSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	if !sess.Expired(g.now()) {
		return sess, nil
	}

	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	sess, err = g.currentSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	if !sess.Expired(g.now()) {
		return sess, nil
	}

	refreshed, err := g.refresh(ctx, sess.RefreshToken)
	if err != nil {
		slog.Info("identity session refresh failed", slog.Any("error", err))
		g.dropSession(ctx)
		g.emit(Event{Type: EventSignedOut})
		return nil, err
	}
	if err := g.storeSession(ctx, refreshed); err != nil {
		return nil, err
	}
	g.emit(Event{Type: EventTokenRefreshed, Session: refreshed})
	return refreshed, nil
}

// GetUser fetches the user record for the current session.
func (g *GoTrue) GetUser(ctx context.Context) (*User, error) {
	sess, err := g.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, &Error{Op: "get_user", Status: http.StatusUnauthorized, Code: "no_session", Message: "Auth session missing!"}
	}

	var user User
	err = g.call(ctx, "get_user", http.MethodGet, "/user", nil, sess.AccessToken, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithPassword exchanges credentials for a session and emits EventSignedIn.
func (g *GoTrue) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	q := url.Values{"grant_type": {"password"}}

	var sess Session
	if err := g.call(ctx, "sign_in", http.MethodPost, "/token", q, "", body, &sess); err != nil {
		return nil, err
	}
	g.fillExpiry(&sess)
	if err := g.storeSession(ctx, &sess); err != nil {
		return nil, err
	}
	g.emit(Event{Type: EventSignedIn, Session: &sess})
	return &sess, nil
}

// signUpResponse covers both GoTrue signup shapes: a full session when the
// project auto-confirms, or the bare user record otherwise.
type signUpResponse struct {
	Session
	User
}

// SignUp creates an account. When the provider returns a session the
// account is signed in immediately and EventSignedIn is emitted.
func (g *GoTrue) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var resp signUpResponse
	if err := g.call(ctx, "sign_up", http.MethodPost, "/signup", nil, "", body, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		user := resp.User
		return &SignUpResult{User: &user}, nil
	}

	sess := resp.Session
	g.fillExpiry(&sess)
	if err := g.storeSession(ctx, &sess); err != nil {
		return nil, err
	}
	g.emit(Event{Type: EventSignedIn, Session: &sess})
	return &SignUpResult{User: sess.User, Session: &sess}, nil
}

// SignOut revokes the session remotely, then clears it locally and emits
// EventSignedOut regardless of the remote outcome.
func (g *GoTrue) SignOut(ctx context.Context) error {
	sess, err := g.currentSession(ctx)

	var remoteErr error
	if err == nil && sess != nil {
		remoteErr = g.call(ctx, "sign_out", http.MethodPost, "/logout", nil, sess.AccessToken, nil, nil)
	}

	g.dropSession(ctx)
	g.emit(Event{Type: EventSignedOut})
	return remoteErr
}

// OnAuthStateChange registers l for session events.
func (g *GoTrue) OnAuthStateChange(l Listener) func() {
	id := uuid.NewString()

	g.mu.Lock()
	g.listeners[id] = l
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	}
}

func (g *GoTrue) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, &Error{Op: "refresh", Status: http.StatusUnauthorized, Code: "no_refresh_token", Message: "Your session has expired. Please sign in again."}
	}
	body := map[string]string{"refresh_token": refreshToken}
	q := url.Values{"grant_type": {"refresh_token"}}

	var sess Session
	if err := g.call(ctx, "refresh", http.MethodPost, "/token", q, "", body, &sess); err != nil {
		return nil, err
	}
	g.fillExpiry(&sess)
	return &sess, nil
}

// currentSession returns the in-memory session, loading it from the slot
// on first use.
func (g *GoTrue) currentSession(ctx context.Context) (*Session, error) {
	g.mu.Lock()
	if g.loaded {
		sess := g.session
		g.mu.Unlock()
		return sess, nil
	}
	g.mu.Unlock()

	raw, err := g.slot.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading identity session: %w", err)
	}

	var sess *Session
	if raw != "" {
		var decoded Session
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			slog.Warn("discarding unreadable identity session", slog.Any("error", err))
			_ = g.slot.Clear(ctx)
		} else {
			sess = &decoded
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loaded {
		g.session = sess
		g.loaded = true
	}
	return g.session, nil
}

func (g *GoTrue) storeSession(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding identity session: %w", err)
	}
	if err := g.slot.Set(ctx, string(raw)); err != nil {
		return fmt.Errorf("persisting identity session: %w", err)
	}

	g.mu.Lock()
	g.session = sess
	g.loaded = true
	g.mu.Unlock()
	return nil
}

func (g *GoTrue) dropSession(ctx context.Context) {
	if err := g.slot.Clear(ctx); err != nil {
		slog.Warn("clearing identity session", slog.Any("error", err))
	}
	g.mu.Lock()
	g.session = nil
	g.loaded = true
	g.mu.Unlock()
}

func (g *GoTrue) fillExpiry(sess *Session) {
	if sess.ExpiresAt == 0 && sess.ExpiresIn > 0 {
		sess.ExpiresAt = g.now().Unix() + sess.ExpiresIn
	}
}

// emit delivers ev to a snapshot of the listeners, outside the lock so a
// listener may call back into the provider.
func (g *GoTrue) emit(ev Event) {
	g.mu.Lock()
	ls := make([]Listener, 0, len(g.listeners))
	for _, l := range g.listeners {
		ls = append(ls, l)
	}
	g.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}

// call performs one provider request and decodes a 2xx body into out.
func (g *GoTrue) call(ctx context.Context, op, method, path string, query url.Values, bearer string, body, out any) (err error) {
	defer func() {
		if g.recorder != nil {
			g.recorder.RecordIdentityCall(op, err)
		}
	}()

	target := g.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp, op)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("identity %s: decoding response: %w", op, err)
	}
	return nil
}

// readError parses the several error shapes GoTrue versions emit:
// {"error":..., "error_description":...}, {"code":..., "msg":...} and
// {"error_code":..., "message":...}.
func readError(resp *http.Response, op string) *Error {
	e := &Error{Op: op, Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)

	e.Code = firstNonEmpty(body.ErrorCode, body.Error)
	e.Message = sanitize.Message(firstNonEmpty(body.Msg, body.ErrorDescription, body.Message, body.Error))
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
