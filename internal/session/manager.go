package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/identity"
)

// User-facing messages for provider outcomes that need more than the
// provider's own wording.
const (
	ConfirmEmailMessage = "Please check your email and click the confirmation link before signing in."
	CheckEmailMessage   = "Registration successful! Please check your email to confirm your account, then sign in."

	loginFallback    = "Login failed. Please try again."
	registerFallback = "Registration failed. Please try again."
	profileFallback  = "Failed to update profile."
	planFallback     = "Failed to update your plan."
)

var (
	// ErrConfirmationPending is wrapped by the error Register returns when
	// the new account must confirm its email before it can sign in.
	ErrConfirmationPending = errors.New("email confirmation pending")

	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("session manager closed")
)

// ProfileClient is the part of the API client the manager uses for
// profile and plan changes.
type ProfileClient interface {
	CurrentUser(ctx context.Context) (*apiclient.User, error)
	UpdateProfile(ctx context.Context, upd apiclient.ProfileUpdate) (*apiclient.User, error)
	SelectPlan(ctx context.Context, plan string) (*apiclient.PlanSelection, error)
}

// TokenSlot is the durable storage of the access token.
type TokenSlot interface {
	Set(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

// Options configures a Manager.
type Options struct {
	// SignInFallback makes Register attempt an immediate sign-in when the
	// provider reports the new account as unconfirmed.
	SignInFallback bool
}

// Manager is the single source of truth for who is signed in. Its
// operations are serialized and report IsLoading while they run: a second
// call while one is running fails immediately with an operation_in_progress
// error.
type Manager struct {
	provider       identity.Provider
	profiles       ProfileClient
	slot           TokenSlot
	signInFallback bool

	mu          sync.Mutex
	state       State
	busy        bool
	closed      bool
	unsubscribe func()
}

// NewManager creates a Manager. It reports IsLoading until Initialize returns.
func NewManager(provider identity.Provider, profiles ProfileClient, slot TokenSlot, opts Options) *Manager {
	return &Manager{
		provider:       provider,
		profiles:       profiles,
		slot:           slot,
		signInFallback: opts.SignInFallback,
		state:          State{IsLoading: true},
	}
}

// Initialize restores an existing provider session. With no session, or on
// any failure, the durable token is cleared and the state left empty.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.begin(false); err != nil {
		return err
	}
	defer m.end()

	sess, err := m.provider.GetSession(ctx)
	if err == nil && sess != nil {
		var user *identity.User
		user, err = m.provider.GetUser(ctx)
		if err == nil {
			return m.populate(ctx, sess.AccessToken, identityFromProvider(user))
		}
	}

	m.clearLocal(ctx, false)
	if err != nil {
		slog.Debug("session restore failed", slog.Any("error", err))
		return apperror.NewAuthentication(apperror.Normalize(err, "Your session could not be restored.")).WithInternal(err)
	}
	return nil
}

// Subscribe registers the manager on the provider's event stream. The
// returned func is idempotent; Close also calls it.
func (m *Manager) Subscribe() func() {
	unsub := m.provider.OnAuthStateChange(m.handleEvent)

	var once sync.Once
	stop := func() { once.Do(unsub) }

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		stop()
		return stop
	}
	prev := m.unsubscribe
	m.unsubscribe = stop
	m.mu.Unlock()

	if prev != nil {
		prev()
	}
	return stop
}

// Login signs in with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := m.begin(true); err != nil {
		return err
	}
	defer m.end()

	return m.signIn(ctx, email, password)
}

// Register creates an account with the free plan and signs it in. When the
// provider requires email confirmation and the fallback sign-in is disabled
// or fails, the returned error wraps ErrConfirmationPending.
func (m *Manager) Register(ctx context.Context, email, password, displayName string) error {
	if err := m.begin(true); err != nil {
		return err
	}
	defer m.end()

	metadata := map[string]any{"full_name": displayName, "plan": string(PlanFree)}
	res, err := m.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		return m.fail(apperror.NewAuthentication(apperror.Normalize(err, registerFallback)).WithInternal(err))
	}

	if res.Session != nil && res.User != nil {
		return m.populate(ctx, res.Session.AccessToken, identityFromProvider(res.User))
	}

	if res.User != nil && res.User.Confirmed() {
		return m.signIn(ctx, email, password)
	}

	if !m.signInFallback {
		return m.fail(apperror.NewAuthentication(CheckEmailMessage).WithInternal(ErrConfirmationPending))
	}

	sess, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		slog.Debug("sign-in after registration failed", slog.Any("error", err))
		return m.fail(apperror.NewAuthentication(CheckEmailMessage).WithInternal(ErrConfirmationPending))
	}
	return m.completeSignIn(ctx, sess)
}

// Logout ends the provider session on a best-effort basis and clears the
// local state unconditionally.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.begin(false); err != nil {
		return err
	}
	defer m.end()

	if err := m.provider.SignOut(ctx); err != nil {
		slog.Warn("identity sign-out failed", slog.Any("error", err))
	}
	m.clearLocal(ctx, true)
	return nil
}

// UpdateIdentity sends a profile update to the API and replaces the local
// identity with the server's response.
func (m *Manager) UpdateIdentity(ctx context.Context, upd apiclient.ProfileUpdate) error {
	if err := m.begin(true); err != nil {
		return err
	}
	defer m.end()

	user, err := m.profiles.UpdateProfile(ctx, upd)
	if err != nil {
		return m.fail(apiclient.AsAppError(err, profileFallback))
	}
	m.replaceIdentity(identityFromAPI(user))
	return nil
}

// SelectPlan records the chosen plan and refreshes the identity from the API.
func (m *Manager) SelectPlan(ctx context.Context, plan PlanTier) error {
	if err := m.begin(true); err != nil {
		return err
	}
	defer m.end()

	if _, err := m.profiles.SelectPlan(ctx, string(plan)); err != nil {
		return m.fail(apiclient.AsAppError(err, planFallback))
	}

	user, err := m.profiles.CurrentUser(ctx)
	if err != nil {
		return m.fail(apiclient.AsAppError(err, planFallback))
	}
	m.replaceIdentity(identityFromAPI(user))
	return nil
}

// Adopt takes over token and identity from a session moved off another
// workspace. The durable slot already holds the token, so nothing is written.
func (m *Manager) Adopt(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.state.AccessToken = s.AccessToken
	m.state.Identity = nil
	if s.Identity != nil {
		id := *s.Identity
		m.state.Identity = &id
	}
	m.state.IsLoading = false
	m.state.LastError = ""
}

// ClearError resets LastError only.
func (m *Manager) ClearError() {
	m.setError("")
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

// IsAuthenticated reports whether both identity and token are set.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsAuthenticated()
}

// Token returns the in-memory access token.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AccessToken
}

// Reset drops token and identity from memory. The caller owns the durable slot.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.state.AccessToken = ""
	m.state.Identity = nil
}

// Close unsubscribes from provider events. No operation or event mutates
// state afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// --- internals ---

func (m *Manager) begin(clearError bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.busy {
		return apperror.NewInProgress()
	}
	m.busy = true
	m.state.IsLoading = true
	if clearError {
		m.state.LastError = ""
	}
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.busy = false
	if !m.closed {
		m.state.IsLoading = false
	}
}

func (m *Manager) signIn(ctx context.Context, email, password string) error {
	sess, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		msg := apperror.Normalize(err, loginFallback)
		if identity.IsEmailNotConfirmed(err) {
			msg = ConfirmEmailMessage
		}
		return m.fail(apperror.NewAuthentication(msg).WithInternal(err))
	}
	return m.completeSignIn(ctx, sess)
}

// completeSignIn populates the state from a fresh provider session,
// fetching the user when the session does not carry one.
func (m *Manager) completeSignIn(ctx context.Context, sess *identity.Session) error {
	user := sess.User
	if user == nil {
		var err error
		user, err = m.provider.GetUser(ctx)
		if err != nil {
			return m.fail(apperror.NewAuthentication(apperror.Normalize(err, loginFallback)).WithInternal(err))
		}
	}
	return m.populate(ctx, sess.AccessToken, identityFromProvider(user))
}

// populate stores the token durably, then sets token and identity together.
// Writing the same inputs twice yields the same state.
func (m *Manager) populate(ctx context.Context, token string, id *Identity) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := m.slot.Set(ctx, token); err != nil {
		return m.fail(apperror.NewInternal(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.state.AccessToken = token
	m.state.Identity = id
	return nil
}

// clearLocal empties the state and the durable slot. withError also
// resets LastError.
func (m *Manager) clearLocal(ctx context.Context, withError bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state.AccessToken = ""
	m.state.Identity = nil
	if withError {
		m.state.LastError = ""
	}
	m.mu.Unlock()

	if err := m.slot.Clear(ctx); err != nil {
		slog.Warn("clearing token slot", slog.Any("error", err))
	}
}

func (m *Manager) replaceIdentity(id *Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.AccessToken == "" {
		return
	}
	m.state.Identity = id
}

// fail records appErr as LastError and returns it.
func (m *Manager) fail(appErr *apperror.AppError) error {
	m.setError(appErr.Message)
	return appErr
}

// setError sets LastError and reports whether the manager is still open.
func (m *Manager) setError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.state.LastError = msg
	return true
}

// handleEvent applies provider session changes. Events never perform
// network I/O: a refresh without a user keeps the current identity.
func (m *Manager) handleEvent(ev identity.Event) {
	ctx := context.Background()

	switch ev.Type {
	case identity.EventSignedIn:
		if ev.Session == nil || ev.Session.User == nil {
			return
		}
		if err := m.populate(ctx, ev.Session.AccessToken, identityFromProvider(ev.Session.User)); err != nil && !errors.Is(err, ErrClosed) {
			slog.Warn("applying sign-in event", slog.Any("error", err))
		}

	case identity.EventTokenRefreshed:
		if ev.Session == nil {
			return
		}
		if ev.Session.User != nil {
			_ = m.populate(ctx, ev.Session.AccessToken, identityFromProvider(ev.Session.User))
			return
		}
		m.mu.Lock()
		current := m.state.Identity
		m.mu.Unlock()
		if current != nil {
			_ = m.populate(ctx, ev.Session.AccessToken, current)
		}

	case identity.EventSignedOut:
		m.clearLocal(ctx, false)
	}
}
