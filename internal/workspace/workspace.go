// Package workspace holds the per-browser state of the dashboard. A
// workspace owns one session manager, one notification queue and one API
// client, wired together at construction. The registry creates workspaces
// on first request, restores their session from the durable token slot and
// evicts them when idle.
package workspace

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/config"
	"github.com/keyxmakerx/costpilot/internal/identity"
	"github.com/keyxmakerx/costpilot/internal/notify"
	"github.com/keyxmakerx/costpilot/internal/session"
	"github.com/keyxmakerx/costpilot/internal/tokenstore"
)

// LoginPath is where an unauthorized API response sends the browser.
const LoginPath = "/login"

// Workspace is the state of one browser.
type Workspace struct {
	ID      string
	Session *session.Manager
	Queue   *notify.Queue
	Notify  notify.Notifier
	API     *apiclient.Client

	tokens   *tokenstore.Slot
	provider identity.Provider

	mu       sync.Mutex
	lastSeen time.Time
	redirect string
	closed   bool
}

// Touch records activity at now.
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// LastSeen returns the time of the last request.
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// TakeRedirect returns and clears the redirect recorded by an unauthorized
// API response. A page that triggered several 401s still redirects once.
func (w *Workspace) TakeRedirect() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	target := w.redirect
	w.redirect = ""
	return target, target != ""
}

// Close tears the workspace down: provider events are unsubscribed and
// pending notification timers stopped. The durable token slot is kept so a
// returning browser is restored. Safe to call more than once.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.Session.Close()
	w.Queue.Close()
}

// currentToken is the API client's token source. Asking the provider for
// its session first renews an expired one; the TOKEN_REFRESHED event then
// rewrites the slot before it is read.
func (w *Workspace) currentToken(ctx context.Context) (string, error) {
	if _, err := w.provider.GetSession(ctx); err != nil {
		slog.Debug("identity session not renewed",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
	}
	return w.tokens.Get(ctx)
}

// handleUnauthorized is the API client's 401 hook: clear the durable
// token, reset the session and record the login redirect.
func (w *Workspace) handleUnauthorized(ctx context.Context) {
	if err := w.tokens.Clear(ctx); err != nil {
		slog.Warn("clearing token after 401",
			slog.String("workspace", w.ID),
			slog.Any("error", err),
		)
	}
	w.Session.Reset()

	w.mu.Lock()
	w.redirect = LoginPath
	w.mu.Unlock()
}

// Recorder is the metrics sink shared by a workspace's components.
type Recorder interface {
	apiclient.Recorder
	identity.Recorder
	notify.Recorder
}

// ProviderFactory creates the identity provider of one workspace.
type ProviderFactory func(id string, slot *tokenstore.Slot) identity.Provider

// Builder assembles workspaces.
type Builder struct {
	Store       tokenstore.Store
	NewProvider ProviderFactory
	Config      *config.Config

	// Scheduler defaults to notify.RealScheduler.
	Scheduler notify.Scheduler

	// Recorder may be nil.
	Recorder Recorder

	// HTTPClient is shared by all API clients. Nil uses a default client.
	HTTPClient *http.Client
}

// GoTrueFactory returns a ProviderFactory for the configured GoTrue project.
func GoTrueFactory(cfg config.IdentityConfig, httpClient *http.Client, rec identity.Recorder) ProviderFactory {
	return func(_ string, slot *tokenstore.Slot) identity.Provider {
		return identity.NewGoTrue(identity.GoTrueConfig{
			URL:        cfg.URL,
			AnonKey:    cfg.AnonKey,
			HTTPClient: httpClient,
			Recorder:   rec,
		}, slot)
	}
}

// Build wires a new workspace with the given id. The session is neither
// subscribed nor initialized; the registry does that.
func (b *Builder) Build(id string) *Workspace {
	w := &Workspace{
		ID:       id,
		tokens:   tokenstore.AccessTokenSlot(b.Store, id),
		provider: b.NewProvider(id, tokenstore.ProviderSessionSlot(b.Store, id)),
	}

	queueOpts := []notify.Option{notify.WithDefaultTTL(b.Config.Notifications.DefaultTTL)}
	if b.Scheduler != nil {
		queueOpts = append(queueOpts, notify.WithScheduler(b.Scheduler))
	}
	if b.Recorder != nil {
		queueOpts = append(queueOpts, notify.WithRecorder(b.Recorder))
	}
	w.Queue = notify.NewQueue(queueOpts...)
	w.Notify = notify.NewNotifier(w.Queue)

	var apiRecorder apiclient.Recorder
	if b.Recorder != nil {
		apiRecorder = b.Recorder
	}
	w.API = apiclient.New(apiclient.Options{
		BaseURL:        b.Config.API.BaseURL,
		Timeout:        b.Config.API.Timeout,
		RateLimit:      b.Config.API.RateLimit,
		RateBurst:      b.Config.API.RateBurst,
		HTTPClient:     b.HTTPClient,
		Tokens:         apiclient.TokenSourceFunc(w.currentToken),
		OnUnauthorized: w.handleUnauthorized,
		Recorder:       apiRecorder,
	})

	w.Session = session.NewManager(w.provider, w.API, w.tokens, session.Options{
		SignInFallback: b.Config.Identity.SignInFallback,
	})
	return w
}

// slots returns the durable slots of id: the bearer token and the provider
// session.
func (b *Builder) slots(id string) []*tokenstore.Slot {
	return []*tokenstore.Slot{
		tokenstore.AccessTokenSlot(b.Store, id),
		tokenstore.ProviderSessionSlot(b.Store, id),
	}
}

// restorable reports whether any durable slot of id holds a credential.
func (b *Builder) restorable(ctx context.Context, id string) bool {
	for _, slot := range b.slots(id) {
		v, err := slot.Get(ctx)
		if err != nil {
			slog.Warn("reading workspace slot",
				slog.String("workspace", id),
				slog.Any("error", err),
			)
			continue
		}
		if v != "" {
			return true
		}
	}
	return false
}

func (b *Builder) moveSlots(ctx context.Context, from, to string) error {
	dst := b.slots(to)
	for i, slot := range b.slots(from) {
		if err := slot.MoveTo(ctx, dst[i]); err != nil {
			return err
		}
	}
	return nil
}
