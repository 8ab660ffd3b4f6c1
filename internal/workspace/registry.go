package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GaugeRecorder publishes the number of live workspaces.
type GaugeRecorder interface {
	SetActiveWorkspaces(n int)
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// IdleTTL is how long a workspace survives without requests.
	IdleTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	Gauge GaugeRecorder
}

// Registry maps workspace ids (carried in a browser cookie) to live workspaces.
type Registry struct {
	builder *Builder
	idleTTL time.Duration
	now     func() time.Time
	gauge   GaugeRecorder

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewRegistry creates a Registry building workspaces with b.
func NewRegistry(b *Builder, opts RegistryOptions) *Registry {
	r := &Registry{
		builder: b,
		idleTTL: opts.IdleTTL,
		now:     opts.Now,
		gauge:   opts.Gauge,
		items:   make(map[string]*Workspace),
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Acquire returns the workspace for id, creating it when absent. A missing
// or malformed id gets a fresh one, and so does an id that is neither live
// nor backed by durable credentials: a browser cannot pick the id a later
// sign-in is stored under. Callers compare the returned id with the cookie
// value to decide whether to set the cookie. New workspaces are subscribed
// to provider events and restored from the durable token slot before they
// become visible.
func (r *Registry) Acquire(ctx context.Context, id string) *Workspace {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	} else if w := r.lookup(id); w != nil {
		return w
	} else if !r.builder.restorable(ctx, id) {
		id = uuid.NewString()
	}

	w := r.builder.Build(id)
	w.Session.Subscribe()
	if err := w.Session.Initialize(ctx); err != nil {
		slog.Info("workspace session not restored",
			slog.String("workspace", id),
			slog.Any("error", err),
		)
	}
	w.Touch(r.now())

	r.mu.Lock()
	if existing, ok := r.items[id]; ok {
		r.mu.Unlock()
		w.Close()
		existing.Touch(r.now())
		return existing
	}
	r.items[id] = w
	n := len(r.items)
	r.mu.Unlock()

	r.publish(n)
	slog.Debug("workspace created", slog.String("workspace", id))
	return w
}

// Rotate moves the signed-in session of old to a freshly minted id and
// tears old down. The durable slots move along, so the old id can be
// neither restored nor reused afterwards.
func (r *Registry) Rotate(ctx context.Context, old *Workspace) (*Workspace, error) {
	id := uuid.NewString()
	if err := r.builder.moveSlots(ctx, old.ID, id); err != nil {
		return nil, fmt.Errorf("rotating workspace: %w", err)
	}

	w := r.builder.Build(id)
	w.Session.Subscribe()
	w.Session.Adopt(old.Session.Snapshot())
	w.Touch(r.now())

	r.mu.Lock()
	if r.items[old.ID] == old {
		delete(r.items, old.ID)
	}
	r.items[id] = w
	n := len(r.items)
	r.mu.Unlock()

	old.Close()
	r.publish(n)
	slog.Debug("workspace rotated", slog.String("workspace", id))
	return w, nil
}

// Lookup returns the live workspace for id without creating one.
func (r *Registry) Lookup(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	return w, ok
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep tears down workspaces idle for longer than the idle TTL and
// returns how many were evicted.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []*Workspace
	for id, w := range r.items {
		if w.LastSeen().Before(cutoff) {
			evicted = append(evicted, w)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, w := range evicted {
		w.Close()
	}
	if len(evicted) > 0 {
		r.publish(n)
		slog.Debug("evicted idle workspaces", slog.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps at interval until ctx is cancelled, then closes every workspace.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close tears down every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, w := range items {
		w.Close()
	}
	r.publish(0)
}

func (r *Registry) lookup(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	if ok {
		w.Touch(r.now())
	}
	return w
}

func (r *Registry) publish(n int) {
	if r.gauge != nil {
		r.gauge.SetActiveWorkspaces(n)
	}
}
