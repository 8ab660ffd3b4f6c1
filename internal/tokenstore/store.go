// Package tokenstore holds the durable client-side credential slots of a
// workspace: the bearer token the cost API client reads on every request and
// the identity provider's serialized session. Each slot is a single mutable
// string; writers overwrite it (last write wins) and an empty string means
// the slot is absent.
package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backends that distinguish a missing key.
// Slot.Get never returns it; absence is reported as an empty string.
var ErrNotFound = errors.New("token slot not found")

// Store is a key/value backend for durable slots.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Key prefixes for the two slots a workspace owns.
const (
	accessTokenPrefix     = "token:"
	providerSessionPrefix = "provider:"
)

// Slot binds a Store to one key. It is what the session manager, the API
// client and the identity adapter hold; none of them know the key layout.
type Slot struct {
	store Store
	key   string
}

// NewSlot creates a slot for an arbitrary key.
func NewSlot(store Store, key string) *Slot {
	return &Slot{store: store, key: key}
}

// AccessTokenSlot returns the bearer token slot of a workspace.
func AccessTokenSlot(store Store, workspaceID string) *Slot {
	return NewSlot(store, accessTokenPrefix+workspaceID)
}

// ProviderSessionSlot returns the identity provider session slot of a workspace.
func ProviderSessionSlot(store Store, workspaceID string) *Slot {
	return NewSlot(store, providerSessionPrefix+workspaceID)
}

// Key returns the backend key of the slot.
func (s *Slot) Key() string {
	return s.key
}

// Get returns the stored value, or "" when the slot is empty.
func (s *Slot) Get(ctx context.Context) (string, error) {
	v, err := s.store.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Set overwrites the slot. Setting "" clears it.
func (s *Slot) Set(ctx context.Context, value string) error {
	if value == "" {
		return s.Clear(ctx)
	}
	return s.store.Set(ctx, s.key, value)
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Slot) Clear(ctx context.Context) error {
	err := s.store.Delete(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// MoveTo hands the value over to dst and empties s. An empty s leaves dst
// empty as well.
func (s *Slot) MoveTo(ctx context.Context, dst *Slot) error {
	v, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := dst.Set(ctx, v); err != nil {
		return err
	}
	return s.Clear(ctx)
}
