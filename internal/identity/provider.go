// Package identity is the boundary to the external identity provider that
// owns credentials and sessions. The dashboard depends only on the six
// operations of Provider; GoTrue implements them against a Supabase-style
// auth REST API.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// expirySkew treats a session as expired slightly early so a token is
// never sent in its last seconds of validity.
const expirySkew = 10 * time.Second

// Session is an authenticated provider session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`

	// ExpiresAt is a unix timestamp in seconds.
	ExpiresAt int64 `json:"expires_at"`

	User *User `json:"user,omitempty"`
}

// Expired reports whether the access token is at or near its expiry.
// Sessions without an expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return !now.Add(expirySkew).Before(time.Unix(s.ExpiresAt, 0))
}

// User is the provider's user record.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt string         `json:"email_confirmed_at,omitempty"`
	CreatedAt        string         `json:"created_at"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
}

// Confirmed reports whether the provider recorded an email confirmation.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != ""
}

// Metadata returns a string value from the user's metadata, or "".
func (u *User) Metadata(key string) string {
	if u.UserMetadata == nil {
		return ""
	}
	s, _ := u.UserMetadata[key].(string)
	return s
}

// SignUpResult is the outcome of SignUp. Session is nil when the provider
// requires email confirmation before the first sign-in.
type SignUpResult struct {
	User    *User
	Session *Session
}

// EventType names a session change.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is delivered to listeners registered with OnAuthStateChange.
// Session is nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

// Listener receives session-change events. Listeners run synchronously on
// the goroutine that caused the change and must not block.
type Listener func(Event)

// Provider is the identity provider boundary.
type Provider interface {
	// GetSession returns the current session, renewing it if expired.
	// It returns (nil, nil) when there is no session.
	GetSession(ctx context.Context) (*Session, error)

	// GetUser fetches the user record of the current session.
	GetUser(ctx context.Context) (*User, error)

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error)

	// SignOut ends the session remotely. Local state is cleared even when
	// the remote call fails.
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers l and returns an idempotent unsubscribe func.
	OnAuthStateChange(l Listener) (unsubscribe func())
}

// Error is a failure reported by the identity provider.
type Error struct {
	Op      string
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity %s: %d %s: %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity %s: %d: %s", e.Op, e.Status, e.Message)
}

// UserMessage returns the provider's message, which GoTrue writes for end users.
func (e *Error) UserMessage() string {
	return e.Message
}

// IsEmailNotConfirmed reports whether err says the account's email has not
// been confirmed yet.
func IsEmailNotConfirmed(err error) bool {
	if err == nil {
		return false
	}
	var idErr *Error
	if errors.As(err, &idErr) && idErr.Code == "email_not_confirmed" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "email not confirmed")
}
