// Package session owns the signed-in state of one workspace: who is logged
// in, which bearer token the API client should use, and whether a sign-in
// operation is running. It is kept consistent with the identity provider's
// own session and event stream.
package session

import (
	"strconv"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/identity"
)

// PlanTier is the subscription level of an account.
type PlanTier string

const (
	PlanFree       PlanTier = apiclient.PlanFree
	PlanBasic      PlanTier = apiclient.PlanBasic
	PlanPremium    PlanTier = apiclient.PlanPremium
	PlanEnterprise PlanTier = apiclient.PlanEnterprise
)

// ParsePlan maps a stored plan name to a tier. Unknown or empty names are free.
func ParsePlan(s string) PlanTier {
	switch p := PlanTier(s); p {
	case PlanBasic, PlanPremium, PlanEnterprise:
		return p
	default:
		return PlanFree
	}
}

// Identity describes the signed-in user.
type Identity struct {
	// ID is the provider's identifier, kept opaque.
	ID          string
	Email       string
	DisplayName string
	Verified    bool
	Plan        PlanTier
	CreatedAt   string
}

// State is a point-in-time copy of the session.
type State struct {
	Identity    *Identity
	AccessToken string
	IsLoading   bool
	LastError   string
}

// IsAuthenticated holds iff both an identity and a token are present.
func (s State) IsAuthenticated() bool {
	return s.Identity != nil && s.AccessToken != ""
}

func identityFromProvider(u *identity.User) *Identity {
	return &Identity{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.Metadata("full_name"),
		Verified:    u.Confirmed(),
		Plan:        ParsePlan(u.Metadata("plan")),
		CreatedAt:   u.CreatedAt,
	}
}

func identityFromAPI(u *apiclient.User) *Identity {
	return &Identity{
		ID:          strconv.FormatInt(u.ID, 10),
		Email:       u.Email,
		DisplayName: u.FullName,
		Verified:    u.IsVerified,
		Plan:        ParsePlan(u.Plan),
		CreatedAt:   u.CreatedAt,
	}
}
