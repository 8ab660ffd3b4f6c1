// Package apikeys manages the AI provider keys stored by the cost API:
// listing, adding and deleting them. The key material itself is write-only;
// the API never returns it.
package apikeys

import (
	"strings"

	"github.com/keyxmakerx/costpilot/internal/apiclient"
	"github.com/keyxmakerx/costpilot/internal/validate"
)

// AddKeyRequest is the add-key form.
type AddKeyRequest struct {
	Name     string `form:"name"`
	Provider string `form:"provider"`
	APIKey   string `form:"api_key"`
}

// normalize trims the free-text fields. The key is trimmed as well since a
// pasted key with a trailing newline would be rejected by the provider.
func (r *AddKeyRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Provider = strings.TrimSpace(r.Provider)
	r.APIKey = strings.TrimSpace(r.APIKey)
}

// validateAddKey checks that every field is present and the provider is known.
func validateAddKey(r *AddKeyRequest) validate.Errors {
	errs := validate.Errors{}
	errs.Required("name", r.Name, "Name is required")
	errs.Required("provider", r.Provider, "Provider is required")
	errs.Required("api_key", r.APIKey, "API key is required")
	if r.Provider != "" {
		errs.OneOf("provider", r.Provider, apiclient.Providers, "Unknown provider")
	}
	return errs
}

func (r AddKeyRequest) toAPI() apiclient.APIKeyCreate {
	return apiclient.APIKeyCreate{
		Name:     r.Name,
		Provider: r.Provider,
		APIKey:   r.APIKey,
	}
}
