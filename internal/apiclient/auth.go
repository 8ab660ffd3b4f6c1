package apiclient

import (
	"context"
	"net/http"
)

// Login exchanges credentials for an access token. The caller decides
// where the token is stored.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: "/auth/login", path: "/auth/login", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account through the API.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: "/auth/register", path: "/auth/register", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser returns the account the bearer token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodGet, route: "/auth/me", path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes the account's profile fields and returns the result.
func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodPut, route: "/auth/me", path: "/auth/me", body: upd}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken asks the API to validate the current bearer token.
func (c *Client) VerifyToken(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodPost, route: "/auth/verify-token", path: "/auth/verify-token"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SelectPlan records the plan chosen after registration.
func (c *Client) SelectPlan(ctx context.Context, plan string) (*PlanSelection, error) {
	var out PlanSelection
	body := map[string]string{"plan": plan}
	if err := c.do(ctx, call{method: http.MethodPost, route: "/auth/select-plan", path: "/auth/select-plan", body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
