package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// UpgradePlan moves the account to a higher plan tier.
func (c *Client) UpgradePlan(ctx context.Context, targetPlan string) (*PlanUpgrade, error) {
	var out PlanUpgrade
	cl := call{
		method: http.MethodPost,
		route:  "/admin/account/upgrade-plan",
		path:   "/admin/account/upgrade-plan",
		query:  url.Values{"target_plan": {targetPlan}},
		body:   map[string]string{"target_plan": targetPlan},
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportAccountData returns the account export document as raw JSON.
func (c *Client) ExportAccountData(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, call{method: http.MethodGet, route: "/admin/account/export-data", path: "/admin/account/export-data"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountStats returns usage totals for the current month and all time.
func (c *Client) AccountStats(ctx context.Context) (*AccountStats, error) {
	var out AccountStats
	if err := c.do(ctx, call{method: http.MethodGet, route: "/admin/account/usage-stats", path: "/admin/account/usage-stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModelPricing lists model prices, optionally for one provider.
func (c *Client) ModelPricing(ctx context.Context, provider string) ([]ModelPricing, error) {
	var q url.Values
	if provider != "" {
		q = url.Values{"provider": {provider}}
	}
	var out []ModelPricing
	cl := call{method: http.MethodGet, route: "/admin/model-pricing", path: "/admin/model-pricing", query: q}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks the API's liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, call{method: http.MethodGet, route: "/health", path: "/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
