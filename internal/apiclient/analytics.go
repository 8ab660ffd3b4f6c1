package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPeriodDays is the analytics window used when callers pass zero.
const DefaultPeriodDays = 30

// UsageAnalytics returns usage totals and breakdowns for the last periodDays days.
func (c *Client) UsageAnalytics(ctx context.Context, periodDays int) (*AnalyticsResponse, error) {
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}
	var out AnalyticsResponse
	cl := call{
		method: http.MethodGet,
		route:  "/analytics/usage-summary",
		path:   "/analytics/usage-summary",
		query:  url.Values{"period_days": {strconv.Itoa(periodDays)}},
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BudgetStatus returns spend against each active budget.
func (c *Client) BudgetStatus(ctx context.Context) ([]BudgetStatus, error) {
	var out []BudgetStatus
	if err := c.do(ctx, call{method: http.MethodGet, route: "/analytics/budget-status", path: "/analytics/budget-status"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recommendations returns cost-saving suggestions.
func (c *Client) Recommendations(ctx context.Context) (*RecommendationsResponse, error) {
	var out RecommendationsResponse
	if err := c.do(ctx, call{method: http.MethodGet, route: "/analytics/recommendations", path: "/analytics/recommendations"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CostComparison estimates the cost of a request shape across models.
// providers is a comma-separated list; empty lets the API choose.
func (c *Client) CostComparison(ctx context.Context, promptTokens, completionTokens int, providers string) (CostComparison, error) {
	q := url.Values{
		"prompt_tokens":     {strconv.Itoa(promptTokens)},
		"completion_tokens": {strconv.Itoa(completionTokens)},
	}
	if providers != "" {
		q.Set("providers", providers)
	}
	var out CostComparison
	cl := call{method: http.MethodGet, route: "/analytics/cost-comparison", path: "/analytics/cost-comparison", query: q}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UsageTrends returns daily usage and the recent cost direction.
func (c *Client) UsageTrends(ctx context.Context, days int) (*UsageTrends, error) {
	if days <= 0 {
		days = DefaultPeriodDays
	}
	var out UsageTrends
	cl := call{
		method: http.MethodGet,
		route:  "/analytics/usage-trends",
		path:   "/analytics/usage-trends",
		query:  url.Values{"days": {strconv.Itoa(days)}},
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
