package apiclient

import (
	"context"
	"net/http"
	"strconv"
)

// BudgetSettings lists the account's budgets.
func (c *Client) BudgetSettings(ctx context.Context) ([]BudgetSetting, error) {
	var out []BudgetSetting
	if err := c.do(ctx, call{method: http.MethodGet, route: "/admin/budget-settings", path: "/admin/budget-settings"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBudgetSetting adds a budget.
func (c *Client) CreateBudgetSetting(ctx context.Context, b BudgetCreate) (*BudgetSetting, error) {
	var out BudgetSetting
	if err := c.do(ctx, call{method: http.MethodPost, route: "/admin/budget-settings", path: "/admin/budget-settings", body: b}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBudgetSetting changes an existing budget.
func (c *Client) UpdateBudgetSetting(ctx context.Context, id int64, b BudgetCreate) (*BudgetSetting, error) {
	var out BudgetSetting
	cl := call{
		method: http.MethodPut,
		route:  "/admin/budget-settings/{id}",
		path:   "/admin/budget-settings/" + strconv.FormatInt(id, 10),
		body:   b,
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBudgetSetting removes a budget.
func (c *Client) DeleteBudgetSetting(ctx context.Context, id int64) (*MessageResponse, error) {
	var out MessageResponse
	cl := call{
		method: http.MethodDelete,
		route:  "/admin/budget-settings/{id}",
		path:   "/admin/budget-settings/" + strconv.FormatInt(id, 10),
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
