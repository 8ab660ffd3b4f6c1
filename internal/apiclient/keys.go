package apiclient

import (
	"context"
	"net/http"
	"strconv"
)

// APIKeys lists the provider keys stored for the account.
func (c *Client) APIKeys(ctx context.Context) ([]APIKey, error) {
	var out []APIKey
	if err := c.do(ctx, call{method: http.MethodGet, route: "/proxy/api-keys", path: "/proxy/api-keys"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAPIKey stores a provider key. The API replaces an existing key with
// the same name and provider.
func (c *Client) AddAPIKey(ctx context.Context, key APIKeyCreate) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: "/proxy/api-keys", path: "/proxy/api-keys", body: key}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAPIKey removes a stored provider key.
func (c *Client) DeleteAPIKey(ctx context.Context, id int64) (*MessageResponse, error) {
	var out MessageResponse
	cl := call{
		method: http.MethodDelete,
		route:  "/proxy/api-keys/{id}",
		path:   "/proxy/api-keys/" + strconv.FormatInt(id, 10),
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
