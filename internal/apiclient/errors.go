package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/keyxmakerx/costpilot/internal/apperror"
	"github.com/keyxmakerx/costpilot/internal/sanitize"
)

// APIError is a non-2xx response from the cost API.
type APIError struct {
	Status   int
	Endpoint string

	// Detail is the sanitized "detail" field of the error body, if any.
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// UserMessage returns the server's detail, or a generic message for the
// status class when the server sent none.
func (e *APIError) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch {
	case e.Status == http.StatusUnauthorized:
		return "Your session has expired. Please sign in again."
	case e.Status == http.StatusForbidden:
		return "You do not have access to this resource."
	case e.Status == http.StatusNotFound:
		return "The requested resource was not found."
	case e.Status == http.StatusTooManyRequests:
		return "Too many requests. Please slow down and try again."
	case e.Status >= 500:
		return "The service is temporarily unavailable. Please try again."
	default:
		return ""
	}
}

// IsUnauthorized reports whether err is a 401 response from the API.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// AsAppError converts a client error into an AppError carrying a
// normalized message. 401 stays 401 so the error handler can redirect to
// the login page; other 4xx keep their status; everything else is a 502.
func AsAppError(err error, fallback string) *apperror.AppError {
	msg := apperror.Normalize(err, fallback)
	status := StatusOf(err)
	switch {
	case status == http.StatusUnauthorized:
		return apperror.NewUnauthorized(msg).WithInternal(err)
	case status >= 400 && status < 500:
		return &apperror.AppError{Code: status, Type: "request_rejected", Message: msg, Internal: err}
	default:
		return apperror.NewUpstream(msg, err)
	}
}

// readAPIError builds an APIError from a failed response. The body is
// expected to look like {"detail": "..."} or, for validation failures,
// {"detail": [{"msg": "..."}, ...]}.
func readAPIError(resp *http.Response, endpoint string) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Endpoint: endpoint}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	apiErr.Detail = sanitize.Message(detailText(body.Detail))
	if apiErr.Detail == "" {
		apiErr.Detail = sanitize.Message(body.Message)
	}
	return apiErr
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
