package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type boundaryErr struct{ msg string }

func (e *boundaryErr) Error() string       { return "boundary: " + e.msg }
func (e *boundaryErr) UserMessage() string { return e.msg }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", NewConflict("already exists"), "already exists"},
		{"wrapped app error", fmt.Errorf("adding key: %w", NewBadRequest("bad key")), "bad key"},
		{"boundary error", &boundaryErr{msg: "Invalid login credentials"}, "Invalid login credentials"},
		{"boundary error without message", &boundaryErr{}, "fallback"},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), "The request timed out. Please try again."},
		{"canceled", context.Canceled, "The request was cancelled."},
		{"plain error", errors.New("dial tcp: connection refused"), "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.err, "fallback"))
		})
	}
}

func TestSafeMessageAndCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewUpstream("Cost API unavailable", errors.New("503")))

	assert.Equal(t, "Cost API unavailable", SafeMessage(err))
	assert.Equal(t, http.StatusBadGateway, SafeCode(err))

	plain := errors.New("boom")
	assert.Equal(t, "an unexpected error occurred", SafeMessage(plain))
	assert.Equal(t, http.StatusInternalServerError, SafeCode(plain))
}

func TestWithInternal_DoesNotMutateOriginal(t *testing.T) {
	base := NewInProgress()
	cause := errors.New("login pending")

	wrapped := base.WithInternal(cause)

	assert.Nil(t, base.Internal)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "operation_in_progress", wrapped.Type)
}
