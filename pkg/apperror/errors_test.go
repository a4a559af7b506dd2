package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	t.Run("missing reason is a validation error", func(t *testing.T) {
		err := fmt.Errorf("submit review: %w", MissingReason())
		assert.True(t, errors.Is(err, ErrValidation))
		assert.True(t, errors.Is(err, ErrMissingReason))
	})

	t.Run("plain validation error is not a missing reason", func(t *testing.T) {
		err := Validation("bad", nil)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.False(t, errors.Is(err, ErrMissingReason))
	})

	t.Run("codes do not cross match", func(t *testing.T) {
		assert.False(t, errors.Is(StaleState("x"), ErrNotFound))
		assert.True(t, errors.Is(StaleState("x"), ErrStaleState))
		assert.True(t, errors.Is(RateLimited("x"), ErrRateLimited))
	})

	t.Run("store unavailable unwraps to cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := StoreUnavailable("insert", cause)
		assert.True(t, errors.Is(err, ErrStoreUnavailable))
		assert.ErrorIs(t, err, cause)
	})
}

func TestFrom(t *testing.T) {
	e := From(fmt.Errorf("wrapped: %w", NotFound("hilang")))
	assert.Equal(t, CodeNotFound, e.Code)
	assert.Equal(t, "hilang", e.Message)

	e = From(errors.New("boom"))
	assert.Equal(t, CodeInternal, e.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeValidation:          http.StatusBadRequest,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeForbidden:           http.StatusForbidden,
		CodeNotFound:            http.StatusNotFound,
		CodeConflict:            http.StatusConflict,
		CodeStaleState:          http.StatusConflict,
		CodeRateLimited:         http.StatusTooManyRequests,
		CodeStoreUnavailable:    http.StatusServiceUnavailable,
		CodeUpstreamUnavailable: http.StatusBadGateway,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}
