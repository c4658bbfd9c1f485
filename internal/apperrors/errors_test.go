package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeAndStatus(t *testing.T) {
	cases := []struct {
		err      *Error
		wantType string
		wantCode int
	}{
		{Validation("bad input"), "Bad Request Error", http.StatusBadRequest},
		{Conflict("taken"), "Conflict Error", http.StatusConflict},
		{Unauthorized("nope"), "Unauthorized Error", http.StatusUnauthorized},
		{NotFound("gone"), "Resource Not Found Error", http.StatusNotFound},
		{RateLimited("slow down"), "Exceed Requests Error", http.StatusTooManyRequests},
		{Internal(), "Internal Server Error", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.wantType, tc.err.Type())
		assert.Equal(t, tc.wantCode, tc.err.Status())
	}
}

func TestFieldErrors(t *testing.T) {
	err := ValidationFields(map[string]string{"email": "An email is required"})
	assert.Equal(t, "An email is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.Status())

	err = ConflictFields(map[string]string{"username": "Username is already taken"})
	assert.Equal(t, http.StatusConflict, err.Status())
	assert.Contains(t, err.Fields, "username")
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("gone"))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestFrom(t *testing.T) {
	orig := Unauthorized("nope")
	assert.Equal(t, orig, From(fmt.Errorf("wrapped: %w", orig)))

	// unknown errors collapse to the generic 500
	got := From(errors.New("mongo: connection reset"))
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "Internal Server Error", got.Msg)
}
