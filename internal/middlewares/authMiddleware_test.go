package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanzelOng/MarkDownMate/internal/services"
)

func TestAuthMiddleware(t *testing.T) {
	sessionService := services.NewSessionServiceWithStore(sessions.NewCookieStore([]byte("test-session-key")))
	middleware := NewAuthMiddleware(sessionService)

	var gotUserID string
	var gotOK bool
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = UserIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("rejects requests without a session", func(t *testing.T) {
		gotOK = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, gotOK)

		var body struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Unauthorized Error", body.Type)
	})

	t.Run("attaches the session's user id to the context", func(t *testing.T) {
		loginRec := httptest.NewRecorder()
		loginReq := httptest.NewRequest(http.MethodPost, "/login", nil)
		require.NoError(t, sessionService.Establish(loginRec, loginReq, "user-123"))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		for _, c := range loginRec.Result().Cookies() {
			req.AddCookie(c)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotOK)
		assert.Equal(t, "user-123", gotUserID)
	})
}
