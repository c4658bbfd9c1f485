package utils

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
)

// trustProxy gates X-Forwarded-For handling. Without it a client hitting the
// server directly could rotate the header per request and sidestep the rate
// limiter.
var trustProxy = os.Getenv("TRUST_PROXY") == "true"

// errorEnvelope is the wire shape of every error response. ErrorMsgs is
// either a single string or a field-to-message map.
type errorEnvelope struct {
	Type      string `json:"type"`
	ErrorMsgs any    `json:"errorMsgs"`
}

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// RespondWithError renders err in the `{type, errorMsgs}` envelope. Unknown
// errors collapse to a generic 500 without leaking detail.
func RespondWithError(w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)
	env := errorEnvelope{Type: appErr.Type()}
	if len(appErr.Fields) > 0 {
		env.ErrorMsgs = appErr.Fields
	} else {
		env.ErrorMsgs = appErr.Msg
	}
	RespondWithJSON(w, appErr.Status(), env)
}

// ClientIP returns the requester's network identity for rate limiting. The
// transport-level address is authoritative; X-Forwarded-For is honored only
// when TRUST_PROXY is set, and then the first hop wins.
func ClientIP(r *http.Request) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			return strings.TrimSpace(fwd)
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
