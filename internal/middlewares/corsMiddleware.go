package middlewares

import (
	"net/http"
	"os"
	"strings"
)

// NewCorsMiddleware allows the configured client origins with credentials,
// since the session rides on a cookie.
func NewCorsMiddleware() func(http.Handler) http.Handler {
	var allowedOrigins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			for _, allowed := range allowedOrigins {
				if allowed == origin {
					w.Header().Set("Access-Control-Allow-Origin", allowed)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
					w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					break
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
