package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(data []byte) (int, error) {
	if rec.statusCode == 0 {
		rec.statusCode = http.StatusOK
	}
	return rec.ResponseWriter.Write(data)
}

// PrometheusMiddleware records request counts and durations.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.statusCode == 0 {
			rec.statusCode = http.StatusOK
		}
		status := strconv.Itoa(rec.statusCode)
		utils.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		utils.HTTPRequestDurationSeconds.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}
