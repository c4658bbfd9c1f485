package middlewares

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/metrics"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

// Operation is a rate-limited operation class. Limits are keyed by client
// network identity, not by account, so pre-authentication abuse is throttled
// too.
type Operation struct {
	Name   string
	Window time.Duration
	Limit  int
	// Hint completes the sentence "Please try again after …" in 429 bodies.
	Hint string
}

var (
	OpGenerateEmailOTP   = Operation{Name: "generate-email-otp", Window: time.Minute, Limit: 5, Hint: "1 minute"}
	OpVerifyEmail        = Operation{Name: "verify-email", Window: time.Minute, Limit: 5, Hint: "1 minute"}
	OpGenerateResetToken = Operation{Name: "generate-reset-token", Window: time.Hour, Limit: 5, Hint: "1 hour"}
	OpResetPassword      = Operation{Name: "reset-password", Window: 5 * time.Minute, Limit: 5, Hint: "5 minutes"}
	OpUpdateCredentials  = Operation{Name: "update-credentials", Window: 15 * time.Minute, Limit: 10, Hint: "15 minutes"}
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per (operation, client) pair. The
// bucket holds the full window limit as burst and refills it spread across
// the window, so a burst exhausts the limit immediately and a full window
// must pass before the limit is available again. Traffic spaced wider than
// the refill interval is bounded by that rate, not by a hard per-window
// count.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	go rl.cleanupVisitors()
	return rl
}

// newRateLimiterWithClock is used by tests to drive time deterministically.
func newRateLimiterWithClock(now func() time.Time) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		now:      now,
	}
}

// Allow reports whether key may perform op right now and consumes one slot
// if so.
func (rl *RateLimiter) Allow(op Operation, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	mapKey := op.Name + "|" + key
	v, exists := rl.visitors[mapKey]
	if !exists {
		limiter := rate.NewLimiter(rate.Every(op.Window/time.Duration(op.Limit)), op.Limit)
		v = &visitor{limiter: limiter}
		rl.visitors[mapKey] = v
	}
	v.lastSeen = rl.now()

	return v.limiter.AllowN(rl.now(), 1)
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		rl.mu.Lock()
		for key, v := range rl.visitors {
			if time.Since(v.lastSeen) > 2*time.Hour {
				delete(rl.visitors, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit gates an endpoint with op's counter. The gate runs before any store
// or service work; a limited request touches nothing else.
func (rl *RateLimiter) Limit(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(op, utils.ClientIP(r)) {
				metrics.RateLimitedTotal.WithLabelValues(op.Name).Inc()
				utils.RespondWithError(w, apperrors.RateLimited(
					"You have sent out too many requests. Please try again after "+op.Hint+"."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
