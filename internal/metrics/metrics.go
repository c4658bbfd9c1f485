package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_signups_total",
		Help: "Total number of accepted signups.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts.",
	}, []string{"status"}) // status: "success", "failed" or "unverified"
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of OTP issue requests that dispatched a mail.",
	}, []string{"reused"})
	OTPVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verified_total",
		Help: "Total number of OTP verification attempts.",
	}, []string{"status"})
	ResetTokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_reset_tokens_issued_total",
		Help: "Total number of password reset tokens mailed out.",
	})
	PasswordResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_password_resets_total",
		Help: "Total number of completed password resets.",
	})
	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter.",
	}, []string{"operation"})
	DocumentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_documents_created_total",
		Help: "Total number of markdown documents created.",
	})
)
