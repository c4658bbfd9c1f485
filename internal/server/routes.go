package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DanzelOng/MarkDownMate/internal/handlers"
	"github.com/DanzelOng/MarkDownMate/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	r.Use(middlewares.NewCorsMiddleware())
	r.Use(middlewares.PrometheusMiddleware)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/health", ch.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	s.registerAuthRoutes(r)
	s.registerMarkdownRoutes(r)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	ah := handlers.NewAuthHandler(s.authService, s.otpService, s.tokenService, s.sessionService)
	requireAuth := middlewares.NewAuthMiddleware(s.sessionService)
	limit := s.rateLimiter.Limit

	r.HandleFunc("/api/v1/auth/status", ah.Status).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/v1/auth/signup", ah.Signup).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/auth/login", ah.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/auth/logout", ah.Logout).Methods("DELETE", "OPTIONS")

	r.Handle("/api/v1/auth/generate-email-otp",
		limit(middlewares.OpGenerateEmailOTP)(http.HandlerFunc(ah.GenerateEmailOTP))).Methods("POST", "OPTIONS")
	r.Handle("/api/v1/auth/verify-email/{otp}",
		limit(middlewares.OpVerifyEmail)(http.HandlerFunc(ah.VerifyEmail))).Methods("POST", "OPTIONS")
	r.Handle("/api/v1/auth/generate-reset-token",
		limit(middlewares.OpGenerateResetToken)(http.HandlerFunc(ah.GenerateResetToken))).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/v1/auth/token-status", ah.TokenStatus).Methods("GET", "OPTIONS")
	r.Handle("/api/v1/auth/reset-password",
		limit(middlewares.OpResetPassword)(http.HandlerFunc(ah.ResetPassword))).Methods("PATCH", "OPTIONS")
	r.Handle("/api/v1/auth/update-credentials",
		limit(middlewares.OpUpdateCredentials)(requireAuth(http.HandlerFunc(ah.UpdateCredentials)))).Methods("POST", "OPTIONS")
}

func (s *Server) registerMarkdownRoutes(r *mux.Router) {
	mh := handlers.NewMarkdownHandler(s.markdownService)
	requireAuth := middlewares.NewAuthMiddleware(s.sessionService)

	r.Handle("/api/v1/markdown", requireAuth(http.HandlerFunc(mh.GetDocuments))).Methods("GET", "OPTIONS")
	r.Handle("/api/v1/markdown", requireAuth(http.HandlerFunc(mh.CreateDocument))).Methods("POST", "OPTIONS")
	r.Handle("/api/v1/markdown/{id}", requireAuth(http.HandlerFunc(mh.RenameDocument))).Methods("PATCH", "OPTIONS")
	r.Handle("/api/v1/markdown/{id}", requireAuth(http.HandlerFunc(mh.SaveDocument))).Methods("PUT", "OPTIONS")
	r.Handle("/api/v1/markdown/{id}", requireAuth(http.HandlerFunc(mh.DeleteDocument))).Methods("DELETE", "OPTIONS")
	r.Handle("/api/v1/markdown/{id}/download", requireAuth(http.HandlerFunc(mh.DownloadDocument))).Methods("GET", "OPTIONS")
}
