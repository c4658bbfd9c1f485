package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/middlewares"
	"github.com/DanzelOng/MarkDownMate/internal/repositories"
	"github.com/DanzelOng/MarkDownMate/internal/services"
)

type Server struct {
	port            int
	httpServer      *http.Server
	db              database.Service
	rateLimiter     *middlewares.RateLimiter
	authService     services.AuthService
	otpService      services.OTPService
	tokenService    services.TokenService
	sessionService  services.SessionService
	markdownService services.MarkdownService
}

func NewServer() *Server {
	portStr := os.Getenv("PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Warn().Str("port", portStr).Msg("Invalid PORT environment variable. Using default 8080.")
		port = 8080
	}

	db := database.New()

	userRepo := repositories.NewUserRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	markdownRepo := repositories.NewMarkdownRepository(db)

	emailService := services.NewEmailService()
	otpService := services.NewOTPService(userRepo, otpRepo, emailService)
	tokenService := services.NewTokenService(userRepo, tokenRepo, emailService)

	go runArtifactReaper(otpRepo, tokenRepo)

	s := &Server{
		port:            port,
		db:              db,
		rateLimiter:     middlewares.NewRateLimiter(),
		authService:     services.NewAuthService(userRepo, tokenRepo, otpService),
		otpService:      otpService,
		tokenService:    tokenService,
		sessionService:  services.NewSessionService(),
		markdownService: services.NewMarkdownService(markdownRepo),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

const artifactReapInterval = 10 * time.Minute

// runArtifactReaper periodically deletes expired OTPs and reset tokens. The
// Mongo TTL monitor reaps them too, but only on its own schedule; reads must
// still filter on expires_at either way.
func runArtifactReaper(otpRepo repositories.OTPRepository, tokenRepo repositories.TokenRepository) {
	for range time.Tick(artifactReapInterval) {
		reapExpiredArtifacts(context.Background(), otpRepo, tokenRepo)
	}
}

func reapExpiredArtifacts(ctx context.Context, otpRepo repositories.OTPRepository, tokenRepo repositories.TokenRepository) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := otpRepo.DeleteExpired(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to delete expired OTPs")
	}
	if err := tokenRepo.DeleteExpired(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to delete expired reset tokens")
	}
}

func (s *Server) Start() error {
	log.Info().Int("port", s.port).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
