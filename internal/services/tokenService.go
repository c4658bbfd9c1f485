package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/metrics"
	"github.com/DanzelOng/MarkDownMate/internal/repositories"
)

// TokenService issues password reset tokens and answers liveness checks for
// reset links. Consumption happens inside the password reset flow.
type TokenService interface {
	// Issue mails a reset link to email's verified account, reusing the live
	// token if one exists.
	Issue(ctx context.Context, email string) error
	// Status reports whether token is still live; expired and never-issued
	// tokens are indistinguishable.
	Status(ctx context.Context, token string) error
}

type tokenService struct {
	userRepo     repositories.UserRepository
	tokenRepo    repositories.TokenRepository
	emailService EmailService
}

func NewTokenService(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, emailService EmailService) TokenService {
	return &tokenService{userRepo: userRepo, tokenRepo: tokenRepo, emailService: emailService}
}

func (s *tokenService) Issue(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error finding user for reset token issuance")
		return apperrors.Internal()
	}
	// Password reset only applies to verified accounts.
	if user == nil || !user.IsVerified {
		return apperrors.NotFound("We were unable to find a user for this email address. Please sign up instead")
	}

	token, _, err := s.tokenRepo.FindOrCreate(ctx, user.ID, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error issuing reset token")
		return apperrors.Internal()
	}

	if err := s.emailService.SendPasswordReset(user.Email, user.Username, user.ID.Hex(), token.Token); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to dispatch password reset mail")
		return apperrors.Internal()
	}

	metrics.ResetTokensIssuedTotal.Inc()
	log.Info().Str("email", email).Msg("Password reset token dispatched")
	return nil
}

func (s *tokenService) Status(ctx context.Context, token string) error {
	rt, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Error checking reset token status")
		return apperrors.Internal()
	}
	if rt == nil {
		return apperrors.NotFound("The token has already expired. Please request a new token to reset your password.")
	}
	return nil
}
