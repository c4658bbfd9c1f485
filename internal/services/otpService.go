package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/metrics"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/repositories"
)

// OTPService issues and retires email verification codes.
type OTPService interface {
	// Issue mails the live OTP for email, minting one only if none exists.
	// Repeated requests within the code's lifetime re-send the same code.
	Issue(ctx context.Context, email string) error
	// Verify consumes the live OTP matching code and returns the identity it
	// was issued for. A code verifies at most once.
	Verify(ctx context.Context, code string) (*models.User, error)
}

type otpService struct {
	userRepo     repositories.UserRepository
	otpRepo      repositories.OTPRepository
	emailService EmailService
}

func NewOTPService(userRepo repositories.UserRepository, otpRepo repositories.OTPRepository, emailService EmailService) OTPService {
	return &otpService{userRepo: userRepo, otpRepo: otpRepo, emailService: emailService}
}

func (s *otpService) Issue(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error finding user for OTP issuance")
		return apperrors.Internal()
	}
	// A verified account has no pending registration; same response as an
	// unknown address so the endpoint discloses nothing about account state.
	if user == nil || user.IsVerified {
		return apperrors.Validation("We were unable to find a user for this email address. Please sign up instead")
	}

	otp, created, err := s.otpRepo.FindOrCreate(ctx, email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error issuing OTP")
		return apperrors.Internal()
	}

	if err := s.emailService.SendOTPVerification(user.Email, user.Username, otp.Code); err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to dispatch OTP verification mail")
		return apperrors.Internal()
	}

	reused := "true"
	if created {
		reused = "false"
	}
	metrics.OTPIssuedTotal.WithLabelValues(reused).Inc()
	log.Info().Str("email", email).Bool("reused", !created).Msg("OTP dispatched")
	return nil
}

func (s *otpService) Verify(ctx context.Context, code string) (*models.User, error) {
	otp, err := s.otpRepo.ConsumeByCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("Error consuming OTP")
		return nil, apperrors.Internal()
	}
	// Expired and never-issued codes fail identically.
	if otp == nil {
		metrics.OTPVerifiedTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.Validation("Invalid OTP")
	}

	user, err := s.userRepo.FindByEmail(ctx, otp.Email)
	if err != nil {
		log.Error().Err(err).Str("email", otp.Email).Msg("Error finding user for OTP verification")
		return nil, apperrors.Internal()
	}
	if user == nil {
		metrics.OTPVerifiedTotal.WithLabelValues("orphaned").Inc()
		return nil, apperrors.Unauthorized("We were unable to find a user for this verification. Please sign up instead")
	}

	metrics.OTPVerifiedTotal.WithLabelValues("success").Inc()
	return user, nil
}
