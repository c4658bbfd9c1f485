package services

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/metrics"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/repositories"
)

const bcryptCost = 10

const invalidCredentialsMsg = "Invalid credentials or user does not exists"

// AuthService is the authentication engine: account state transitions,
// credential checks and password resets. Session establishment is the
// caller's explicit step after a successful result, never a side effect
// buried in here.
type AuthService interface {
	// Signup creates an unverified account and dispatches its first OTP.
	Signup(ctx context.Context, req *models.SignupRequest) error
	// Authenticate checks username/password. Correct credentials on an
	// unverified account re-issue the OTP and fail with a verification
	// prompt; a session must never be established for an unverified
	// identity.
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	// VerifyEmail consumes the OTP and marks the identity verified. The
	// caller establishes a session for the returned user.
	VerifyEmail(ctx context.Context, code string) (*models.User, error)
	// ResetPassword consumes the reset token and stores the new password
	// hash. It does not log the user in.
	ResetPassword(ctx context.Context, token, userID, password string) error
	// UpdateCredentials changes username and/or password for an
	// authenticated user.
	UpdateCredentials(ctx context.Context, userID string, update *models.CredentialsUpdate) error
	// Profile resolves a session's user id to its verified account.
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	tokenRepo  repositories.TokenRepository
	otpService OTPService
	hostEmail  string
}

func NewAuthService(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, otpService OTPService) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		otpService: otpService,
		hostEmail:  os.Getenv("SMTP_USERNAME"),
	}
}

func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) error {
	usernameTaken, emailTaken, err := s.userRepo.FindConflicts(ctx, req.Username, req.Email)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Error checking signup conflicts")
		return apperrors.Internal()
	}

	// Report every violated field at once, not just the first.
	errMsgs := map[string]string{}
	if usernameTaken {
		errMsgs["username"] = "Username is already taken"
	}
	if emailTaken {
		errMsgs["email"] = "Email is already taken"
	}
	if s.hostEmail != "" && req.Email == s.hostEmail {
		errMsgs["email"] = "Unauthorized email address"
	}
	if len(errMsgs) > 0 {
		return apperrors.ConflictFields(errMsgs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during signup")
		return apperrors.Internal()
	}

	expiresAt := time.Now().Add(models.UnverifiedTTL)
	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   string(hash),
		IsVerified: false,
		ExpiresAt:  &expiresAt,
	}

	if _, err := s.userRepo.Create(ctx, user); err != nil {
		// The unique indexes caught a signup that raced past the conflict
		// scan; the loser sees the same conflict shape as the scan produces.
		if err == repositories.ErrDuplicate {
			return apperrors.ConflictFields(map[string]string{
				"username": "Username is already taken",
				"email":    "Email is already taken",
			})
		}
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to create unverified account")
		return apperrors.Internal()
	}

	if err := s.otpService.Issue(ctx, user.Email); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to issue OTP after signup")
		return apperrors.Internal()
	}

	metrics.SignupsTotal.Inc()
	log.Info().Str("user_id", user.ID.Hex()).Str("email", user.Email).Msg("Unverified account created")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Error finding user for login")
		return nil, apperrors.Internal()
	}
	// One generic message for unknown user and wrong password alike.
	if user == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		return nil, apperrors.Unauthorized(invalidCredentialsMsg)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		log.Warn().Str("username", username).Msg("Password mismatch during login attempt")
		return nil, apperrors.Unauthorized(invalidCredentialsMsg)
	}

	if !user.IsVerified {
		// Correct credentials, unfinished registration: re-send the OTP and
		// route the client to the verification screen instead of a session.
		if err := s.otpService.Issue(ctx, user.Email); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("Failed to re-issue OTP for unverified login")
		}
		metrics.LoginAttemptsTotal.WithLabelValues("unverified").Inc()
		return nil, apperrors.Unauthorized("Your email address has not been verified. We have sent a new verification code to your inbox.")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", user.ID.Hex()).Msg("User logged in successfully")
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, code string) (*models.User, error) {
	user, err := s.otpService.Verify(ctx, code)
	if err != nil {
		return nil, err
	}

	// The flag flip must durably complete before the caller establishes a
	// session for this identity.
	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to mark user as verified")
		return nil, apperrors.Internal()
	}
	user.IsVerified = true
	user.ExpiresAt = nil

	log.Info().Str("user_id", user.ID.Hex()).Msg("Email verified")
	return user, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, userID, password string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperrors.Validation("Invalid user id")
	}

	rt, err := s.tokenRepo.FindByToken(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Error finding reset token")
		return apperrors.Internal()
	}
	if rt == nil {
		return apperrors.NotFound("The token has already expired. Please request a new token to reset your password.")
	}

	// A live token presented with someone else's id must fail without
	// touching any password hash.
	if rt.UserID != uid {
		return apperrors.Unauthorized("This reset link does not belong to the requested account.")
	}

	consumed, err := s.tokenRepo.Consume(ctx, token, uid)
	if err != nil {
		log.Error().Err(err).Msg("Error consuming reset token")
		return apperrors.Internal()
	}
	if !consumed {
		return apperrors.NotFound("The token has already expired. Please request a new token to reset your password.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash new password")
		return apperrors.Internal()
	}

	if err := s.userRepo.Update(ctx, uid, bson.M{"password": string(hash)}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to store new password hash")
		return apperrors.Internal()
	}

	metrics.PasswordResetsTotal.Inc()
	log.Info().Str("user_id", userID).Msg("Password reset completed")
	return nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.User, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperrors.Unauthorized("Unauthorized access to endpoint")
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Error resolving session user")
		return nil, apperrors.Internal()
	}
	if user == nil || !user.IsVerified {
		return nil, apperrors.Unauthorized("Unauthorized access to endpoint")
	}
	return user, nil
}

func (s *authService) UpdateCredentials(ctx context.Context, userID string, update *models.CredentialsUpdate) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperrors.Unauthorized("Unauthorized access to endpoint")
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Error finding user for credentials update")
		return apperrors.Internal()
	}
	if user == nil {
		return apperrors.Unauthorized("We were unable to find a user")
	}

	update.Normalize()
	if update.Username == "" && update.PasswordConfirmation == "" && update.NewPassword == "" {
		return apperrors.Validation("No data was provided")
	}

	updateFields := bson.M{}

	if update.Username != "" {
		if len(update.Username) < 3 || len(update.Username) > 50 {
			return apperrors.ValidationFields(map[string]string{
				"username": "Name must be between 3 and 50 characters",
			})
		}
		if update.Username != user.Username {
			existing, err := s.userRepo.FindByUsername(ctx, update.Username)
			if err != nil {
				log.Error().Err(err).Msg("Error checking username availability")
				return apperrors.Internal()
			}
			if existing != nil {
				return apperrors.ConflictFields(map[string]string{
					"username": "This name is already taken",
				})
			}
			updateFields["username"] = update.Username
		}
	}

	if update.PasswordConfirmation != "" || update.NewPassword != "" {
		// A password change needs both the current and the new password;
		// name exactly the missing fields.
		missing := map[string]string{}
		if update.PasswordConfirmation == "" {
			missing["passwordConfirmation"] = "Please enter your current password"
		}
		if update.NewPassword == "" {
			missing["newPassword"] = "You did not enter a new password"
		}
		if len(missing) > 0 {
			return apperrors.ValidationFields(missing)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(update.PasswordConfirmation)); err != nil {
			return apperrors.ValidationFields(map[string]string{
				"passwordConfirmation": "Invalid password",
			})
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(update.NewPassword), bcryptCost)
		if err != nil {
			log.Error().Err(err).Msg("Failed to hash new password for credentials update")
			return apperrors.Internal()
		}
		updateFields["password"] = string(hash)
	}

	if len(updateFields) == 0 {
		return nil
	}

	if err := s.userRepo.Update(ctx, uid, updateFields); err != nil {
		if err == repositories.ErrDuplicate {
			return apperrors.ConflictFields(map[string]string{
				"username": "This name is already taken",
			})
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update credentials")
		return apperrors.Internal()
	}

	log.Info().Str("user_id", userID).Msg("Credentials updated")
	return nil
}
