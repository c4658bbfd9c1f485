package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
	"github.com/DanzelOng/MarkDownMate/internal/middlewares"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/services"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

type AuthHandler struct {
	authService    services.AuthService
	otpService     services.OTPService
	tokenService   services.TokenService
	sessionService services.SessionService
}

func NewAuthHandler(authService services.AuthService, otpService services.OTPService, tokenService services.TokenService, sessionService services.SessionService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		otpService:     otpService,
		tokenService:   tokenService,
		sessionService: sessionService,
	}
}

type authStatusResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
}

// Status reports whether the request carries a live verified session and
// rolls the session's idle timeout forward.
func (a *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.sessionService.CurrentUserID(r)
	if !ok {
		utils.RespondWithJSON(w, http.StatusUnauthorized, authStatusResponse{})
		return
	}

	user, err := a.authService.Profile(r.Context(), userID)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusUnauthorized, authStatusResponse{})
		return
	}

	if err := a.sessionService.Refresh(w, r); err != nil {
		log.Error().Err(err).Msg("Failed to refresh session")
	}

	utils.RespondWithJSON(w, http.StatusOK, authStatusResponse{
		IsAuthenticated: true,
		Username:        user.Username,
		Email:           user.Email,
	})
}

func (a *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		utils.RespondWithError(w, apperrors.ValidationFields(errs))
		return
	}

	if err := a.authService.Signup(r.Context(), &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, nil)
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		utils.RespondWithError(w, apperrors.ValidationFields(errs))
		return
	}

	user, err := a.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	if err := a.sessionService.Establish(w, r, user.ID.Hex()); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to establish session")
		utils.RespondWithError(w, apperrors.Internal())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, authStatusResponse{
		IsAuthenticated: true,
		Username:        user.Username,
		Email:           user.Email,
	})
}

func (a *AuthHandler) GenerateEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		utils.RespondWithError(w, apperrors.ValidationFields(errs))
		return
	}

	if err := a.otpService.Issue(r.Context(), req.Email); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

// VerifyEmail consumes the submitted code, marks the identity verified and
// establishes a session, so the client lands authenticated without a second
// login round-trip.
func (a *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["otp"]
	if !models.ValidOTP(code) {
		utils.RespondWithError(w, apperrors.ValidationFields(map[string]string{
			"otp": "Invalid OTP format",
		}))
		return
	}

	user, err := a.authService.VerifyEmail(r.Context(), code)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	if err := a.sessionService.Establish(w, r, user.ID.Hex()); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("Failed to establish session after verification")
		utils.RespondWithError(w, apperrors.Internal())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, authStatusResponse{
		IsAuthenticated: true,
		Username:        user.Username,
		Email:           user.Email,
	})
}

func (a *AuthHandler) GenerateResetToken(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		utils.RespondWithError(w, apperrors.ValidationFields(errs))
		return
	}

	if err := a.tokenService.Issue(r.Context(), req.Email); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

// TokenStatus lets the reset-link landing page decide whether to render the
// password form.
func (a *AuthHandler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.RespondWithError(w, apperrors.Validation("Token was not provided"))
		return
	}

	if err := a.tokenService.Status(r.Context(), token); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

func (a *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID := r.URL.Query().Get("id")
	if token == "" || userID == "" {
		utils.RespondWithError(w, apperrors.Validation("Token or id was not provided"))
		return
	}

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		utils.RespondWithError(w, apperrors.ValidationFields(errs))
		return
	}

	if err := a.authService.ResetPassword(r.Context(), token, userID, req.Password); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

func (a *AuthHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserIDFrom(r.Context())
	if !ok {
		utils.RespondWithError(w, apperrors.Unauthorized("Unauthorized access to endpoint"))
		return
	}

	var req models.CredentialsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, apperrors.Validation("Invalid request body"))
		return
	}

	if err := a.authService.UpdateCredentials(r.Context(), userID, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, nil)
}

// Logout destroys the session. Logging out twice is not an error.
func (a *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessionService.Destroy(w, r); err != nil {
		log.Error().Err(err).Msg("Failed to destroy session")
		utils.RespondWithError(w, apperrors.Internal())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, nil)
}
