package models

import (
	"net/mail"
	"regexp"
	"strings"
)

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// SignupRequest is the payload for POST /api/v1/auth/signup.
type SignupRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// Normalize trims all fields and lowercases the email.
func (r *SignupRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Password = strings.TrimSpace(r.Password)
	r.PasswordConfirmation = strings.TrimSpace(r.PasswordConfirmation)
}

// Validate returns a field-to-message map; an empty map means the payload is
// acceptable.
func (r *SignupRequest) Validate() map[string]string {
	r.Normalize()
	errs := map[string]string{}
	validateUsername(r.Username, errs)
	validateEmail(r.Email, errs)
	validatePassword(r.Password, errs)
	switch {
	case r.PasswordConfirmation == "":
		errs["passwordConfirmation"] = "Please enter your password confirmation"
	case r.PasswordConfirmation != r.Password:
		errs["passwordConfirmation"] = "Passwords do not match"
	}
	return errs
}

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() map[string]string {
	r.Username = strings.TrimSpace(r.Username)
	r.Password = strings.TrimSpace(r.Password)
	errs := map[string]string{}
	validateUsername(r.Username, errs)
	validatePassword(r.Password, errs)
	return errs
}

// EmailRequest carries the address for OTP and reset-token issuance.
type EmailRequest struct {
	Email string `json:"email"`
}

func (r *EmailRequest) Validate() map[string]string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	errs := map[string]string{}
	validateEmail(r.Email, errs)
	return errs
}

// ResetPasswordRequest is the payload for PATCH /api/v1/auth/reset-password.
type ResetPasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (r *ResetPasswordRequest) Validate() map[string]string {
	r.Password = strings.TrimSpace(r.Password)
	r.PasswordConfirmation = strings.TrimSpace(r.PasswordConfirmation)
	errs := map[string]string{}
	validatePassword(r.Password, errs)
	switch {
	case r.PasswordConfirmation == "":
		errs["passwordConfirmation"] = "Please enter your password confirmation"
	case r.PasswordConfirmation != r.Password:
		errs["passwordConfirmation"] = "Passwords do not match"
	}
	return errs
}

// CredentialsUpdate is the payload for POST /api/v1/auth/update-credentials.
// All fields are optional but at least one must be present; a password change
// requires both the current password (PasswordConfirmation) and NewPassword.
type CredentialsUpdate struct {
	Username             string `json:"username,omitempty"`
	PasswordConfirmation string `json:"passwordConfirmation,omitempty"`
	NewPassword          string `json:"newPassword,omitempty"`
}

func (r *CredentialsUpdate) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.PasswordConfirmation = strings.TrimSpace(r.PasswordConfirmation)
	r.NewPassword = strings.TrimSpace(r.NewPassword)
}

// ValidOTP reports whether s is a well-formed 6 digit code.
func ValidOTP(s string) bool {
	return otpPattern.MatchString(strings.TrimSpace(s))
}

func validateUsername(username string, errs map[string]string) {
	switch {
	case username == "":
		errs["username"] = "A name is required"
	case len(username) < 3 || len(username) > 50:
		errs["username"] = "Name must be between 3 and 50 characters"
	}
}

func validateEmail(email string, errs map[string]string) {
	if email == "" {
		errs["email"] = "An email is required"
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Invalid email format"
	}
}

func validatePassword(password string, errs map[string]string) {
	switch {
	case password == "":
		errs["password"] = "A password is required"
	case len(password) < 3 || len(password) > 50:
		errs["password"] = "Password must be between 3 and 50 characters"
	}
}
