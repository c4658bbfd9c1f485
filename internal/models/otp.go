package models

import "time"

// OTPTTL bounds how long an emailed verification code stays usable.
const OTPTTL = 5 * time.Minute

// OTP is a single-use email verification code. The unique index on email
// guarantees at most one live code per address; resend requests reuse the
// stored code instead of rotating it.
type OTP struct {
	Email     string    `json:"email" bson:"email"`
	Code      string    `json:"-" bson:"code"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the code is past its lifetime. Reads must treat an
// expired-but-not-yet-reaped document as absent.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
