package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetTokenTTL bounds how long a password reset link stays usable.
const ResetTokenTTL = 5 * time.Minute

// ResetToken authorizes exactly one password reset for UserID. Unique indexes
// on user_id and email keep at most one live token per account; repeated
// requests within the lifetime re-send the same token.
type ResetToken struct {
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Email     string             `json:"email" bson:"email"`
	Token     string             `json:"-" bson:"token"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
}

func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
