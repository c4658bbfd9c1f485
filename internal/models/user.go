package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnverifiedTTL is how long a signup may stay unverified before the TTL
// index reaps it.
const UnverifiedTTL = 60 * time.Minute

// User is the single account record. Unverified signups live in the same
// collection with IsVerified=false and ExpiresAt set; verification flips the
// flag and unsets ExpiresAt, so verified accounts never expire and the flag
// never reverts.
type User struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username   string             `json:"username" bson:"username"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"`
	IsVerified bool               `json:"is_verified" bson:"is_verified"`
	ExpiresAt  *time.Time         `json:"-" bson:"expires_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}
