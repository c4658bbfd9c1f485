package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Markdown is a user-owned text document.
type Markdown struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"-" bson:"user_id"`
	FileName  string             `json:"file_name" bson:"file_name"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
