package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TypeReview marks notifications produced by an application review.
const TypeReview = "review"

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Title         string             `bson:"title" json:"title"`
	Message       string             `bson:"message" json:"message"`
	Type          string             `bson:"type" json:"type"`
	ApplicationID string             `bson:"application_id,omitempty" json:"application_id,omitempty"`
	Read          bool               `bson:"read" json:"read"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	ReadAt        *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
}
