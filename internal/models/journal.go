package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Journal represents a private journaling entry, scoped by the owner's email
type Journal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OwnerEmail string             `bson:"userEmail" json:"ownerEmail"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content" json:"content"`
	Mood       string             `bson:"mood,omitempty" json:"mood,omitempty"` // e.g. Happy, Sad, Relaxed
	ImageURL   string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`

	// Encrypted marks content stored as ciphertext; never sent to clients.
	Encrypted bool `bson:"encrypted,omitempty" json:"-"`
}
