package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReminderStatusActive = "Active"
	ReminderStatusTaken  = "Taken"

	RepeatDaily = "daily"
)

// Reminder is a medicine reminder. Time is "HH:MM" in the dispatcher's configured zone.
// JSON names follow the web client (email, time, repeat, date).
type Reminder struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OwnerEmail string             `bson:"email" json:"email"`
	Medicine   string             `bson:"medicine" json:"medicine"`
	TimeOfDay  string             `bson:"time" json:"time"`
	Dosage     string             `bson:"dosage,omitempty" json:"dosage,omitempty"`
	RepeatRule string             `bson:"repeat" json:"repeat"` // stored only; the dispatcher ignores it
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"date" json:"date"`
}

// IsActive reports whether the reminder is eligible for dispatch.
func (r Reminder) IsActive() bool {
	return r.Status == ReminderStatusActive
}
