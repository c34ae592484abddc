// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses. Ongoing is the initial state; Finished is terminal
// and is what makes the point payout idempotent.
const (
	EventOngoing  = "ongoing"
	EventFinished = "finished"
)

// Event is a time-boxed activity inside a community. Participants are
// community members at join time; the set is pruned whenever a
// participant's membership is removed (leave, account deletion, or
// community deletion).
type Event struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	CommunityID  primitive.ObjectID `bson:"community_id" json:"community_id"`
	Creator      string             `bson:"creator" json:"creator"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	StartTime    time.Time          `bson:"start_time" json:"start_time"`
	EndTime      time.Time          `bson:"end_time" json:"end_time"`
	Points       int                `bson:"points" json:"points"`
	Status       string             `bson:"status" json:"status"`
	Participants []string           `bson:"participants" json:"participants"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Ended reports whether the event's end time has passed at now.
func (e Event) Ended(now time.Time) bool {
	return now.After(e.EndTime)
}
