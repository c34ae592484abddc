// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community is a geographically anchored group of users.
//
// Members is the authoritative membership set; User.JoinedCommunities
// mirrors it and is kept in lockstep by the membership coordinator.
type Community struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Members     []string           `bson:"members" json:"members"`
	Location    GeoPoint           `bson:"location" json:"location"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MemberSummary is the id/name pair returned by member listings.
type MemberSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
