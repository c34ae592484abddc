// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is content published inside a community. CommunityID and Author
// must reference live documents; the cascade delete protocol removes
// posts when either side goes away.
type Post struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	CommunityID primitive.ObjectID `bson:"community_id" json:"community_id"`
	Author      string             `bson:"author" json:"author"`
	Title       string             `bson:"title" json:"title"`
	Content     string             `bson:"content" json:"content"`
	ImagePaths  []string           `bson:"image_paths,omitempty" json:"-"`

	// CreatedKey is CreatedAt rendered as a fixed-width UTC timestamp;
	// lexicographic order on it matches feed order.
	CreatedKey string `bson:"created_key" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PostCreatedKey renders t as the value stored in Post.CreatedKey.
// The layout is fixed width so nanosecond precision survives intact.
func PostCreatedKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
