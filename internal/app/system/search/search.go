// internal/app/system/search/search.go
//
// Community discovery runs against a denormalized side collection
// (community_index) rather than the communities collection itself, so the
// searchable projection can evolve without touching the source of truth.
// Index writes are best-effort; callers log and continue on failure.
package search

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// earthRadiusMeters converts a radius in meters to radians for
// $centerSphere.
const earthRadiusMeters = 6378137.0

// Document is the searchable projection of a community.
type Document struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Location    models.GeoPoint    `bson:"location" json:"location"`
}

// Index maintains and queries the community search collection.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Search(ctx context.Context, query string, lat, lng, radiusMeters float64) ([]Document, error)
}

// Mongo is the production Index over the community_index collection.
type Mongo struct {
	c *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{c: db.Collection("community_index")}
}

func (m *Mongo) Upsert(ctx context.Context, doc Document) error {
	_, err := m.c.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("search: upsert %s: %w", doc.ID.Hex(), err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("search: delete %s: %w", id.Hex(), err)
	}
	return nil
}

// Search returns communities within radiusMeters of (lat, lng), optionally
// constrained by a full-text query over name and description. Results with
// a text query come back relevance-ranked.
func (m *Mongo) Search(ctx context.Context, query string, lat, lng, radiusMeters float64) ([]Document, error) {
	filter := bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{lng, lat}, // GeoJSON order: [longitude, latitude]
					radiusMeters / earthRadiusMeters,
				},
			},
		},
	}

	opts := options.Find()
	if query != "" {
		filter["$text"] = bson.M{"$search": query}
		opts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
		opts.SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	}

	cur, err := m.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer cur.Close(ctx)

	var docs []Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}
	return docs, nil
}

var _ Index = (*Mongo)(nil)
