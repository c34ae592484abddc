package communitystore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aktivio/aktivio-server/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

// Create inserts a community with an empty member list.
func (s *Store) Create(ctx context.Context, c models.Community) (models.Community, error) {
	c.ID = primitive.NewObjectID()
	c.Members = []string{}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Community{}, err
	}
	return c, nil
}

// GetByID loads a community. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all communities, newest first.
func (s *Store) List(ctx context.Context) ([]models.Community, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Community
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIDs returns the communities with the given ids, newest first.
// Missing ids are silently skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Community, error) {
	if len(ids) == 0 {
		return []models.Community{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Community
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByID sets name, description, and location, returning the updated
// document. Member lists are never written here.
func (s *Store) UpdateByID(ctx context.Context, id primitive.ObjectID, name, description string, loc models.GeoPoint) (*models.Community, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Community
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":        name,
			"description": description,
			"location":    loc,
			"updated_at":  time.Now().UTC(),
		}},
		opts,
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteByID removes the community document only. Cascading content and
// membership cleanup is the coordinator's job.
func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddMember adds a user to the community's member list. $addToSet keeps
// the write idempotent.
func (s *Store) AddMember(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"members": userID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveMember removes a user from the community's member list.
func (s *Store) RemoveMember(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"members": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// HasMember reports whether the user appears in the community's member
// list.
func (s *Store) HasMember(ctx context.Context, id primitive.ObjectID, userID string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id, "members": userID}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
