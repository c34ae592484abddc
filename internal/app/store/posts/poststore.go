package poststore

import (
	"context"
	"maps"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("posts")}
}

// Create inserts a post.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	p.ID = primitive.NewObjectID()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.CreatedKey = models.PostCreatedKey(now)

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// GetByID loads a post. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCommunity returns the community's feed, newest first. A nil
// cursor fetches the first page; otherwise results strictly follow the
// cursor's (created_key, _id) position in feed order.
func (s *Store) ListByCommunity(ctx context.Context, communityID primitive.ObjectID, limit int64, cur *wafflemongo.Cursor) ([]models.Post, error) {
	filter := bson.M{"community_id": communityID}
	if cur != nil {
		maps.Copy(filter, wafflemongo.KeysetWindow("created_key", "lt", cur.CI, cur.ID))
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_key", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	mcur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer mcur.Close(ctx)

	var out []models.Post
	if err := mcur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByAuthor returns every post the user wrote, newest first.
func (s *Store) ListByAuthor(ctx context.Context, author string) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"author": author}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update sets title and content, returning the updated document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, title, content string) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Post
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"title":      title,
			"content":    content,
			"updated_at": time.Now().UTC(),
		}},
		opts,
	).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddImagePath appends a stored image key to the post.
func (s *Store) AddImagePath(ctx context.Context, id primitive.ObjectID, path string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"image_paths": path},
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

// DeleteByID removes one post.
func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCommunity removes every post in a community. Used by the
// community cascade delete.
func (s *Store) DeleteByCommunity(ctx context.Context, communityID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"community_id": communityID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAuthor removes every post the user wrote. Used by the account
// cascade delete.
func (s *Store) DeleteByAuthor(ctx context.Context, author string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"author": author})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
