package sportplanstore

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
	return &Store{c: db.Collection("sport_plans")}
}

// Create inserts a plan template into the catalog.
func (s *Store) Create(ctx context.Context, p models.SportPlan) (models.SportPlan, error) {
	p.ID = primitive.NewObjectID()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.SportPlan{}, err
	}
	return p, nil
}

// GetByID loads a plan. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SportPlan, error) {
	var p models.SportPlan
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListBySport returns the catalog plans for one sport, name order.
func (s *Store) ListBySport(ctx context.Context, sport string) ([]models.SportPlan, error) {
	return s.list(ctx, bson.M{"sport": sport})
}

// List returns the whole catalog, name order.
func (s *Store) List(ctx context.Context) ([]models.SportPlan, error) {
	return s.list(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.SportPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SportPlan
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
