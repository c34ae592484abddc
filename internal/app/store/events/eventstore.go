package eventstore

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
	return &Store{c: db.Collection("events")}
}

// Create inserts an event. New events always start ongoing with an empty
// participant list.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	e.Status = models.EventOngoing
	e.Participants = []string{}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByCommunity returns a community's events, soonest start first.
func (s *Store) ListByCommunity(ctx context.Context, communityID primitive.ObjectID) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return s.list(ctx, bson.M{"community_id": communityID}, opts)
}

// ListByCreator returns every event the user created.
func (s *Store) ListByCreator(ctx context.Context, creator string) ([]models.Event, error) {
	return s.list(ctx, bson.M{"creator": creator}, options.Find())
}

// ListByParticipant returns every event the user is participating in.
func (s *Store) ListByParticipant(ctx context.Context, userID string) ([]models.Event, error) {
	return s.list(ctx, bson.M{"participants": userID}, options.Find())
}

// ListByParticipantInCommunity narrows ListByParticipant to one
// community. Used when a member leaves a community and must be pruned
// from its events only.
func (s *Store) ListByParticipantInCommunity(ctx context.Context, userID string, communityID primitive.ObjectID) ([]models.Event, error) {
	return s.list(ctx, bson.M{"participants": userID, "community_id": communityID}, options.Find())
}

// ListDueOngoing returns ongoing events whose end time has passed.
func (s *Store) ListDueOngoing(ctx context.Context, now time.Time) ([]models.Event, error) {
	filter := bson.M{
		"status":   models.EventOngoing,
		"end_time": bson.M{"$lte": now},
	}
	return s.list(ctx, filter, options.Find())
}

func (s *Store) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update sets the editable fields, returning the updated document.
// Status and participants are never written here.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string, start, end time.Time, points int) (*models.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":        name,
			"description": description,
			"start_time":  start,
			"end_time":    end,
			"points":      points,
			"updated_at":  time.Now().UTC(),
		}},
		opts,
	).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Join adds a participant to an ongoing event. Returns
// mongo.ErrNoDocuments when the event is missing or already finished;
// the caller distinguishes the two.
func (s *Store) Join(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.EventOngoing},
		bson.M{
			"$addToSet": bson.M{"participants": userID},
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

// Leave removes a participant from an event.
func (s *Store) Leave(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"participants": userID},
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

// RemoveParticipantFromAll pulls the user out of every event's
// participant list. Used by the account cascade delete.
func (s *Store) RemoveParticipantFromAll(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"participants": userID},
		bson.M{
			"$pull": bson.M{"participants": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// RemoveParticipantFromCommunity pulls the user out of one community's
// events. Used when a member leaves a community.
func (s *Store) RemoveParticipantFromCommunity(ctx context.Context, userID string, communityID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"participants": userID, "community_id": communityID},
		bson.M{
			"$pull": bson.M{"participants": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkFinished flips an ongoing event to finished. The status filter
// makes the transition one-way and idempotent: a second call matches
// nothing and reports false.
func (s *Store) MarkFinished(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.EventOngoing},
		bson.M{"$set": bson.M{
			"status":     models.EventFinished,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// DeleteByID removes one event.
func (s *Store) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCommunity removes every event in a community. Used by the
// community cascade delete.
func (s *Store) DeleteByCommunity(ctx context.Context, communityID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"community_id": communityID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCreator removes every event the user created. Used by the
// account cascade delete.
func (s *Store) DeleteByCreator(ctx context.Context, creator string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"creator": creator})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
