package userstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
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
	return &Store{c: db.Collection("users")}
}

// ErrDuplicateEmail is returned when attempting to create a user with an
// email that already exists.
var ErrDuplicateEmail = errors.New("a user with this email already exists")

// Create inserts a new user. The caller supplies the id (issued by the
// identity provider); counters start at zero and the membership list empty.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Points = 0
	u.DailyCalories = 0
	u.JoinedCommunities = []primitive.ObjectID{}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile sets the mutable profile fields and returns the updated
// document.
func (s *Store) UpdateProfile(ctx context.Context, id, displayName string) (*models.User, error) {
	return s.findOneAndSet(ctx, id, bson.M{"display_name": displayName})
}

// SetProfilePhotoPath records where the user's photo lives in blob storage.
func (s *Store) SetProfilePhotoPath(ctx context.Context, id, path string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"profile_photo_path": path,
		"updated_at":         time.Now().UTC(),
	}})
	return err
}

// UpdateLocation stores the user's last reported location.
func (s *Store) UpdateLocation(ctx context.Context, id string, loc models.GeoPoint) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"location":   loc,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// UpdatePreferences stores the survey answers together with the nutrition
// targets derived from them.
func (s *Store) UpdatePreferences(ctx context.Context, id string, prefs models.Preferences, targets models.NutritionTargets) (*models.User, error) {
	return s.findOneAndSet(ctx, id, bson.M{
		"preferences":       prefs,
		"nutrition_targets": targets,
	})
}

// SetSportPlan replaces the user's embedded workout plan.
func (s *Store) SetSportPlan(ctx context.Context, id string, steps []models.SportPlanStep) (*models.User, error) {
	return s.findOneAndSet(ctx, id, bson.M{"sport_plan": steps})
}

// UpdateSportPlanStep marks progress on one plan step by index.
func (s *Store) UpdateSportPlanStep(ctx context.Context, id string, index int, elapsedSec int, completed bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "sport_plan": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{
			"sport_plan." + strconv.Itoa(index) + ".elapsed_sec": elapsedSec,
			"sport_plan." + strconv.Itoa(index) + ".completed":   completed,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByID removes a user document. Membership and content cleanup is
// the coordinator's job.
func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// JoinCommunity adds the community to the user's membership list.
// $addToSet keeps the write idempotent.
func (s *Store) JoinCommunity(ctx context.Context, userID string, communityID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"joined_communities": communityID},
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

// LeaveCommunity removes the community from the user's membership list.
func (s *Store) LeaveCommunity(ctx context.Context, userID string, communityID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"joined_communities": communityID},
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

// RemoveCommunityFromAll pulls the community out of every user's
// membership list. The reverse query runs over the multikey index on
// joined_communities.
func (s *Store) RemoveCommunityFromAll(ctx context.Context, communityID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"joined_communities": communityID},
		bson.M{
			"$pull": bson.M{"joined_communities": communityID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ListByIDs returns the users with the given ids. Missing ids are
// simply absent from the result.
func (s *Store) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddPoints credits delta points to every listed user in one write.
func (s *Store) AddPoints(ctx context.Context, ids []string, delta int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{
			"$inc": bson.M{"points": delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AddCalories logs a meal: bumps the daily counter and appends the entry
// to the food history.
func (s *Store) AddCalories(ctx context.Context, id string, entry models.FoodEntry) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc":  bson.M{"daily_calories": entry.Calories},
			"$push": bson.M{"food_entries": entry},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		opts,
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetDailyCalories zeroes the counter for every user not yet reset
// today. Filtering on last_calorie_reset makes the sweep idempotent
// within a day, so overlapping runs are harmless.
func (s *Store) ResetDailyCalories(ctx context.Context, dayStart time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{"last_calorie_reset": bson.M{"$lt": dayStart}},
			bson.M{"last_calorie_reset": bson.M{"$exists": false}},
		}},
		bson.M{"$set": bson.M{
			"daily_calories":     0,
			"last_calorie_reset": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) findOneAndSet(ctx context.Context, id string, set bson.M) (*models.User, error) {
	set["updated_at"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
