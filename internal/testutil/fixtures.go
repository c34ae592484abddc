package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
	n  int
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with no memberships and a generated id.
func (f *Fixtures) CreateUser(ctx context.Context, displayName string) models.User {
	f.t.Helper()
	return f.CreateUserWithID(ctx, "test-user-"+primitive.NewObjectID().Hex(), displayName)
}

// CreateUserWithID inserts a user with a caller-chosen id.
func (f *Fixtures) CreateUserWithID(ctx context.Context, id, displayName string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	f.n++
	u := models.User{
		ID:                id,
		DisplayName:       displayName,
		Email:             fmt.Sprintf("user%d@test.example", f.n),
		Points:            0,
		DailyCalories:     0,
		JoinedCommunities: []primitive.ObjectID{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCommunity inserts a community with no members.
func (f *Fixtures) CreateCommunity(ctx context.Context, name string) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Community{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: "a test community",
		Members:     []string{},
		Location:    models.NewGeoPoint(41.015, 28.979),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("communities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	return c
}

// CreatePost inserts a post in the given community.
func (f *Fixtures) CreatePost(ctx context.Context, communityID primitive.ObjectID, author, title string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Post{
		ID:          primitive.NewObjectID(),
		CommunityID: communityID,
		Author:      author,
		Title:       title,
		Content:     "post body",
		CreatedKey:  models.PostCreatedKey(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

// CreateEvent inserts an ongoing event starting now and ending in an hour.
func (f *Fixtures) CreateEvent(ctx context.Context, communityID primitive.ObjectID, creator, name string) models.Event {
	f.t.Helper()
	now := time.Now().UTC()
	return f.CreateEventAt(ctx, communityID, creator, name, now, now.Add(time.Hour))
}

// CreateEventAt inserts an ongoing event with explicit start and end times.
func (f *Fixtures) CreateEventAt(ctx context.Context, communityID primitive.ObjectID, creator, name string, start, end time.Time) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:           primitive.NewObjectID(),
		CommunityID:  communityID,
		Creator:      creator,
		Name:         name,
		StartTime:    start,
		EndTime:      end,
		Points:       50,
		Status:       models.EventOngoing,
		Participants: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateSportPlan inserts a plan template for the given sport.
func (f *Fixtures) CreateSportPlan(ctx context.Context, sport, name string) models.SportPlan {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.SportPlan{
		ID:          primitive.NewObjectID(),
		Sport:       sport,
		Name:        name,
		Description: "a test plan",
		Steps: []models.SportPlanStep{
			{Name: "Warm up", Description: "5 minutes easy"},
			{Name: "Main set", Description: "20 minutes steady"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("sport_plans").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test sport plan: %v", err)
	}
	return p
}
