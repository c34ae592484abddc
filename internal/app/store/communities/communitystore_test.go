package communitystore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	"github.com/aktivio/aktivio-server/internal/domain/models"
	"github.com/aktivio/aktivio-server/internal/testutil"
)

func TestCreate_StartsEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	c, err := store.Create(ctx, models.Community{
		Name:        "Sunrise Runners",
		Description: "early morning runs",
		Members:     []string{"sneaky"}, // must be ignored
		Location:    models.NewGeoPoint(41.0, 29.0),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.ID.IsZero() {
		t.Error("expected generated id")
	}
	if len(c.Members) != 0 {
		t.Errorf("members must start empty, got %v", c.Members)
	}

	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Sunrise Runners" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestGetByID_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	first, err := store.Create(ctx, models.Community{Name: "First", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // created_at has millisecond resolution
	second, err := store.Create(ctx, models.Community{Name: "Second", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 communities, got %d", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Errorf("expected newest first, got [%s, %s]", got[0].Name, got[1].Name)
	}
}

func TestListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	a, err := store.Create(ctx, models.Community{Name: "A", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Community{Name: "B", Location: models.NewGeoPoint(41, 29)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.ListByIDs(ctx, []primitive.ObjectID{a.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("expected just A, got %v", got)
	}

	empty, err := store.ListByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("ListByIDs with no ids failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no communities, got %d", len(empty))
	}
}

func TestUpdateByID_PreservesMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	c, err := store.Create(ctx, models.Community{Name: "Old", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.AddMember(ctx, c.ID, "u1"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	got, err := store.UpdateByID(ctx, c.ID, "New", "fresh description", models.NewGeoPoint(42, 30))
	if err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	if got.Name != "New" || got.Description != "fresh description" {
		t.Errorf("update not applied: %+v", got)
	}
	if len(got.Members) != 1 || got.Members[0] != "u1" {
		t.Errorf("members must survive updates, got %v", got.Members)
	}
}

func TestAddMember_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	c, err := store.Create(ctx, models.Community{Name: "C", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.AddMember(ctx, c.ID, "u1"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, c.ID, "u1"); err != nil {
		t.Fatalf("second AddMember failed: %v", err)
	}

	got, _ := store.GetByID(ctx, c.ID)
	if len(got.Members) != 1 {
		t.Errorf("members = %v, want exactly one entry", got.Members)
	}
}

func TestRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	c, err := store.Create(ctx, models.Community{Name: "C", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.AddMember(ctx, c.ID, "u1"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, c.ID, "u2"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	if err := store.RemoveMember(ctx, c.ID, "u1"); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	got, _ := store.GetByID(ctx, c.ID)
	if len(got.Members) != 1 || got.Members[0] != "u2" {
		t.Errorf("members = %v, want [u2]", got.Members)
	}
}

func TestAddMember_MissingCommunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	err := store.AddMember(ctx, primitive.NewObjectID(), "u1")
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestHasMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	c, err := store.Create(ctx, models.Community{Name: "C", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.AddMember(ctx, c.ID, "u1"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	ok, err := store.HasMember(ctx, c.ID, "u1")
	if err != nil || !ok {
		t.Errorf("HasMember(u1) = %v, %v; want true", ok, err)
	}
	ok, err = store.HasMember(ctx, c.ID, "u2")
	if err != nil || ok {
		t.Errorf("HasMember(u2) = %v, %v; want false", ok, err)
	}
}

func TestDeleteByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := communitystore.New(db)
	c, err := store.Create(ctx, models.Community{Name: "C", Location: models.NewGeoPoint(41, 29)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := store.DeleteByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, err := store.GetByID(ctx, c.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments after delete, got %v", err)
	}
}
