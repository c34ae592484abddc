package users

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/membership"
	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	eventstore "github.com/aktivio/aktivio-server/internal/app/store/events"
	poststore "github.com/aktivio/aktivio-server/internal/app/store/posts"
	sportplanstore "github.com/aktivio/aktivio-server/internal/app/store/sportplans"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/blob"
	"github.com/aktivio/aktivio-server/internal/app/system/indexes"
	"github.com/aktivio/aktivio-server/internal/app/system/search"
	"github.com/aktivio/aktivio-server/internal/domain/models"
	"github.com/aktivio/aktivio-server/internal/testutil"
)

var testSignKey = []byte("0123456789abcdef0123456789abcdef")

func newHandler(t *testing.T, db *mongo.Database) *Handler {
	t.Helper()

	blobs, err := blob.NewLocal(t.TempDir(), "http://localhost:8080", testSignKey, 0)
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}

	users := userstore.New(db)
	communities := communitystore.New(db)
	coord := membership.New(db, users, communities, poststore.New(db), eventstore.New(db), search.NewMongo(db), zap.NewNop())
	return NewHandler(users, communities, sportplanstore.New(db), coord, blobs, zap.NewNop())
}

func validPrefs() models.Preferences {
	return models.Preferences{
		Gender:           "male",
		Age:              30,
		WeightKg:         80,
		HeightCm:         180,
		Equipment:        "none",
		Motivation:       "health",
		AvailableTime:    "evenings",
		FitnessLevel:     "Average",
		PlacePreference:  "outdoor",
		SocialPreference: "group",
		DiseaseHistory:   []string{},
	}
}

func TestSignUp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/users/signup", signUpRequest{
		DisplayName: "Alice",
		Email:       "Alice@Example.com",
	})
	rec := httptest.NewRecorder()
	h.SignUp(rec, testutil.WithUser(req, "acct-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data profileResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Data.ID != "acct-1" || resp.Data.Email != "alice@example.com" {
		t.Errorf("data = %+v, want acct-1 with normalized email", resp.Data)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	h := newHandler(t, db)

	first := testutil.NewJSONRequest(t, http.MethodPost, "/users/signup", signUpRequest{DisplayName: "Alice", Email: "a@example.com"})
	rec := httptest.NewRecorder()
	h.SignUp(rec, testutil.WithUser(first, "acct-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first signup status = %d", rec.Code)
	}

	second := testutil.NewJSONRequest(t, http.MethodPost, "/users/signup", signUpRequest{DisplayName: "Imposter", Email: "a@example.com"})
	rec = httptest.NewRecorder()
	h.SignUp(rec, testutil.WithUser(second, "acct-2"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup status = %d, want 400", rec.Code)
	}
}

func TestMeMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := httptest.NewRecorder()
	h.Me(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/profile"), "ghost"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUpdatePreferencesComputesTargets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Bob")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/users/preferences", validPrefs())
	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, testutil.WithUser(req, u.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data profileResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Data.NutritionTargets == nil {
		t.Fatal("nutrition targets missing from response")
	}
	if resp.Data.NutritionTargets.DailyCalories <= resp.Data.NutritionTargets.BMR {
		t.Errorf("daily calories %f not above bmr %f", resp.Data.NutritionTargets.DailyCalories, resp.Data.NutritionTargets.BMR)
	}
}

func TestUpdatePreferencesRejectsUnknownLevel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	prefs := validPrefs()
	prefs.FitnessLevel = "average" // keys are case sensitive
	req := testutil.NewJSONRequest(t, http.MethodPut, "/users/preferences", prefs)
	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, testutil.WithUser(req, "acct-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogMealAndNutrition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Eater")

	for _, meal := range []mealRequest{{Name: "Breakfast", Calories: 400}, {Name: "Lunch", Calories: 600}} {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/users/meals", meal)
		rec := httptest.NewRecorder()
		h.LogMeal(rec, testutil.WithUser(req, u.ID))
		if rec.Code != http.StatusOK {
			t.Fatalf("log meal status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.Nutrition(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/meals"), u.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("nutrition status = %d", rec.Code)
	}
	var resp struct {
		Data nutritionResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Data.DailyCalories != 1000 {
		t.Errorf("daily calories = %d, want 1000", resp.Data.DailyCalories)
	}
	if len(resp.Data.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(resp.Data.Entries))
	}
}

func TestAdoptPlanAndUpdateStep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Planner")
	plan := fx.CreateSportPlan(ctx, "running", "Base plan")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/users/plan", adoptPlanRequest{PlanID: plan.ID.Hex()})
	rec := httptest.NewRecorder()
	h.AdoptPlan(rec, testutil.WithUser(req, u.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("adopt status = %d, body %s", rec.Code, rec.Body.String())
	}

	elapsed := 300
	stepReq := testutil.NewJSONRequest(t, http.MethodPatch, "/users/plan/steps/1", stepProgressRequest{ElapsedSec: &elapsed, Completed: true})
	stepReq = testutil.WithChiURLParam(testutil.WithUser(stepReq, u.ID), "index", "1")
	rec = httptest.NewRecorder()
	h.UpdatePlanStep(rec, stepReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("step status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.MyPlan(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/plan"), u.ID))
	var resp struct {
		Data []models.SportPlanStep `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Data) != 2 {
		t.Fatalf("plan steps = %d, want 2", len(resp.Data))
	}
	if !resp.Data[1].Completed || resp.Data[1].ElapsedSec != 300 {
		t.Errorf("step 1 = %+v, want completed after 300s", resp.Data[1])
	}
	if resp.Data[0].Completed {
		t.Errorf("step 0 = %+v, want untouched", resp.Data[0])
	}
}

func TestUpdatePlanStepOutOfRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Planner")

	elapsed := 10
	req := testutil.NewJSONRequest(t, http.MethodPatch, "/users/plan/steps/7", stepProgressRequest{ElapsedSec: &elapsed})
	req = testutil.WithChiURLParam(testutil.WithUser(req, u.ID), "index", "7")
	rec := httptest.NewRecorder()
	h.UpdatePlanStep(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestJoinLeaveMemberships(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Joiner")
	c := fx.CreateCommunity(ctx, "Runners")

	join := testutil.NewRequest(http.MethodPut, "/users/memberships/"+c.ID.Hex())
	join = testutil.WithChiURLParam(testutil.WithUser(join, u.ID), "communityID", c.ID.Hex())
	rec := httptest.NewRecorder()
	h.JoinCommunity(rec, join)
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Memberships(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/memberships"), u.ID))
	var list struct {
		Data []models.Community `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &list)
	if len(list.Data) != 1 || list.Data[0].ID != c.ID {
		t.Fatalf("memberships = %+v, want just %s", list.Data, c.ID.Hex())
	}

	leave := testutil.NewRequest(http.MethodDelete, "/users/memberships/"+c.ID.Hex())
	leave = testutil.WithChiURLParam(testutil.WithUser(leave, u.ID), "communityID", c.ID.Hex())
	rec = httptest.NewRecorder()
	h.LeaveCommunity(rec, leave)
	if rec.Code != http.StatusOK {
		t.Fatalf("leave status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Memberships(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/memberships"), u.ID))
	list.Data = nil
	testutil.DecodeJSON(t, rec, &list)
	if len(list.Data) != 0 {
		t.Fatalf("memberships after leave = %+v, want none", list.Data)
	}
}

func TestJoinMissingCommunity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Joiner")

	ghost := primitive.NewObjectID()
	req := testutil.NewRequest(http.MethodPut, "/users/memberships/"+ghost.Hex())
	req = testutil.WithChiURLParam(testutil.WithUser(req, u.ID), "communityID", ghost.Hex())
	rec := httptest.NewRecorder()
	h.JoinCommunity(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUploadPhoto(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Photogenic")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "me.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("jpeg bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/users/profile/photo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadPhoto(rec, testutil.WithUser(req, u.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if !strings.Contains(resp.Data["photo_url"], "/files/") {
		t.Errorf("photo_url = %q, want a /files/ link", resp.Data["photo_url"])
	}

	// The profile now carries the signed URL too.
	rec = httptest.NewRecorder()
	h.Me(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/profile"), u.ID))
	var me struct {
		Data profileResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &me)
	if me.Data.PhotoURL == "" {
		t.Error("profile photo url missing after upload")
	}

	rec = httptest.NewRecorder()
	h.Photo(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/profile/photo"), u.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("photo status = %d", rec.Code)
	}
}

func TestPhotoMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Camerashy")

	rec := httptest.NewRecorder()
	h.Photo(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/profile/photo"), u.ID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := newHandler(t, db)
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Leaver")

	rec := httptest.NewRecorder()
	h.DeleteMe(rec, testutil.WithUser(testutil.NewRequest(http.MethodDelete, "/users/delete"), u.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Me(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/users/profile"), u.ID))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", rec.Code)
	}
}
