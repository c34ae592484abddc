// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/membership"
	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	sportplanstore "github.com/aktivio/aktivio-server/internal/app/store/sportplans"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/app/system/auth"
	"github.com/aktivio/aktivio-server/internal/app/system/binding"
	"github.com/aktivio/aktivio-server/internal/app/system/blob"
	"github.com/aktivio/aktivio-server/internal/app/system/htmlsanitize"
	"github.com/aktivio/aktivio-server/internal/app/system/nutrition"
	"github.com/aktivio/aktivio-server/internal/app/system/respond"
	"github.com/aktivio/aktivio-server/internal/app/system/timeouts"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// maxPhotoBytes caps profile photo uploads.
const maxPhotoBytes = 5 << 20

// Handler serves account endpoints. The caller's identity always comes
// from the bearer token; there is no way to act on another account.
type Handler struct {
	Users       *userstore.Store
	Communities *communitystore.Store
	Plans       *sportplanstore.Store
	Coord       *membership.Coordinator
	Blobs       blob.Store
	Log         *zap.Logger
}

func NewHandler(users *userstore.Store, communities *communitystore.Store, plans *sportplanstore.Store, coord *membership.Coordinator, blobs blob.Store, log *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		Communities: communities,
		Plans:       plans,
		Coord:       coord,
		Blobs:       blobs,
		Log:         log,
	}
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserID(r)
	if !ok {
		respond.Error(w, h.Log, apperr.Forbiddenf("authentication required"))
	}
	return id, ok
}

// SignUp handles POST /users/signup. The account id is the subject of
// the bearer token; signing up twice with the same token is a
// validation error, as is reusing an email.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req signUpRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		ID:          id,
		DisplayName: htmlsanitize.StripTags(req.DisplayName),
		Email:       req.Email,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Error(w, h.Log, apperr.Validationf("email already registered"))
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "account created", profileResponse{User: u})
}

// Me handles GET /users/profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "profile", h.profile(ctx, *u))
}

// UpdateMe handles PUT /users/profile.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Users.UpdateProfile(ctx, id, htmlsanitize.StripTags(req.DisplayName))
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", h.profile(ctx, *u))
}

// DeleteMe handles DELETE /users/delete. Removes the account and
// everything that references it.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.Coord.DeleteUser(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "account deleted", nil)
}

// UpdateLocation handles PUT /users/location.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Users.UpdateLocation(ctx, id, models.NewGeoPoint(*req.Lat, *req.Lng)); err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "location updated", nil)
}

// UpdatePreferences handles PUT /users/preferences. Saving the survey
// recomputes the daily nutrition targets in the same write.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	var prefs models.Preferences
	if err := binding.Decode(r, &prefs); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	targets, err := nutrition.Targets(prefs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Users.UpdatePreferences(ctx, id, prefs, targets)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "preferences updated", h.profile(ctx, *u))
}

// Memberships handles GET /users/memberships, returning the communities
// the caller has joined.
func (h *Handler) Memberships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	communities, err := h.Communities.ListByIDs(ctx, u.JoinedCommunities)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "joined communities", communities)
}

// JoinCommunity handles PUT /users/memberships/{communityID}. Joining a
// community the caller already belongs to is a no-op success.
func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	if err := h.Coord.Join(ctx, id, communityID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "joined community", nil)
}

// LeaveCommunity handles DELETE /users/memberships/{communityID}. The
// caller also drops out of every event hosted by that community.
func (h *Handler) LeaveCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	communityID, ok := h.communityID(w, r)
	if !ok {
		return
	}
	if err := h.Coord.Leave(ctx, id, communityID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "left community", nil)
}

func (h *Handler) communityID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "communityID"))
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid community id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// Photo handles GET /users/profile/photo, returning a fresh signed URL
// for the stored profile photo.
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	if u.ProfilePhotoPath == "" {
		respond.Error(w, h.Log, apperr.NotFoundf("profile photo", id))
		return
	}
	url, err := h.Blobs.SignedURL(ctx, u.ProfilePhotoPath, nil)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile photo", map[string]string{"photo_url": url})
}

// UploadPhoto handles PUT /users/profile/photo. Accepts a multipart form
// with a "photo" part and returns the expiring URL for the stored file.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	file, header, err := r.FormFile("photo")
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("photo upload required: %v", err))
		return
	}
	defer file.Close()

	key := "users/" + id + "/profile" + path.Ext(header.Filename)
	opts := &blob.PutOptions{ContentType: header.Header.Get("Content-Type")}
	if err := h.Blobs.Put(ctx, key, file, opts); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Users.SetProfilePhotoPath(ctx, id, key); err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}

	url, err := h.Blobs.SignedURL(ctx, key, nil)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "photo uploaded", map[string]string{"photo_url": url})
}

// LogMeal handles POST /users/meals and POST /calories/set. Appends a
// food entry and bumps the daily calorie counter, returning the updated
// intake picture.
func (h *Handler) LogMeal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req mealRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Users.AddCalories(ctx, id, models.FoodEntry{
		Name:     htmlsanitize.StripTags(req.Name),
		Calories: req.Calories,
		LoggedAt: time.Now().UTC(),
	})
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "meal logged", nutritionStatus(u))
}

// Nutrition handles GET /users/meals.
func (h *Handler) Nutrition(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "nutrition", nutritionStatus(u))
}

// AdoptPlan handles PUT /users/plan. Copies a catalog plan's steps onto
// the account with fresh progress.
func (h *Handler) AdoptPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req adoptPlanRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid plan id"))
		return
	}
	plan, err := h.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.NotFoundf("sport plan", req.PlanID))
			return
		}
		respond.Error(w, h.Log, err)
		return
	}

	steps := make([]models.SportPlanStep, len(plan.Steps))
	for i, s := range plan.Steps {
		steps[i] = models.SportPlanStep{Name: s.Name, Description: s.Description}
	}
	u, err := h.Users.SetSportPlan(ctx, id, steps)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "plan adopted", u.SportPlan)
}

// UpdatePlanStep handles PATCH /users/plan/steps/{index}.
func (h *Handler) UpdatePlanStep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respond.Error(w, h.Log, apperr.Validationf("invalid step index"))
		return
	}
	var req stepProgressRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	if index >= len(u.SportPlan) {
		respond.Error(w, h.Log, apperr.Validationf("step index %d out of range", index))
		return
	}
	if err := h.Users.UpdateSportPlanStep(ctx, id, index, *req.ElapsedSec, req.Completed); err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "step updated", nil)
}

// MyPlan handles GET /users/plan.
func (h *Handler) MyPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.caller(w, r)
	if !ok {
		return
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapUserErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "plan", u.SportPlan)
}

// profile decorates the account document with a signed photo URL. URL
// signing failure is logged, not fatal: the profile is still useful
// without the photo.
func (h *Handler) profile(ctx context.Context, u models.User) profileResponse {
	resp := profileResponse{User: u}
	if u.ProfilePhotoPath == "" {
		return resp
	}
	url, err := h.Blobs.SignedURL(ctx, u.ProfilePhotoPath, nil)
	if err != nil {
		h.Log.Warn("failed to sign profile photo url",
			zap.String("user_id", u.ID),
			zap.Error(err))
		return resp
	}
	resp.PhotoURL = url
	return resp
}

func (h *Handler) mapUserErr(err error, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFoundf("user", id)
	}
	return err
}

func nutritionStatus(u *models.User) nutritionResponse {
	entries := u.FoodEntries
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	return nutritionResponse{
		DailyCalories: u.DailyCalories,
		Targets:       u.NutritionTargets,
		Entries:       entries,
	}
}
