// internal/app/features/sportplans/handler.go

// Package sportplans serves the workout plan catalog and the
// personalized sport recommendations built on top of it.
package sportplans

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	sportplanstore "github.com/aktivio/aktivio-server/internal/app/store/sportplans"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/app/system/auth"
	"github.com/aktivio/aktivio-server/internal/app/system/recommend"
	"github.com/aktivio/aktivio-server/internal/app/system/respond"
	"github.com/aktivio/aktivio-server/internal/app/system/timeouts"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// Handler serves the plan catalog and recommendations.
type Handler struct {
	Plans       *sportplanstore.Store
	Users       *userstore.Store
	Recommender recommend.Provider
	Log         *zap.Logger
}

func NewHandler(plans *sportplanstore.Store, users *userstore.Store, recommender recommend.Provider, log *zap.Logger) *Handler {
	return &Handler{
		Plans:       plans,
		Users:       users,
		Recommender: recommender,
		Log:         log,
	}
}

// recommendation pairs a scored sport with the catalog plans a user
// could adopt for it.
type recommendation struct {
	Sport string             `json:"sport"`
	Score float64            `json:"score"`
	Plans []models.SportPlan `json:"plans"`
}

// List handles GET /sportplans?sport=....
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var (
		plans []models.SportPlan
		err   error
	)
	if sport := r.URL.Query().Get("sport"); sport != "" {
		plans, err = h.Plans.ListBySport(ctx, sport)
	} else {
		plans, err = h.Plans.List(ctx)
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "sport plans", plans)
}

// Get handles GET /sportplans/{planID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	raw := chi.URLParam(r, "planID")
	planID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid plan id"))
		return
	}
	plan, err := h.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.NotFoundf("sport plan", raw))
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "sport plan", plan)
}

// Recommendations handles GET /sportplans/recommendations. The caller's
// stored preferences are scored by the external recommender; each
// recommended sport carries its adoptable catalog plans.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, ok := auth.UserID(r)
	if !ok {
		respond.Error(w, h.Log, apperr.Forbiddenf("authentication required"))
		return
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.NotFoundf("user", userID))
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	if u.Preferences == nil {
		respond.Error(w, h.Log, apperr.Validationf("complete the preference survey before requesting recommendations"))
		return
	}

	scored, err := h.Recommender.Recommend(ctx, *u.Preferences)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	out := make([]recommendation, 0, len(scored))
	for _, s := range scored {
		plans, err := h.Plans.ListBySport(ctx, s.Sport)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		out = append(out, recommendation{Sport: s.Sport, Score: s.Score, Plans: plans})
	}
	respond.JSON(w, http.StatusOK, "recommendations", out)
}
