// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/membership"
	eventstore "github.com/aktivio/aktivio-server/internal/app/store/events"
	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/app/system/auth"
	"github.com/aktivio/aktivio-server/internal/app/system/binding"
	"github.com/aktivio/aktivio-server/internal/app/system/htmlsanitize"
	"github.com/aktivio/aktivio-server/internal/app/system/respond"
	"github.com/aktivio/aktivio-server/internal/app/system/timeouts"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// Handler serves the events of a community. Every route is nested under
// /communities/{communityID} and gated on membership.
type Handler struct {
	Events *eventstore.Store
	Coord  *membership.Coordinator
	Log    *zap.Logger
}

func NewHandler(events *eventstore.Store, coord *membership.Coordinator, log *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Coord:  coord,
		Log:    log,
	}
}

func (h *Handler) member(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, primitive.ObjectID, bool) {
	userID, ok := auth.UserID(r)
	if !ok {
		respond.Error(w, h.Log, apperr.Forbiddenf("authentication required"))
		return "", primitive.NilObjectID, false
	}
	communityID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "communityID"))
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid community id"))
		return "", primitive.NilObjectID, false
	}
	isMember, err := h.Coord.IsMember(ctx, userID, communityID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return "", primitive.NilObjectID, false
	}
	if !isMember {
		respond.Error(w, h.Log, apperr.Forbiddenf("not a member of this community"))
		return "", primitive.NilObjectID, false
	}
	return userID, communityID, true
}

func (h *Handler) event(ctx context.Context, w http.ResponseWriter, r *http.Request, communityID primitive.ObjectID) (*models.Event, bool) {
	raw := chi.URLParam(r, "eventID")
	eventID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid event id"))
		return nil, false
	}
	e, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.NotFoundf("event", raw))
			return nil, false
		}
		respond.Error(w, h.Log, err)
		return nil, false
	}
	if e.CommunityID != communityID {
		respond.Error(w, h.Log, apperr.NotFoundf("event", raw))
		return nil, false
	}
	return e, true
}

func checkWindow(start, end time.Time) error {
	if !end.After(start) {
		return apperr.Validationf("end_time must be after start_time")
	}
	if end.Before(time.Now().UTC()) {
		return apperr.Validationf("end_time must be in the future")
	}
	return nil
}

// Create handles POST /communities/{communityID}/events.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := checkWindow(req.StartTime, req.EndTime); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	e, err := h.Events.Create(ctx, models.Event{
		CommunityID: communityID,
		Creator:     userID,
		Name:        htmlsanitize.StripTags(req.Name),
		Description: htmlsanitize.StripTags(req.Description),
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		Points:      req.Points,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "event created", e)
}

// List handles GET /communities/{communityID}/events, soonest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	events, err := h.Events.ListByCommunity(ctx, communityID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "events", events)
}

// Get handles GET /communities/{communityID}/events/{eventID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	e, ok := h.event(ctx, w, r, communityID)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "event", e)
}

// Update handles PUT /communities/{communityID}/events/{eventID}.
// Creators only; finished events are immutable.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	e, ok := h.event(ctx, w, r, communityID)
	if !ok {
		return
	}
	if e.Creator != userID {
		respond.Error(w, h.Log, apperr.Forbiddenf("only the creator can edit an event"))
		return
	}
	if e.Status == models.EventFinished {
		respond.Error(w, h.Log, apperr.Validationf("finished events cannot be edited"))
		return
	}
	var req updateRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := checkWindow(req.StartTime, req.EndTime); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	updated, err := h.Events.Update(ctx, e.ID,
		htmlsanitize.StripTags(req.Name),
		htmlsanitize.StripTags(req.Description),
		req.StartTime.UTC(), req.EndTime.UTC(), req.Points)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "event updated", updated)
}

// Delete handles DELETE /communities/{communityID}/events/{eventID}.
// Creators only. No points are paid for a deleted event.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	e, ok := h.event(ctx, w, r, communityID)
	if !ok {
		return
	}
	if e.Creator != userID {
		respond.Error(w, h.Log, apperr.Forbiddenf("only the creator can delete an event"))
		return
	}
	if _, err := h.Events.DeleteByID(ctx, e.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, "", nil)
}

// Join handles POST /communities/{communityID}/events/{eventID}/join.
// Events that have ended or been finished cannot be joined.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	e, ok := h.event(ctx, w, r, communityID)
	if !ok {
		return
	}
	if e.Status == models.EventFinished || e.Ended(time.Now().UTC()) {
		respond.Error(w, h.Log, apperr.Validationf("event has already ended"))
		return
	}
	if err := h.Events.Join(ctx, e.ID, userID); err != nil {
		// The sweep can finish the event between the read and the write.
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.Validationf("event has already ended"))
			return
		}
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "joined event", nil)
}

// Leave handles POST /communities/{communityID}/events/{eventID}/leave.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	e, ok := h.event(ctx, w, r, communityID)
	if !ok {
		return
	}
	if err := h.Events.Leave(ctx, e.ID, userID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "left event", nil)
}

// Participants handles GET /communities/{communityID}/events/{eventID}/participants.
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	e, ok := h.event(ctx, w, r, communityID)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "participants", e.Participants)
}
