// internal/app/features/communities/handler.go
package communities

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/membership"
	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/app/system/auth"
	"github.com/aktivio/aktivio-server/internal/app/system/binding"
	"github.com/aktivio/aktivio-server/internal/app/system/htmlsanitize"
	"github.com/aktivio/aktivio-server/internal/app/system/respond"
	"github.com/aktivio/aktivio-server/internal/app/system/search"
	"github.com/aktivio/aktivio-server/internal/app/system/timeouts"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

// defaultSearchRadiusMeters bounds discovery when the client does not
// send a radius.
const defaultSearchRadiusMeters = 25000

// Handler serves community CRUD, membership, and discovery.
type Handler struct {
	Communities *communitystore.Store
	Users       *userstore.Store
	Coord       *membership.Coordinator
	Index       search.Index
	Log         *zap.Logger
}

func NewHandler(communities *communitystore.Store, users *userstore.Store, coord *membership.Coordinator, index search.Index, log *zap.Logger) *Handler {
	return &Handler{
		Communities: communities,
		Users:       users,
		Coord:       coord,
		Index:       index,
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

func (h *Handler) communityID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "communityID"))
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid community id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// Create handles POST /communities. The creator becomes the first
// member; the search index entry follows the committed document and is
// only logged on failure.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	c, err := h.Communities.Create(ctx, models.Community{
		Name:        htmlsanitize.StripTags(req.Name),
		Description: htmlsanitize.StripTags(req.Description),
		Location:    models.NewGeoPoint(*req.Lat, *req.Lng),
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Coord.Join(ctx, userID, c.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c.Members = []string{userID}

	h.upsertIndex(ctx, c)
	respond.JSON(w, http.StatusCreated, "community created", c)
}

// List handles GET /communities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	communities, err := h.Communities.List(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "communities", communities)
}

// Search handles GET /search?q=...&radius=.... Results are centered on
// the caller's stored location; accounts without one must set it first.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, ok := h.caller(w, r)
	if !ok {
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
	if u.Location == nil {
		respond.Error(w, h.Log, apperr.Validationf("set a location before searching for communities"))
		return
	}

	radius := float64(defaultSearchRadiusMeters)
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			respond.Error(w, h.Log, apperr.Validationf("radius must be a positive number of meters"))
			return
		}
	}

	docs, err := h.Index.Search(ctx, r.URL.Query().Get("q"), u.Location.Latitude(), u.Location.Longitude(), radius)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "search results", docs)
}

// Get handles GET /communities/{communityID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.communityID(w, r)
	if !ok {
		return
	}
	c, err := h.Communities.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapErr(err, id))
		return
	}
	respond.JSON(w, http.StatusOK, "community", c)
}

// Update handles PUT /communities/{communityID}. Members only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.communityID(w, r)
	if !ok {
		return
	}
	// Existence before membership: an absent community is a 404, not a
	// membership failure.
	if _, err := h.Communities.GetByID(ctx, id); err != nil {
		respond.Error(w, h.Log, h.mapErr(err, id))
		return
	}
	if !h.requireMember(ctx, w, userID, id) {
		return
	}

	var req updateRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	c, err := h.Communities.UpdateByID(ctx, id,
		htmlsanitize.StripTags(req.Name),
		htmlsanitize.StripTags(req.Description),
		models.NewGeoPoint(*req.Lat, *req.Lng))
	if err != nil {
		respond.Error(w, h.Log, h.mapErr(err, id))
		return
	}

	h.upsertIndex(ctx, *c)
	respond.JSON(w, http.StatusOK, "community updated", c)
}

// Delete handles DELETE /communities/{communityID}. Members only; the
// cascade removes posts, events, and every member's joined entry.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.communityID(w, r)
	if !ok {
		return
	}
	if _, err := h.Communities.GetByID(ctx, id); err != nil {
		respond.Error(w, h.Log, h.mapErr(err, id))
		return
	}
	if !h.requireMember(ctx, w, userID, id) {
		return
	}
	if err := h.Coord.DeleteCommunity(ctx, id); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, "", nil)
}

// Members handles GET /communities/{communityID}/members.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.communityID(w, r)
	if !ok {
		return
	}
	c, err := h.Communities.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, h.mapErr(err, id))
		return
	}
	// The community's own members array is the read path; the reverse
	// joined_communities query belongs to the cascade delete.
	users, err := h.Users.ListByIDs(ctx, c.Members)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]models.MemberSummary, 0, len(c.Members))
	for _, memberID := range c.Members {
		u, ok := byID[memberID]
		if !ok {
			// Entry left behind by an account delete in flight.
			continue
		}
		out = append(out, models.MemberSummary{ID: u.ID, DisplayName: u.DisplayName})
	}
	respond.JSON(w, http.StatusOK, "members", out)
}

func (h *Handler) requireMember(ctx context.Context, w http.ResponseWriter, userID string, communityID primitive.ObjectID) bool {
	ok, err := h.Coord.IsMember(ctx, userID, communityID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return false
	}
	if !ok {
		respond.Error(w, h.Log, apperr.Forbiddenf("not a member of this community"))
		return false
	}
	return true
}

func (h *Handler) upsertIndex(ctx context.Context, c models.Community) {
	err := h.Index.Upsert(ctx, search.Document{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Location:    c.Location,
	})
	if err != nil {
		h.Log.Warn("failed to index community",
			zap.String("community_id", c.ID.Hex()),
			zap.Error(err))
	}
}

func (h *Handler) mapErr(err error, id primitive.ObjectID) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFoundf("community", id.Hex())
	}
	return err
}
