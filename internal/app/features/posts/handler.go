// internal/app/features/posts/handler.go
package posts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/membership"
	poststore "github.com/aktivio/aktivio-server/internal/app/store/posts"
	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/app/system/auth"
	"github.com/aktivio/aktivio-server/internal/app/system/binding"
	"github.com/aktivio/aktivio-server/internal/app/system/blob"
	"github.com/aktivio/aktivio-server/internal/app/system/htmlsanitize"
	"github.com/aktivio/aktivio-server/internal/app/system/respond"
	"github.com/aktivio/aktivio-server/internal/app/system/timeouts"
	"github.com/aktivio/aktivio-server/internal/domain/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxImageBytes   = 10 << 20
)

// Handler serves the post feed of a community. Every route is nested
// under /communities/{communityID} and gated on membership.
type Handler struct {
	Posts *poststore.Store
	Coord *membership.Coordinator
	Blobs blob.Store
	Log   *zap.Logger
}

func NewHandler(posts *poststore.Store, coord *membership.Coordinator, blobs blob.Store, log *zap.Logger) *Handler {
	return &Handler{
		Posts: posts,
		Coord: coord,
		Blobs: blobs,
		Log:   log,
	}
}

// member resolves the caller and checks their membership in the
// community named by the route. Both ids are returned on success.
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

// post loads the route's post and verifies it belongs to the route's
// community; a post reached through the wrong community is a 404.
func (h *Handler) post(ctx context.Context, w http.ResponseWriter, r *http.Request, communityID primitive.ObjectID) (*models.Post, bool) {
	raw := chi.URLParam(r, "postID")
	postID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("invalid post id"))
		return nil, false
	}
	p, err := h.Posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.NotFoundf("post", raw))
			return nil, false
		}
		respond.Error(w, h.Log, err)
		return nil, false
	}
	if p.CommunityID != communityID {
		respond.Error(w, h.Log, apperr.NotFoundf("post", raw))
		return nil, false
	}
	return p, true
}

// Create handles POST /communities/{communityID}/posts. Content may
// carry limited markup; anything outside the allowlist is stripped.
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
	p, err := h.Posts.Create(ctx, models.Post{
		CommunityID: communityID,
		Author:      userID,
		Title:       htmlsanitize.StripTags(req.Title),
		Content:     htmlsanitize.Sanitize(req.Content),
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "post created", h.decorate(ctx, p))
}

// List handles GET /communities/{communityID}/posts?limit=&after=.
// The feed is newest first; after is the opaque cursor returned with
// the previous page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}

	limit := int64(defaultPageSize)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > maxPageSize {
			respond.Error(w, h.Log, apperr.Validationf("limit must be between 1 and %d", maxPageSize))
			return
		}
		limit = n
	}
	var cur *wafflemongo.Cursor
	if raw := r.URL.Query().Get("after"); raw != "" {
		c, ok := wafflemongo.DecodeCursor(raw)
		if !ok {
			respond.Error(w, h.Log, apperr.Validationf("invalid after cursor"))
			return
		}
		cur = &c
	}

	// Fetch one past the page to learn whether another page exists.
	page, err := h.Posts.ListByCommunity(ctx, communityID, limit+1, cur)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	next := ""
	if int64(len(page)) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		next = wafflemongo.EncodeCursor(last.CreatedKey, last.ID)
	}
	out := make([]postResponse, len(page))
	for i, p := range page {
		out[i] = h.decorate(ctx, p)
	}
	respond.JSON(w, http.StatusOK, "posts", listResponse{Posts: out, NextCursor: next})
}

// Get handles GET /communities/{communityID}/posts/{postID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	p, ok := h.post(ctx, w, r, communityID)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "post", h.decorate(ctx, *p))
}

// Update handles PUT /communities/{communityID}/posts/{postID}.
// Authors only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	p, ok := h.post(ctx, w, r, communityID)
	if !ok {
		return
	}
	if p.Author != userID {
		respond.Error(w, h.Log, apperr.Forbiddenf("only the author can edit a post"))
		return
	}
	var req updateRequest
	if err := binding.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	updated, err := h.Posts.Update(ctx, p.ID,
		htmlsanitize.StripTags(req.Title),
		htmlsanitize.Sanitize(req.Content))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "post updated", h.decorate(ctx, *updated))
}

// Delete handles DELETE /communities/{communityID}/posts/{postID}.
// Authors only. Stored images are removed best effort after the
// document delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	p, ok := h.post(ctx, w, r, communityID)
	if !ok {
		return
	}
	if p.Author != userID {
		respond.Error(w, h.Log, apperr.Forbiddenf("only the author can delete a post"))
		return
	}
	if _, err := h.Posts.DeleteByID(ctx, p.ID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	for _, key := range p.ImagePaths {
		if err := h.Blobs.Delete(ctx, key); err != nil {
			h.Log.Warn("failed to delete post image",
				zap.String("post_id", p.ID.Hex()),
				zap.String("path", key),
				zap.Error(err))
		}
	}
	respond.JSON(w, http.StatusOK, "post deleted", nil)
}

// AddImage handles POST /communities/{communityID}/posts/{postID}/images.
// Authors only; accepts a multipart form with an "image" part.
func (h *Handler) AddImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, communityID, ok := h.member(ctx, w, r)
	if !ok {
		return
	}
	p, ok := h.post(ctx, w, r, communityID)
	if !ok {
		return
	}
	if p.Author != userID {
		respond.Error(w, h.Log, apperr.Forbiddenf("only the author can attach images"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		respond.Error(w, h.Log, apperr.Validationf("image upload required: %v", err))
		return
	}
	defer file.Close()

	// Random names keep a re-upload from landing on a path an earlier
	// signed URL still points at.
	key := fmt.Sprintf("posts/%s/%s%s", p.ID.Hex(), uuid.NewString(), path.Ext(header.Filename))
	opts := &blob.PutOptions{ContentType: header.Header.Get("Content-Type")}
	if err := h.Blobs.Put(ctx, key, file, opts); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Posts.AddImagePath(ctx, p.ID, key); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	url, err := h.Blobs.SignedURL(ctx, key, nil)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, "image attached", map[string]string{"image_url": url})
}

// decorate signs the post's image paths into fetchable URLs. A signing
// failure drops the image from the response and is logged.
func (h *Handler) decorate(ctx context.Context, p models.Post) postResponse {
	resp := postResponse{Post: p}
	for _, key := range p.ImagePaths {
		url, err := h.Blobs.SignedURL(ctx, key, nil)
		if err != nil {
			h.Log.Warn("failed to sign post image url",
				zap.String("post_id", p.ID.Hex()),
				zap.String("path", key),
				zap.Error(err))
			continue
		}
		resp.ImageURLs = append(resp.ImageURLs, url)
	}
	return resp
}
