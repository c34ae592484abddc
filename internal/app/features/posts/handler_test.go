package posts

import (
	"bytes"
	"context"
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
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/blob"
	"github.com/aktivio/aktivio-server/internal/app/system/search"
	"github.com/aktivio/aktivio-server/internal/domain/models"
	"github.com/aktivio/aktivio-server/internal/testutil"
)

var testSignKey = []byte("0123456789abcdef0123456789abcdef")

type env struct {
	h     *Handler
	coord *membership.Coordinator
	fx    *testutil.Fixtures
}

func newEnv(t *testing.T, db *mongo.Database) *env {
	t.Helper()

	blobs, err := blob.NewLocal(t.TempDir(), "http://localhost:8080", testSignKey, 0)
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}

	users := userstore.New(db)
	communities := communitystore.New(db)
	posts := poststore.New(db)
	coord := membership.New(db, users, communities, posts, eventstore.New(db), search.NewMongo(db), zap.NewNop())
	return &env{
		h:     NewHandler(posts, coord, blobs, zap.NewNop()),
		coord: coord,
		fx:    testutil.NewFixtures(t, db),
	}
}

// memberIn creates a user and joins them to the community.
func (e *env) memberIn(ctx context.Context, t *testing.T, communityID primitive.ObjectID, name string) models.User {
	t.Helper()
	u := e.fx.CreateUser(ctx, name)
	if err := e.coord.Join(ctx, u.ID, communityID); err != nil {
		t.Fatalf("join: %v", err)
	}
	return u
}

func feedRequest(t *testing.T, method, target string, body any, userID string, communityID primitive.ObjectID, postID string) *http.Request {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = testutil.NewJSONRequest(t, method, target, body)
	} else {
		r = testutil.NewRequest(method, target)
	}
	r = testutil.WithChiURLParam(testutil.WithUser(r, userID), "communityID", communityID.Hex())
	if postID != "" {
		r = testutil.WithChiURLParam(r, "postID", postID)
	}
	return r
}

func TestCreateRequiresMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	outsider := e.fx.CreateUser(ctx, "Outsider")
	community := e.fx.CreateCommunity(ctx, "Club")

	req := feedRequest(t, http.MethodPost, "/posts", createRequest{Title: "Hi", Content: "there"}, outsider.ID, community.ID, "")
	rec := httptest.NewRecorder()
	e.h.Create(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCreateSanitizesContent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	community := e.fx.CreateCommunity(ctx, "Club")
	author := e.memberIn(ctx, t, community.ID, "Author")

	req := feedRequest(t, http.MethodPost, "/posts", createRequest{
		Title:   "<b>Title</b>",
		Content: `ran 5k <script>alert("x")</script> today`,
	}, author.ID, community.ID, "")
	rec := httptest.NewRecorder()
	e.h.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data postResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Data.Title != "Title" {
		t.Errorf("title = %q, want tags stripped", resp.Data.Title)
	}
	if strings.Contains(resp.Data.Content, "<script>") {
		t.Errorf("content = %q, want script removed", resp.Data.Content)
	}
	if resp.Data.Author != author.ID {
		t.Errorf("author = %q, want %q", resp.Data.Author, author.ID)
	}
}

func TestListPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	community := e.fx.CreateCommunity(ctx, "Club")
	reader := e.memberIn(ctx, t, community.ID, "Reader")

	for _, title := range []string{"one", "two", "three"} {
		e.fx.CreatePost(ctx, community.ID, reader.ID, title)
	}

	req := feedRequest(t, http.MethodGet, "/posts?limit=2", nil, reader.ID, community.ID, "")
	rec := httptest.NewRecorder()
	e.h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var first struct {
		Data listResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &first)
	if len(first.Data.Posts) != 2 {
		t.Fatalf("first page = %d posts, want 2", len(first.Data.Posts))
	}
	if first.Data.NextCursor == "" {
		t.Fatal("expected a next cursor on a partial page")
	}

	req = feedRequest(t, http.MethodGet, "/posts?limit=2&after="+first.Data.NextCursor, nil, reader.ID, community.ID, "")
	rec = httptest.NewRecorder()
	e.h.List(rec, req)
	var second struct {
		Data listResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &second)
	if len(second.Data.Posts) != 1 {
		t.Fatalf("second page = %d posts, want 1", len(second.Data.Posts))
	}
	if second.Data.NextCursor != "" {
		t.Errorf("next cursor = %q, want empty on the last page", second.Data.NextCursor)
	}
	if second.Data.Posts[0].ID == first.Data.Posts[0].ID || second.Data.Posts[0].ID == first.Data.Posts[1].ID {
		t.Error("second page repeats the first")
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	community := e.fx.CreateCommunity(ctx, "Club")
	reader := e.memberIn(ctx, t, community.ID, "Reader")

	req := feedRequest(t, http.MethodGet, "/posts?after=%21%21not-a-cursor", nil, reader.ID, community.ID, "")
	rec := httptest.NewRecorder()
	e.h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateAuthorOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	community := e.fx.CreateCommunity(ctx, "Club")
	author := e.memberIn(ctx, t, community.ID, "Author")
	other := e.memberIn(ctx, t, community.ID, "Other")
	post := e.fx.CreatePost(ctx, community.ID, author.ID, "Original")

	body := updateRequest{Title: "Edited", Content: "new content"}
	req := feedRequest(t, http.MethodPut, "/posts/x", body, other.ID, community.ID, post.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.Update(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-author status = %d, want 403", rec.Code)
	}

	req = feedRequest(t, http.MethodPut, "/posts/x", body, author.ID, community.ID, post.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("author status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data postResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Data.Title != "Edited" {
		t.Errorf("title = %q, want Edited", resp.Data.Title)
	}
}

func TestGetWrongCommunityIs404(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	home := e.fx.CreateCommunity(ctx, "Home")
	away := e.fx.CreateCommunity(ctx, "Away")
	u := e.memberIn(ctx, t, home.ID, "Member")
	if err := e.coord.Join(ctx, u.ID, away.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	post := e.fx.CreatePost(ctx, away.ID, u.ID, "Elsewhere")

	req := feedRequest(t, http.MethodGet, "/posts/x", nil, u.ID, home.ID, post.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAddImage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	community := e.fx.CreateCommunity(ctx, "Club")
	author := e.memberIn(ctx, t, community.ID, "Author")
	post := e.fx.CreatePost(ctx, community.ID, author.ID, "With image")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "run.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/posts/x/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithChiURLParam(testutil.WithUser(req, author.ID), "communityID", community.ID.Hex())
	req = testutil.WithChiURLParam(req, "postID", post.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.AddImage(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	get := feedRequest(t, http.MethodGet, "/posts/x", nil, author.ID, community.ID, post.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.Get(rec, get)
	var resp struct {
		Data postResponse `json:"data"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if len(resp.Data.ImageURLs) != 1 || !strings.Contains(resp.Data.ImageURLs[0], "/files/") {
		t.Errorf("image_urls = %v, want one /files/ link", resp.Data.ImageURLs)
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e := newEnv(t, db)
	community := e.fx.CreateCommunity(ctx, "Club")
	author := e.memberIn(ctx, t, community.ID, "Author")
	post := e.fx.CreatePost(ctx, community.ID, author.ID, "Doomed")

	req := feedRequest(t, http.MethodDelete, "/posts/x", nil, author.ID, community.ID, post.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.Delete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	get := feedRequest(t, http.MethodGet, "/posts/x", nil, author.ID, community.ID, post.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.Get(rec, get)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", rec.Code)
	}
}
