// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	communitiesfeature "github.com/aktivio/aktivio-server/internal/app/features/communities"
	eventsfeature "github.com/aktivio/aktivio-server/internal/app/features/events"
	filesfeature "github.com/aktivio/aktivio-server/internal/app/features/files"
	healthfeature "github.com/aktivio/aktivio-server/internal/app/features/health"
	postsfeature "github.com/aktivio/aktivio-server/internal/app/features/posts"
	sportplansfeature "github.com/aktivio/aktivio-server/internal/app/features/sportplans"
	usersfeature "github.com/aktivio/aktivio-server/internal/app/features/users"
	"github.com/aktivio/aktivio-server/internal/app/membership"
	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	eventstore "github.com/aktivio/aktivio-server/internal/app/store/events"
	poststore "github.com/aktivio/aktivio-server/internal/app/store/posts"
	sportplanstore "github.com/aktivio/aktivio-server/internal/app/store/sportplans"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/auth"
	"github.com/aktivio/aktivio-server/internal/app/system/blob"
	"github.com/aktivio/aktivio-server/internal/app/system/ratelimit"
	"github.com/aktivio/aktivio-server/internal/app/system/recommend"
	"github.com/aktivio/aktivio-server/internal/app/system/search"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Health checks and signed file downloads are served without
// authentication. Everything else requires a bearer token.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	blobs, err := blob.NewLocal(appCfg.BlobRoot, appCfg.BlobBaseURL, []byte(appCfg.BlobSignKey), appCfg.BlobURLTTL)
	if err != nil {
		logger.Error("blob store init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	communities := communitystore.New(db)
	posts := poststore.New(db)
	events := eventstore.New(db)
	plans := sportplanstore.New(db)
	index := search.NewMongo(db)
	recommender := recommend.NewClient(appCfg.RecommenderURL)

	coord := membership.New(db, users, communities, posts, events, index, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Signed blob downloads. The token in the URL is the authorization,
	// so this stays outside the auth group but behind a per-IP limiter.
	limiter := ratelimit.New(120, time.Minute)
	filesHandler := filesfeature.NewHandler(blobs, logger)
	r.With(limiter.Middleware).Mount("/files", filesfeature.Routes(filesHandler))

	// Everything below requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware([]byte(appCfg.AuthTokenSecret)))

		usersHandler := usersfeature.NewHandler(users, communities, plans, coord, blobs, logger)
		r.Mount("/users", usersfeature.Routes(usersHandler))
		r.Post("/calories/set", usersHandler.LogMeal)

		communitiesHandler := communitiesfeature.NewHandler(communities, users, coord, index, logger)
		r.Mount("/communities", communitiesfeature.Routes(communitiesHandler))
		r.Get("/search", communitiesHandler.Search)

		// Posts and events hang off a community; mounting them here keeps
		// the communityID URL param visible to their handlers.
		postsHandler := postsfeature.NewHandler(posts, coord, blobs, logger)
		r.Mount("/communities/{communityID}/posts", postsfeature.Routes(postsHandler))

		eventsHandler := eventsfeature.NewHandler(events, coord, logger)
		r.Mount("/communities/{communityID}/events", eventsfeature.Routes(eventsHandler))

		plansHandler := sportplansfeature.NewHandler(plans, users, recommender, logger)
		r.Mount("/sportplans", sportplansfeature.Routes(plansHandler))
	})

	return r, nil
}
