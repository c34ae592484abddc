// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/aktivio/aktivio-server/internal/app/membership"
	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	eventstore "github.com/aktivio/aktivio-server/internal/app/store/events"
	poststore "github.com/aktivio/aktivio-server/internal/app/store/posts"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/search"
	"github.com/aktivio/aktivio-server/internal/app/system/tasks"
	"github.com/aktivio/aktivio-server/internal/app/system/workers"
)

// runners holds the background workers started here so Shutdown can
// stop them.
var runners []*workers.Runner

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// The calorie rollover and event payout sweeps start here.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	coord := membership.New(deps.MongoDatabase,
		users,
		communitystore.New(deps.MongoDatabase),
		poststore.New(deps.MongoDatabase),
		eventstore.New(deps.MongoDatabase),
		search.NewMongo(deps.MongoDatabase),
		logger)

	jobs := []tasks.Job{
		tasks.CalorieResetJob(users, appCfg.CalorieResetInterval, logger),
		tasks.EventSweepJob(coord, appCfg.EventSweepInterval, logger),
	}
	for _, job := range jobs {
		r := workers.NewRunner(job, logger)
		r.Start()
		runners = append(runners, r)
	}
	return nil
}
