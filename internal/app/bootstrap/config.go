// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Aktivio.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, auth_token_secret, etc.
//   - Environment variables: AKTIVIO_MONGO_URI, AKTIVIO_AUTH_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --auth_token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "aktivio", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer token verification
	{Name: "auth_token_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC secret for bearer tokens (must be strong in production)"},

	// File storage
	{Name: "blob_root", Default: "./uploads", Desc: "Directory for uploaded files"},
	{Name: "blob_base_url", Default: "http://localhost:8080", Desc: "Public base URL for signed file links"},
	{Name: "blob_sign_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC key for signing file URLs (32+ bytes)"},
	{Name: "blob_url_ttl", Default: "15m", Desc: "Signed file URL lifetime (e.g., 15m, 1h)"},

	// Recommendation service
	{Name: "recommender_url", Default: "http://localhost:5000", Desc: "Base URL of the sport recommendation service"},

	// Background worker schedule
	{Name: "calorie_reset_interval", Default: "10m", Desc: "Interval for the daily calorie rollover sweep"},
	{Name: "event_sweep_interval", Default: "1m", Desc: "Interval for finishing overdue events"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, AKTIVIO_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "AKTIVIO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AuthTokenSecret: appValues.String("auth_token_secret"),

		BlobRoot:    appValues.String("blob_root"),
		BlobBaseURL: appValues.String("blob_base_url"),
		BlobSignKey: appValues.String("blob_sign_key"),
		BlobURLTTL:  appValues.Duration("blob_url_ttl", 15*time.Minute),

		RecommenderURL: appValues.String("recommender_url"),

		CalorieResetInterval: appValues.Duration("calorie_reset_interval", 10*time.Minute),
		EventSweepInterval:   appValues.Duration("event_sweep_interval", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI and key lengths are checked here so misconfiguration
// fails before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.AuthTokenSecret) < 32 {
		return fmt.Errorf("auth_token_secret must be at least 32 bytes")
	}
	if len(appCfg.BlobSignKey) < 32 {
		return fmt.Errorf("blob_sign_key must be at least 32 bytes")
	}
	if appCfg.CalorieResetInterval <= 0 || appCfg.EventSweepInterval <= 0 {
		return fmt.Errorf("worker intervals must be positive")
	}
	return nil
}
