// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging, and CORS; AppConfig is everything specific to this
// service: the MongoDB connection, the token secret, file storage, the
// recommendation service, and the background worker schedule.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer token verification
	AuthTokenSecret string // HMAC secret for verifying bearer tokens (must be strong in production)

	// File storage configuration
	BlobRoot    string        // Directory holding uploaded files
	BlobBaseURL string        // Public base URL signed file links are built on
	BlobSignKey string        // HMAC key for signing file URLs (32+ bytes)
	BlobURLTTL  time.Duration // How long signed file URLs stay valid

	// External recommendation service
	RecommenderURL string // Base URL of the sport recommendation service

	// Background worker schedule
	CalorieResetInterval time.Duration // How often the calorie rollover sweep runs
	EventSweepInterval   time.Duration // How often overdue events are finished and paid
}
