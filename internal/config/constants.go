package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Health check timeouts
const (
	DBPingTimeout      = 5 * time.Second
	MigrationTimeout   = 60 * time.Second
	HealthCheckTimeout = 2 * time.Second
)

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// OAuth
const (
	OAuthStateTTL        = 10 * time.Minute
	OAuthProviderTimeout = 10 * time.Second
)

// Rate limits for unauthenticated auth endpoints, per client IP
const (
	AuthRateLimitPerMin    = 10
	ContactRateLimitPerMin = 5
	RateLimitWindow        = time.Minute
)

// Request body cap
const MaxBodyBytes = 1 << 20
