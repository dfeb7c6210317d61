package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "jwt-secret", "password",
}

type Config struct {
	Port               int      `env:"PORT" envDefault:"8080"`
	Environment        string   `env:"ENVIRONMENT" envDefault:"development"`
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	RedisURL           string   `env:"REDIS_URL"`
	JWTSecret          string   `env:"JWT_SECRET"`
	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectBase  string   `env:"OAUTH_REDIRECT_BASE" envDefault:"http://localhost:8080"`
	ClientBaseURL      string   `env:"CLIENT_BASE_URL" envDefault:"http://localhost:3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	AdminEmails        []string `env:"ADMIN_EMAILS" envSeparator:","`
	SupportEmail       string   `env:"SUPPORT_EMAIL" envDefault:"support@ledgerly.app"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	RunMigrations      bool     `env:"RUN_MIGRATIONS" envDefault:"true"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GoogleCallbackURL() string {
	return strings.TrimRight(c.OAuthRedirectBase, "/") + "/auth/google/callback"
}

// AllowedOrigins falls back to the client origin when no explicit list is set.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) > 0 {
		return c.CORSAllowedOrigins
	}
	u, err := url.Parse(c.ClientBaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}

func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.ClientBaseURL); err != nil {
		return fmt.Errorf("CLIENT_BASE_URL must be an absolute URL: %w", err)
	}

	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty: credential issuance is disabled until it is set")
	}

	if c.IsProduction() {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			log.Warn().Msg("Google OAuth credentials are empty in production: Google sign-in disabled")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: rate limits are per instance only")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if strings.HasPrefix(c.ClientBaseURL, "http://") {
			return fmt.Errorf("CLIENT_BASE_URL must use https in production: credentials travel in the handoff URL")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: go run scripts/gen-secret.go)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
