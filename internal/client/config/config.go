// Package config holds the settings of the command-line session client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL         string        `env:"LEDGERLY_API_URL" envDefault:"http://localhost:8080"`
	SessionDB      string        `env:"LEDGERLY_SESSION_DB"`
	CheckInterval  time.Duration `env:"LEDGERLY_CHECK_INTERVAL" envDefault:"30s"`
	RequestTimeout time.Duration `env:"LEDGERLY_REQUEST_TIMEOUT" envDefault:"10s"`
	SupportEmail   string        `env:"LEDGERLY_SUPPORT_EMAIL" envDefault:"support@ledgerly.app"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// SessionPath returns the store location, defaulting to the user config dir.
func (c *Config) SessionPath() (string, error) {
	if c.SessionDB != "" {
		return c.SessionDB, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "ledgerly", "session.db"), nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("LEDGERLY_API_URL must be an absolute URL")
	}
	if c.CheckInterval < time.Second {
		return fmt.Errorf("LEDGERLY_CHECK_INTERVAL must be at least 1s, got %s", c.CheckInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("LEDGERLY_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	return &cfg, nil
}
