package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/playbook.db"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir      string     `env:"SPA_DIR" envDefault:"../web/dist"`
	BaseURL     string     `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RedisURL    string     `env:"REDIS_URL"`
	CORSOrigins []string   `env:"CORS_ORIGINS" envSeparator:","`

	MergePolicy string        `env:"MERGE_POLICY" envDefault:"local-wins"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	ShareRateLimit float64       `env:"SHARE_RATE_LIMIT" envDefault:"5"`
	ShareRateBurst int           `env:"SHARE_RATE_BURST" envDefault:"10"`
	ShareCacheTTL  time.Duration `env:"SHARE_CACHE_TTL" envDefault:"10m"`

	// DemoEmail, when set, seeds a demo account with a starter playbook.
	DemoEmail    string `env:"DEMO_EMAIL"`
	DemoPassword string `env:"DEMO_PASSWORD" envDefault:"flagtactics"`
}

// Load reads configuration from the environment. A .env file in the
// working directory, if present, is loaded first without overriding
// variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	switch cfg.MergePolicy {
	case "local-wins", "newest-wins":
	default:
		return nil, fmt.Errorf("MERGE_POLICY: unknown policy %q", cfg.MergePolicy)
	}
	return &cfg, nil
}
