// Package config reads server configuration from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string `env:"RTS_ADDR" envDefault:":8080"`
	LogLevel  string `env:"RTS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"RTS_LOG_FORMAT" envDefault:"json"`

	StartingResources int     `env:"RTS_STARTING_RESOURCES" envDefault:"500"`
	BuildRange        float64 `env:"RTS_BUILD_RANGE" envDefault:"5"`
	MinPlayers        int     `env:"RTS_MIN_PLAYERS" envDefault:"2"`
	UnitHealth        int     `env:"RTS_UNIT_HEALTH" envDefault:"100"`
	MapID             string  `env:"RTS_MAP_ID" envDefault:"Scene_Map_01"`

	// CatalogPath and MapsPath override the data compiled into the binary.
	CatalogPath string `env:"RTS_CATALOG_PATH"`
	MapsPath    string `env:"RTS_MAPS_PATH"`
	// DatabaseURL, when set, loads the building catalog from postgres.
	DatabaseURL string `env:"RTS_DATABASE_URL"`
	SeedCatalog bool   `env:"RTS_SEED_CATALOG" envDefault:"false"`

	OutboxSize     int      `env:"RTS_OUTBOX_SIZE" envDefault:"32"`
	OriginPatterns []string `env:"RTS_ORIGIN_PATTERNS" envSeparator:","`
}

// Load reads envFiles (default ".env") if present, then parses the
// environment. Missing env files are not an error.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.StartingResources < 0:
		return fmt.Errorf("RTS_STARTING_RESOURCES must not be negative, got %d", c.StartingResources)
	case c.BuildRange <= 0:
		return fmt.Errorf("RTS_BUILD_RANGE must be positive, got %v", c.BuildRange)
	case c.MinPlayers < 2:
		return fmt.Errorf("RTS_MIN_PLAYERS must be at least 2, got %d", c.MinPlayers)
	case c.UnitHealth <= 0:
		return fmt.Errorf("RTS_UNIT_HEALTH must be positive, got %d", c.UnitHealth)
	}
	return nil
}
