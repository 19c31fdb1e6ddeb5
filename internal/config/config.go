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
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"data/treasurehunt.db"`
	LogLevel       slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir         string        `env:"SPA_DIR" envDefault:"../web/dist"`
	RedisURL       string        `env:"REDIS_URL"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	PlayerTokenTTL time.Duration `env:"PLAYER_TOKEN_TTL" envDefault:"12h"`
	PublicURL      string        `env:"PUBLIC_URL"`
	PathLockTTL    time.Duration `env:"PATH_LOCK_TTL" envDefault:"30s"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
