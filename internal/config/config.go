// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	LinkerToken string
	SongsPath   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        3003,
		LinkerToken: os.Getenv("LINKER_TOKEN"),
		SongsPath:   firstNonEmpty(os.Getenv("SONGS_PATH"), "data/songs.json"),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT (must be between 1-65535 inclusive): %d", cfg.Port)
	}
	if cfg.LinkerToken == "" {
		return nil, errors.New("missing LINKER_TOKEN")
	}

	return cfg, nil
}

func firstNonEmpty(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
