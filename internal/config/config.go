package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Addr is the practice server listen address.
	Addr string `env:"GERRY_ADDR" envDefault:":8080"`
	// ServerURL is the player websocket endpoint the client dials.
	ServerURL string `env:"GERRY_SERVER_URL" envDefault:"ws://localhost:8080/ws/player"`
	// IdentityFile overrides where the client token is stored.
	IdentityFile string `env:"GERRY_IDENTITY_FILE"`
	// RoundSeconds is the playing-phase countdown length.
	RoundSeconds int `env:"GERRY_ROUND_SECONDS" envDefault:"60"`
	// Debug switches zap to its development config.
	Debug bool `env:"GERRY_DEBUG" envDefault:"false"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
