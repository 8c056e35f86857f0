package main

import env "github.com/caarlos0/env/v11"

// Config is the process configuration, read from the environment with
// flag overrides for the common knobs (see main.go).
type Config struct {
	Addr          string `env:"HEXCLASH_ADDR" envDefault:":8080"`
	DBPath        string `env:"HEXCLASH_DB" envDefault:"hexclash.db"`
	ClientDir     string `env:"HEXCLASH_CLIENT_DIR"`
	AllowedOrigin string `env:"HEXCLASH_ALLOWED_ORIGIN"`
	PublicURL     string `env:"HEXCLASH_PUBLIC_URL"`

	Game GameConfig `envPrefix:"HEXCLASH_"`
}

// GameConfig holds the match tuning literals
type GameConfig struct {
	Radius          int `env:"RADIUS" envDefault:"6"`
	MinPlayers      int `env:"MIN_PLAYERS" envDefault:"2"`
	CenterBonusDist int `env:"CENTER_BONUS_DIST" envDefault:"2"`
	WinScore        int `env:"WIN_SCORE" envDefault:"250000"`
}

// LoadConfig parses the environment into a Config
func LoadConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}
