package config

import "github.com/caarlos0/env/v11"

type SessionConfig struct {
	JoinMode     string `env:"JOIN_MODE" envDefault:"auto"`
	CapacityMode string `env:"CAPACITY_MODE" envDefault:"auto"`
	MaxPlayers   int    `env:"MAX_PLAYERS" envDefault:"4"`
	HeroMode     string `env:"HERO_MODE" envDefault:"separate"`
	ClaimControl string `env:"CLAIM_CONTROL" envDefault:"claim"`
	TickMS       int    `env:"TICK_MS" envDefault:"50"`
	Debug        bool   `env:"SESSION_DEBUG" envDefault:"false"`
}

func LoadSession() (SessionConfig, error) {
	var cfg SessionConfig
	err := env.Parse(&cfg)
	return cfg, err
}
