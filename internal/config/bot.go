package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL      string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Nickname   string `env:"BOT_NICKNAME" envDefault:"pad-bot"`
	IntervalMS int    `env:"BOT_INTERVAL_MS" envDefault:"250"`
	Claim      bool   `env:"BOT_CLAIM" envDefault:"true"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
