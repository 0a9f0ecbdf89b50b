package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"500"`
	BodyCaptureMax  int `env:"BODY_CAPTURE_MAX_BYTES" envDefault:"4096"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
