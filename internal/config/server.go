package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	TaskCatalogPath  string `env:"TASK_CATALOG_PATH"`
	TaskCatalogWatch bool   `env:"TASK_CATALOG_WATCH" envDefault:"false"`

	SessionIdleTTL    time.Duration `env:"SESSION_IDLE_TTL" envDefault:"6h"`
	JanitorInterval   time.Duration `env:"JANITOR_INTERVAL" envDefault:"1m"`
	EmptySessionGrace time.Duration `env:"EMPTY_SESSION_GRACE" envDefault:"30s"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
