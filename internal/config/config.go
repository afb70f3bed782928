// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Port              int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	NodeID            string        `env:"NODE_ID"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	GinMode           string        `env:"GIN_MODE,default=release" validate:"oneof=debug release test"`
	RedisURL          string        `env:"REDIS_URL" validate:"omitempty,url"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	SessionTTL        time.Duration `env:"SESSION_TTL,default=24h" validate:"gt=0"`
	MaxRoomNameLength int           `env:"MAX_ROOM_NAME_LENGTH,default=128" validate:"min=0"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256" validate:"min=1"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s" validate:"gt=0"`
}

// Load reads .env.local or .env when present, then the process
// environment. It reports whether a dotenv file was found.
func Load() (Config, bool, error) {
	found := true
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			found = false
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, found, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.NodeID == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "local"
		}
		cfg.NodeID = host
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, found, err
	}
	return cfg, found, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
