package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"3000"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	// FrontendURL is where login redirects land and the only origin the
	// CORS layer allows with credentials.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	MongoURI      string `env:"MONGODB_URI,required"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"chirpgate"`

	// Optional. When set, the pending-login registry is backed by Redis
	// instead of process memory, which a multi-instance deployment needs.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	TwitterClientID     string `env:"TWITTER_CLIENT_ID,required"`
	TwitterClientSecret string `env:"TWITTER_CLIENT_SECRET,required"`
	TwitterCallbackURL  string `env:"TWITTER_CALLBACK_URL,required"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// LoginAttemptTTL bounds how long an abandoned login attempt keeps
	// its state/verifier entry alive.
	LoginAttemptTTL time.Duration `env:"LOGIN_ATTEMPT_TTL" envDefault:"10m"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Production reports whether the service runs with the production
// cookie policy (Secure, SameSite=None).
func (c *Config) Production() bool {
	return c.Environment == "production"
}
