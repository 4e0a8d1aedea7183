package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LoginPath string `env:"LOGIN_PATH, default=/login"`

	Backend BackendConfig
	IDP     IDPConfig
	Session SessionConfig
	Redis   RedisConfig
	Mongo   MongoConfig
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:9000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
}

type IDPConfig struct {
	// Mode selects the identity provider implementation: "local" for the
	// built-in dev provider, "remote" for an external HTTP provider.
	Mode     string        `env:"IDP_MODE,      default=local"`
	URL      string        `env:"IDP_URL"`
	Secret   string        `env:"IDP_SECRET"`
	TokenTTL time.Duration `env:"IDP_TOKEN_TTL, default=1h"`
}

type SessionConfig struct {
	// FallbackTTL bounds sessions whose tokens carry no readable expiry.
	FallbackTTL  time.Duration `env:"SESSION_FALLBACK_TTL, default=24h"`
	RoleCacheTTL time.Duration `env:"ROLE_CACHE_TTL,       default=5m"`
	AuditWorkers int           `env:"AUDIT_WORKERS,        default=4"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=insight_edge"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.IDP.Mode == "remote" && cfg.IDP.URL == "" {
		return nil, fmt.Errorf("config: IDP_URL is required when IDP_MODE=remote")
	}
	return &cfg, nil
}
