package config

import (
	"fmt"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "ECOSWAP"

type Config struct {
	DBPath        string         `envconfig:"DB_PATH"`
	HTTPPort      int            `envconfig:"HTTP_PORT" default:"56234"`
	SweepInterval time.Duration  `envconfig:"SWEEP_INTERVAL" default:"1m"`
	RequestTTL    time.Duration  `envconfig:"REQUEST_TTL" default:"720h"`
	StrictTokens  bool           `envconfig:"STRICT_TOKENS" default:"false"`
	MCPEnabled    bool           `envconfig:"MCP_ENABLED" default:"true"`
	SourceName    string         `envconfig:"SOURCE_NAME" default:"ecoswap"`
	Log           *logger.Config `envconfig:"LOG"`
}

// Load reads an optional .env file and then the ECOSWAP_* environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid config: http port %d out of range", c.HTTPPort)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("invalid config: sweep interval must be positive")
	}
	if c.RequestTTL <= 0 {
		return fmt.Errorf("invalid config: request ttl must be positive")
	}
	return nil
}

// BaseURL is where this process, or the one already owning the port,
// serves the HTTP API.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", c.HTTPPort)
}
