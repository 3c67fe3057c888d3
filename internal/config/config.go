package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the task collaboration service
type Config struct {
	// Server configuration
	HTTPPort int    `env:"TASKHIVE_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"TASKHIVE_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration
	Redis RedisConfig

	// Broadcast hub configuration
	Hub HubConfig

	// Presence registry configuration
	Presence PresenceConfig

	// Workflow configuration
	Workflow WorkflowConfig

	// Authorization configuration
	Auth AuthConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// HubConfig holds broadcast hub configuration
type HubConfig struct {
	// QueueSize is the bound of the delivery queue. A full queue drops
	// events instead of blocking callers.
	QueueSize       int `env:"HUB_QUEUE_SIZE" envDefault:"1024"`
	DeliveryWorkers int `env:"HUB_DELIVERY_WORKERS" envDefault:"4"`
}

// PresenceConfig holds presence registry configuration
type PresenceConfig struct {
	// SweepEnabled turns on the periodic sweep that disconnects
	// connections idle past IdleTimeout. Off by default: connections that
	// never explicitly disconnect stay registered.
	SweepEnabled  bool          `env:"PRESENCE_SWEEP_ENABLED" envDefault:"false"`
	SweepInterval time.Duration `env:"PRESENCE_SWEEP_INTERVAL" envDefault:"60s"`
	IdleTimeout   time.Duration `env:"PRESENCE_IDLE_TIMEOUT" envDefault:"300s"`
}

// WorkflowConfig holds workflow controller configuration
type WorkflowConfig struct {
	// CycleCheck rejects dependency edges that would close a cycle.
	// Off by default: cyclic edges are accepted and leave the involved
	// tasks permanently unstartable.
	CycleCheck bool `env:"WORKFLOW_CYCLE_CHECK" envDefault:"false"`
}

// AuthConfig holds authorization configuration
type AuthConfig struct {
	// AdminUsers lists user ids granted the admin role by the static
	// authorizer.
	AdminUsers []string `env:"AUTH_ADMIN_USERS" envSeparator:","`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate Redis config
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate hub config
	if c.Hub.QueueSize < 1 {
		return fmt.Errorf("hub queue size must be at least 1")
	}
	if c.Hub.DeliveryWorkers < 1 {
		return fmt.Errorf("hub delivery workers must be at least 1")
	}

	// Validate presence config
	if c.Presence.SweepEnabled {
		if c.Presence.SweepInterval <= 0 {
			return fmt.Errorf("presence sweep interval must be positive")
		}
		if c.Presence.IdleTimeout <= 0 {
			return fmt.Errorf("presence idle timeout must be positive")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
