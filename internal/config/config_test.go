package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 1024, cfg.Hub.QueueSize)
	assert.Equal(t, 4, cfg.Hub.DeliveryWorkers)
	assert.False(t, cfg.Presence.SweepEnabled)
	assert.Equal(t, 300*time.Second, cfg.Presence.IdleTimeout)
	assert.False(t, cfg.Workflow.CycleCheck)
	assert.Empty(t, cfg.Auth.AdminUsers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKHIVE_HTTP_PORT", "9999")
	t.Setenv("HUB_QUEUE_SIZE", "16")
	t.Setenv("AUTH_ADMIN_USERS", "u1,u2")
	t.Setenv("WORKFLOW_CYCLE_CHECK", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTPPort)
	assert.Equal(t, 16, cfg.Hub.QueueSize)
	assert.Equal(t, []string{"u1", "u2"}, cfg.Auth.AdminUsers)
	assert.True(t, cfg.Workflow.CycleCheck)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort: 8080,
			GRPCPort: 9090,
			LogLevel: "info",
			Redis:    RedisConfig{Addr: "localhost:6379"},
			Hub:      HubConfig{QueueSize: 1024, DeliveryWorkers: 4},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid http port", func(c *Config) { c.HTTPPort = 0 }},
		{"invalid grpc port", func(c *Config) { c.GRPCPort = 70000 }},
		{"missing redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"zero queue size", func(c *Config) { c.Hub.QueueSize = 0 }},
		{"zero workers", func(c *Config) { c.Hub.DeliveryWorkers = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"sweep enabled without interval", func(c *Config) {
			c.Presence.SweepEnabled = true
			c.Presence.IdleTimeout = time.Minute
		}},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetAddrs(t *testing.T) {
	cfg := &Config{HTTPPort: 8080, GRPCPort: 9090}
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}
