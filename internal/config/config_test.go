package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/keel/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "main", cfg.DefaultBranch)
	assert.Equal(t, "origin", cfg.DefaultRemote)
	assert.False(t, cfg.AutoPush)
	assert.True(t, cfg.ShowEmoji)
	assert.Equal(t, 30*time.Second, cfg.Git.CommandTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Git.NetworkTimeout)

	require.NoError(t, Validate(cfg), "defaults must validate")
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty default branch", func(c *Config) { c.DefaultBranch = "  " }},
		{"empty default remote", func(c *Config) { c.DefaultRemote = "" }},
		{"zero command timeout", func(c *Config) { c.Git.CommandTimeout = 0 }},
		{"negative network timeout", func(c *Config) { c.Git.NetworkTimeout = -time.Second }},
		{"network shorter than command", func(c *Config) {
			c.Git.CommandTimeout = time.Minute
			c.Git.NetworkTimeout = time.Second
		}},
		{"malformed email", func(c *Config) { c.Email = "not-an-address" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), errors.ErrConfigInvalid)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		assert.ErrorIs(t, Validate(nil), errors.ErrConfigInvalid)
	})

	t.Run("empty email is allowed", func(t *testing.T) {
		cfg := valid()
		cfg.Email = ""
		assert.NoError(t, Validate(cfg))
	})
}

func TestFeatureOverrides(t *testing.T) {
	cfg := &Config{
		AdvancedFeatures: map[string]map[string]any{
			"backup_system": {"retention_days": 30},
		},
	}

	assert.Equal(t, map[string]any{"retention_days": 30}, cfg.FeatureOverrides("backup_system"))
	assert.Nil(t, cfg.FeatureOverrides("branch_workflows"))
	assert.Nil(t, (&Config{}).FeatureOverrides("backup_system"))
}
