// Package config provides configuration management for KEEL with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. Environment variables (KEEL_* prefix)
//  2. Project config (.keel/config.yaml)
//  3. Global config (~/.keel/config.yaml)
//  4. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
// Feature-specific options live under advanced_features, keyed by feature
// name; their defaults are owned by the feature engines and merged at
// activation time, not here.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for KEEL.
type Config struct {
	// Name is the user's display name for commit identity checks.
	Name string `yaml:"name" mapstructure:"name"`

	// Email is the user's email for commit identity checks.
	Email string `yaml:"email" mapstructure:"email"`

	// DefaultBranch is the integration branch new work is merged into.
	// Default: "main"
	DefaultBranch string `yaml:"default_branch" mapstructure:"default_branch"`

	// DefaultRemote is the remote used when none is specified.
	// Default: "origin"
	DefaultRemote string `yaml:"default_remote" mapstructure:"default_remote"`

	// AutoPush pushes the integration branch after a finished workflow.
	// Default: false
	AutoPush bool `yaml:"auto_push" mapstructure:"auto_push"`

	// ShowEmoji enables emoji in user-facing output.
	// Default: true
	ShowEmoji bool `yaml:"show_emoji" mapstructure:"show_emoji"`

	// Git contains settings for git command execution.
	Git GitConfig `yaml:"git" mapstructure:"git"`

	// AdvancedFeatures holds per-feature option overrides keyed by feature
	// name (e.g. "branch_workflows", "backup_system"). Unknown keys are
	// preserved so features can evolve their option sets independently.
	AdvancedFeatures map[string]map[string]any `yaml:"advanced_features" mapstructure:"advanced_features"`
}

// GitConfig contains settings for git command execution.
type GitConfig struct {
	// CommandTimeout bounds local git commands.
	// Default: 30 seconds
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`

	// NetworkTimeout bounds git commands that touch the network.
	// Default: 5 minutes
	NetworkTimeout time.Duration `yaml:"network_timeout" mapstructure:"network_timeout"`
}

// FeatureOverrides returns the user-supplied option overrides for a feature,
// or nil when none are configured.
func (c *Config) FeatureOverrides(feature string) map[string]any {
	if c.AdvancedFeatures == nil {
		return nil
	}
	return c.AdvancedFeatures[feature]
}
