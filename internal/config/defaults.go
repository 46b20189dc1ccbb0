package config

import (
	"github.com/spf13/viper"

	"github.com/mrz1836/keel/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are the base layer that config files and environment
// variables override.
func DefaultConfig() *Config {
	return &Config{
		// DefaultBranch: "main" is the modern git default. Projects using
		// "master" or a develop-based flow should override in their config.
		DefaultBranch: "main",

		// DefaultRemote: "origin" is the standard git remote name.
		DefaultRemote: "origin",

		// AutoPush: false keeps finished workflows local until the user
		// pushes explicitly. Set to true for automation-heavy setups.
		AutoPush: false,

		// ShowEmoji: on by default, disabled automatically for non-TTY output.
		ShowEmoji: true,

		Git: GitConfig{
			CommandTimeout: constants.DefaultGitTimeout,
			NetworkTimeout: constants.DefaultNetworkTimeout,
		},
	}
}

// setDefaults registers the default values on a viper instance so they
// survive partial config files.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("default_branch", def.DefaultBranch)
	v.SetDefault("default_remote", def.DefaultRemote)
	v.SetDefault("auto_push", def.AutoPush)
	v.SetDefault("show_emoji", def.ShowEmoji)
	v.SetDefault("git.command_timeout", def.Git.CommandTimeout)
	v.SetDefault("git.network_timeout", def.Git.NetworkTimeout)
}
