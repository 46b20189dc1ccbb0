package config

import (
	"fmt"
	"strings"

	"github.com/mrz1836/keel/internal/errors"
)

// Validate checks a Config for values that would break engines at runtime.
// Feature option maps are not validated here: their schemas are owned by the
// feature engines and checked when the feature is activated.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil: %w", errors.ErrConfigInvalid)
	}

	if strings.TrimSpace(cfg.DefaultBranch) == "" {
		return fmt.Errorf("default_branch cannot be empty: %w", errors.ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.DefaultRemote) == "" {
		return fmt.Errorf("default_remote cannot be empty: %w", errors.ErrConfigInvalid)
	}

	if cfg.Git.CommandTimeout <= 0 {
		return fmt.Errorf("git.command_timeout must be positive: %w", errors.ErrConfigInvalid)
	}
	if cfg.Git.NetworkTimeout <= 0 {
		return fmt.Errorf("git.network_timeout must be positive: %w", errors.ErrConfigInvalid)
	}
	if cfg.Git.NetworkTimeout < cfg.Git.CommandTimeout {
		return fmt.Errorf("git.network_timeout must not be shorter than git.command_timeout: %w", errors.ErrConfigInvalid)
	}

	if cfg.Email != "" && !strings.Contains(cfg.Email, "@") {
		return fmt.Errorf("email %q is not a valid address: %w", cfg.Email, errors.ErrConfigInvalid)
	}

	return nil
}
