package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/keel/internal/errors"
)

// newViperInstance creates a Viper instance with standard KEEL configuration:
// defaults, the KEEL_ environment prefix, and a key replacer so nested keys
// map to env vars (git.command_timeout -> KEEL_GIT_COMMAND_TIMEOUT).
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("KEEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// viperDecoderOption returns the decode hook used when unmarshaling,
// allowing durations to be written as strings ("30s", "5m") in YAML.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// isConfigNotFoundError returns true if the error is a viper config file not
// found error. Missing config files are expected in many scenarios.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}

// Load reads configuration from all available sources with proper precedence:
// environment variables over project config over global config over defaults.
//
// The function returns an error only for actual configuration problems,
// not for missing config files.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Global config first (lower precedence), project config merges over it.
	if err := readConfigFile(v, globalConfigPathIfExists()); err != nil {
		return nil, errors.Wrap(err, "failed to read global config file")
	}
	if err := readConfigFile(v, projectConfigPathIfExists()); err != nil {
		return nil, errors.Wrap(err, "failed to read project config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("default_branch", cfg.DefaultBranch).
		Str("default_remote", cfg.DefaultRemote).
		Int("feature_overrides", len(cfg.AdvancedFeatures)).
		Msg("configuration loaded")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// readConfigFile merges one config file into the viper instance.
// An empty path or a missing file is skipped silently.
func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return err
	}
	return nil
}

// globalConfigPathIfExists returns the global config path if it exists,
// empty string otherwise.
func globalConfigPathIfExists() string {
	path, err := GlobalConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// projectConfigPathIfExists returns the project config path if it exists in
// the current working directory, empty string otherwise.
func projectConfigPathIfExists() string {
	path := ProjectConfigPath()
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
