package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
)

// configFileName is the configuration file name in both scopes.
const configFileName = "config.yaml"

// GlobalConfigDir returns the path to the global KEEL configuration
// directory, typically ~/.keel on Unix systems.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.KeelHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file,
// typically ~/.keel/config.yaml.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, configFileName), nil
}

// ProjectConfigDir returns the relative path to the project configuration
// directory. This is always .keel relative to the repository root.
func ProjectConfigDir() string {
	return constants.KeelHome
}

// ProjectConfigPath returns the relative path to the project configuration
// file. This is always .keel/config.yaml relative to the repository root.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), configFileName)
}
