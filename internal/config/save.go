package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
)

// advancedFeaturesKey is the YAML key holding per-feature option overrides.
const advancedFeaturesKey = "advanced_features"

// SetFeatureOption persists one feature option into the project config file
// under root. Every feature option mutation goes through here so the change
// survives the process: the file is read as a generic document, mutated, and
// written back atomically, preserving keys this version doesn't know about.
func SetFeatureOption(root, feature, key string, value any) error {
	if feature == "" || key == "" {
		return fmt.Errorf("feature and key: %w", errors.ErrEmptyValue)
	}

	path := filepath.Join(root, ProjectConfigPath())
	doc, err := readYAMLDocument(path)
	if err != nil {
		return err
	}

	features, ok := doc[advancedFeaturesKey].(map[string]any)
	if !ok {
		features = make(map[string]any)
		doc[advancedFeaturesKey] = features
	}
	options, ok := features[feature].(map[string]any)
	if !ok {
		options = make(map[string]any)
		features[feature] = options
	}
	options[key] = value

	return writeYAMLDocument(path, doc)
}

// readYAMLDocument loads a YAML file into a generic map. A missing file
// yields an empty document.
func readYAMLDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is derived from the repository root
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return doc, nil
}

// writeYAMLDocument writes a YAML document atomically (temp file + rename)
// so a crash mid-write never leaves a truncated config behind.
func writeYAMLDocument(path string, doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding config file")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPerm); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return errors.Wrap(err, "creating temp config file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp config file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp config file")
	}
	if err := os.Chmod(tmpName, constants.FilePerm); err != nil {
		return errors.Wrap(err, "setting config file permissions")
	}

	return errors.Wrap(os.Rename(tmpName, path), "replacing config file")
}
