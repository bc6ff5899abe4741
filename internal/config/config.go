// Package config loads YAML configuration files with environment variable
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Load fills dst from the YAML file at path, then applies overrides from
// environment variables named by dst's `env` struct tags. dst should already
// hold defaults. An empty path skips the file; a missing file is an error, as
// is an environment value that does not parse into its field.
func Load(path string, dst any) error {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// StrictDecode reports ErrInvalidTarget when no variable is set.
	if err := envdecode.StrictDecode(dst); err != nil && !errors.Is(err, envdecode.ErrInvalidTarget) {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}
