package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".caselift"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads a YAML configuration file.
// Only the keys present in the file are set on the returned Config.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .caselift in the current directory
// 3. Look for .caselift in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Load returns the defaults merged with the configuration file, if one is
// found. An explicit configPath that does not exist is an error; a missing
// implicit file is not. The returned string is the file that was used.
func Load(configPath string) (*Config, string, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return cfg, "", nil
	}

	fileCfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, "", err
	}
	if err := Merge(cfg, fileCfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Merge copies every non-zero field of override onto dst.
func Merge(dst, override *Config) error {
	if override == nil {
		return nil
	}
	explicit := dst.ConfigFilePath
	if err := mergo.Merge(dst, *override, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge configuration: %w", err)
	}
	dst.ConfigFilePath = explicit
	return nil
}
