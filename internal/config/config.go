// Package config loads CLI configuration: a TOML file under the user config
// directory, overridable by a .env file and process environment.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// EnvAPIURL overrides the configured API origin.
	EnvAPIURL = "INKWELL_API_URL"
	// EnvTokenFile overrides the token file path.
	EnvTokenFile = "INKWELL_TOKEN_FILE"
)

// Config is the CLI configuration.
type Config struct {
	APIURL    string `toml:"api_url"`
	TokenFile string `toml:"token_file"`
}

// DefaultPath returns the default config file location,
// e.g. ~/.config/inkwell/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "inkwell", "config.toml"), nil
}

// DefaultTokenFile returns the default token file location, next to the
// config file.
func DefaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "inkwell", "token"), nil
}

// Read decodes a Config from the provided reader.
func Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Load reads the config file at path (a missing file is not an error),
// applies a .env file from the working directory when present, and lets
// process environment variables override both.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		cfg, err = Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("opening config file: %w", err)
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		cfg.TokenFile = v
	}

	if cfg.TokenFile == "" {
		cfg.TokenFile, err = DefaultTokenFile()
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Init writes cfg to path, failing when a config file already exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()
	return Write(f, cfg)
}
