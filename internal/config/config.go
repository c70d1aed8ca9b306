// Package config loads the release vote engine's configuration from a
// YAML file with environment-variable overrides, following
// jra3-linear-fuse/internal/config's LoadWithEnv(getenv) pattern so tests
// can inject an isolated environment instead of mutating process state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the recognized configuration for the release vote engine.
type Config struct {
	// DevEnvironment enables the hard-coded test message id, disables the
	// single-ongoing-vote-task constraint, and loosens the
	// ReleaseLatestVoteTask filter (spec §6).
	DevEnvironment bool `yaml:"dev_environment"`

	Database   DatabaseConfig   `yaml:"database"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Verifier   VerifierConfig   `yaml:"verifier"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig configures the transactional SQLite-backed data session.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DirectoryConfig configures the directory-service client.
type DirectoryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ArchiveConfig configures the mail-archive reader.
type ArchiveConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// VerifierConfig configures the trusted-automation token verifier.
type VerifierConfig struct {
	JWKSURL  string        `yaml:"jwks_url"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns sane defaults before file/env overrides apply.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "voteengine.db"},
		Directory: DirectoryConfig{
			BaseURL: "https://whimsy.apache.org/public/public_ldap_people.json",
			Timeout: 15 * time.Second,
		},
		Archive: ArchiveConfig{
			BaseURL: "https://lists.apache.org",
			Timeout: 15 * time.Second,
		},
		Verifier: VerifierConfig{
			Issuer:  "https://token.actions.githubusercontent.com",
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads configuration using the real process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv loads configuration from the YAML file at path (if it
// exists), then applies environment-variable overrides via getenv. This
// indirection lets tests supply an isolated environment map.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file: defaults + env only.
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if v := getenv("DEV_ENVIRONMENT"); v != "" {
		cfg.DevEnvironment = boolFromStr(v)
	}
	if v := getenv("VOTEENGINE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := getenv("VOTEENGINE_DIRECTORY_URL"); v != "" {
		cfg.Directory.BaseURL = v
	}
	if v := getenv("VOTEENGINE_ARCHIVE_URL"); v != "" {
		cfg.Archive.BaseURL = v
	}

	return cfg, nil
}

func boolFromStr(s string) bool {
	switch s {
	case "1", "t", "T", "true", "TRUE", "True":
		return true
	default:
		return false
	}
}

// DefaultConfigPath mirrors linearfs' XDG-aware resolution: prefer
// XDG_CONFIG_HOME, else ~/.config.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "voteengine", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "voteengine", "config.yaml")
}
