// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatmux.
//
// Configuration lives in ~/.chatmux/config.toml with sensible defaults and
// environment variable overrides. API keys are the only required settings:
// a model is selectable when its provider's key is configured.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatmux/internal/registry"
	"github.com/jeranaias/chatmux/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatmux configuration.
type Config struct {
	// Version of the config schema.
	Version string `toml:"version"`
	// DefaultModel is the model selected on startup.
	DefaultModel string `toml:"default_model"`

	// Keys holds per-provider API keys.
	Keys KeysConfig `toml:"keys"`

	// Data holds storage locations.
	Data DataConfig `toml:"data"`

	// UI holds presentation settings.
	UI UIConfig `toml:"ui"`
}

// KeysConfig contains provider API keys.
type KeysConfig struct {
	// OpenRouter API key, used by most cataloged models.
	OpenRouter string `toml:"openrouter"`
	// Google API key for Gemini models.
	Google string `toml:"google"`
	// OpenAI API key for direct GPT models.
	OpenAI string `toml:"openai"`
}

// DataConfig contains storage locations.
type DataConfig struct {
	// Dir is the directory holding the chat database and logs
	// (empty = ~/.chatmux).
	Dir string `toml:"dir"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowNavigator opens the thread navigator panel on startup
	ShowNavigator bool `toml:"show_navigator"`
	// ShowReasoning expands model reasoning traces by default
	ShowReasoning bool `toml:"show_reasoning"`
	// CompactMode uses a more compact message layout
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:      "1.0.0",
		DefaultModel: registry.DefaultModel,
		UI: UIConfig{
			Theme:         "dark",
			ShowNavigator: false,
			ShowReasoning: false,
			CompactMode:   false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatmux configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatmux"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, cfg.Validate()
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath saves the configuration to a TOML file with 0600 permissions.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# chatmux configuration file\n")
	buf.WriteString("# Generated by chatmux - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATMUX_OPENROUTER_API_KEY"); v != "" {
		c.Keys.OpenRouter = v
	}
	if v := os.Getenv("CHATMUX_GOOGLE_API_KEY"); v != "" {
		c.Keys.Google = v
	}
	if v := os.Getenv("CHATMUX_OPENAI_API_KEY"); v != "" {
		c.Keys.OpenAI = v
	}
	if v := os.Getenv("CHATMUX_DEFAULT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("CHATMUX_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DefaultModel != "" && !registry.IsValid(c.DefaultModel) {
		return fmt.Errorf("unknown default_model %q", c.DefaultModel)
	}
	switch c.UI.Theme {
	case "", "dark", "light", "auto":
	default:
		return fmt.Errorf("invalid theme %q (valid: dark, light, auto)", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// DataDir returns the resolved data directory.
func (c *Config) DataDir() (string, error) {
	if c.Data.Dir != "" {
		return c.Data.Dir, nil
	}
	return ConfigDir()
}

// DatabasePath returns the path of the chat database.
func (c *Config) DatabasePath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatmux.db"), nil
}

// LogPath returns the path of the application log file.
func (c *Config) LogPath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatmux.log"), nil
}

// ProviderKey returns the API key configured for a provider. Satisfies
// registry.Keys, so the model picker can gate selectability on it.
func (c *Config) ProviderKey(p registry.Provider) string {
	switch p {
	case registry.ProviderOpenRouter:
		return c.Keys.OpenRouter
	case registry.ProviderGoogle:
		return c.Keys.Google
	case registry.ProviderOpenAI:
		return c.Keys.OpenAI
	default:
		return ""
	}
}

// HasAnyKey reports whether at least one provider key is configured.
func (c *Config) HasAnyKey() bool {
	return c.Keys.OpenRouter != "" || c.Keys.Google != "" || c.Keys.OpenAI != ""
}
