// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/chatmux/internal/registry"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DefaultModel != registry.DefaultModel {
		t.Errorf("DefaultModel = %q, want %q", cfg.DefaultModel, registry.DefaultModel)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", cfg.UI.Theme)
	}
	if cfg.HasAnyKey() {
		t.Error("default config should have no keys")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Keys.OpenRouter = "or-key"
	cfg.Keys.Google = "g-key"
	cfg.DefaultModel = "Claude Sonnet 4"
	cfg.UI.ShowNavigator = true

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("config file permissions = %o, want 0600", mode)
	}

	got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if got.Keys.OpenRouter != "or-key" || got.Keys.Google != "g-key" {
		t.Errorf("keys did not round trip: %+v", got.Keys)
	}
	if got.DefaultModel != "Claude Sonnet 4" {
		t.Errorf("DefaultModel = %q", got.DefaultModel)
	}
	if !got.UI.ShowNavigator {
		t.Error("ShowNavigator did not round trip")
	}
}

func TestLoadFixesInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveToPath(Default(), path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("permissions after load = %o, want 0600", mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"unknown model", func(c *Config) { c.DefaultModel = "GPT-2" }, true},
		{"empty model ok", func(c *Config) { c.DefaultModel = "" }, false},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
		{"light theme", func(c *Config) { c.UI.Theme = "light" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CHATMUX_OPENROUTER_API_KEY", "env-or")
	t.Setenv("CHATMUX_DEFAULT_MODEL", "Grok-4")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Keys.OpenRouter != "env-or" {
		t.Errorf("OpenRouter key = %q, want env-or", cfg.Keys.OpenRouter)
	}
	if cfg.DefaultModel != "Grok-4" {
		t.Errorf("DefaultModel = %q, want Grok-4", cfg.DefaultModel)
	}
}

func TestProviderKey(t *testing.T) {
	cfg := Default()
	cfg.Keys.OpenAI = "oa-key"

	if got := cfg.ProviderKey(registry.ProviderOpenAI); got != "oa-key" {
		t.Errorf("ProviderKey(openai) = %q", got)
	}
	if got := cfg.ProviderKey(registry.ProviderGoogle); got != "" {
		t.Errorf("ProviderKey(google) = %q, want empty", got)
	}

	if !registry.Selectable("GPT-4o", cfg) {
		t.Error("GPT-4o should be selectable with an openai key")
	}
	if registry.Selectable("Gemini 2.5 Pro", cfg) {
		t.Error("Gemini should not be selectable without a google key")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	cfg.Keys.Google = "new-key"
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	select {
	case got := <-w.C():
		if got.Keys.Google != "new-key" {
			t.Errorf("reloaded Google key = %q, want new-key", got.Keys.Google)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reloaded config")
	}
}
