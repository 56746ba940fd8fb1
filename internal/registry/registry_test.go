// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import "testing"

type fakeKeys map[Provider]string

func (f fakeKeys) ProviderKey(p Provider) string {
	return f[p]
}

func TestCatalogComplete(t *testing.T) {
	if len(Models) != 12 {
		t.Fatalf("expected 12 models, got %d", len(Models))
	}
	for _, name := range Models {
		cfg, ok := GetModelConfig(name)
		if !ok {
			t.Errorf("model %q missing config", name)
			continue
		}
		if cfg.ModelID == "" || cfg.HeaderKey == "" {
			t.Errorf("model %q has incomplete config: %+v", name, cfg)
		}
	}
}

func TestGetModelConfig(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		wantID   string
		wantProv Provider
		wantOK   bool
	}{
		{"default model", "Gemini 2.5 Flash", "gemini-2.5-flash", ProviderGoogle, true},
		{"openrouter model", "Claude Opus 4.1", "anthropic/claude-opus-4.1", ProviderOpenRouter, true},
		{"openai model", "GPT-4o", "gpt-4o", ProviderOpenAI, true},
		{"unknown model", "GPT-2", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := GetModelConfig(tt.model)
			if ok != tt.wantOK {
				t.Fatalf("GetModelConfig(%q) ok = %v, want %v", tt.model, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cfg.ModelID != tt.wantID {
				t.Errorf("ModelID = %q, want %q", cfg.ModelID, tt.wantID)
			}
			if cfg.Provider != tt.wantProv {
				t.Errorf("Provider = %q, want %q", cfg.Provider, tt.wantProv)
			}
		})
	}
}

func TestDefaultModelIsCataloged(t *testing.T) {
	if !IsValid(DefaultModel) {
		t.Fatalf("default model %q not in catalog", DefaultModel)
	}
}

func TestSelectable(t *testing.T) {
	keys := fakeKeys{ProviderGoogle: "g-key"}

	if !Selectable("Gemini 2.5 Pro", keys) {
		t.Error("google model should be selectable with a google key")
	}
	if Selectable("GPT-4o", keys) {
		t.Error("openai model should not be selectable without an openai key")
	}
	if Selectable("no such model", keys) {
		t.Error("unknown model should never be selectable")
	}
}

func TestSelectableModelsPreservesOrder(t *testing.T) {
	keys := fakeKeys{ProviderGoogle: "g", ProviderOpenAI: "o"}

	got := SelectableModels(keys)
	want := []string{"Gemini 2.5 Pro", "Gemini 2.5 Flash", "GPT-4o", "GPT-4.1-mini"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
