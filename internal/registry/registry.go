// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry holds the catalog of selectable AI models.
//
// Each model maps a display name to a provider-qualified model id and the
// HTTP header its API key travels under. The catalog is static; which models
// are usable at runtime depends on the keys present in the configuration.
package registry

// Provider identifies an upstream AI provider.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderGoogle     Provider = "google"
	ProviderOpenAI     Provider = "openai"
)

// String returns the provider identifier.
func (p Provider) String() string {
	return string(p)
}

// DisplayName returns a human-readable provider name.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOpenRouter:
		return "OpenRouter"
	case ProviderGoogle:
		return "Google"
	case ProviderOpenAI:
		return "OpenAI"
	default:
		return string(p)
	}
}

// ModelConfig describes how to call one model.
type ModelConfig struct {
	// ModelID is the provider-qualified model identifier sent upstream.
	ModelID string
	// Provider is the upstream service serving this model.
	Provider Provider
	// HeaderKey is the HTTP header carrying the provider's API key.
	HeaderKey string
}

// DefaultModel is the model selected before the user picks one.
const DefaultModel = "Gemini 2.5 Flash"

// Models lists the selectable models in display order.
var Models = []string{
	"Deepseek R1 0528",
	"Deepseek V3",
	"Gemini 2.5 Pro",
	"Gemini 2.5 Flash",
	"GPT-4o",
	"GPT-4.1-mini",
	"GLM 4.5",
	"GLM 4.5 air (free)",
	"GPT 4.1",
	"Grok-4",
	"Claude Sonnet 4",
	"Claude Opus 4.1",
}

var configs = map[string]ModelConfig{
	"Deepseek R1 0528": {
		ModelID:   "deepseek/deepseek-r1-0528:free",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"Deepseek V3": {
		ModelID:   "deepseek/deepseek-chat-v3-0324:free",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"Gemini 2.5 Pro": {
		ModelID:   "gemini-2.5-pro",
		Provider:  ProviderGoogle,
		HeaderKey: "X-Google-API-Key",
	},
	"Gemini 2.5 Flash": {
		ModelID:   "gemini-2.5-flash",
		Provider:  ProviderGoogle,
		HeaderKey: "X-Google-API-Key",
	},
	"GPT-4o": {
		ModelID:   "gpt-4o",
		Provider:  ProviderOpenAI,
		HeaderKey: "X-OpenAI-API-Key",
	},
	"GPT-4.1-mini": {
		ModelID:   "gpt-4.1-mini",
		Provider:  ProviderOpenAI,
		HeaderKey: "X-OpenAI-API-Key",
	},
	"GLM 4.5": {
		ModelID:   "z-ai/glm-4.5",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"GLM 4.5 air (free)": {
		ModelID:   "z-ai/glm-4.5-air:free",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"GPT 4.1": {
		ModelID:   "openai/gpt-4.1",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"Grok-4": {
		ModelID:   "x-ai/grok-4",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"Claude Sonnet 4": {
		ModelID:   "anthropic/claude-sonnet-4",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
	"Claude Opus 4.1": {
		ModelID:   "anthropic/claude-opus-4.1",
		Provider:  ProviderOpenRouter,
		HeaderKey: "X-OpenRouter-API-Key",
	},
}

// GetModelConfig returns the config for a model name. The second return is
// false for names outside the catalog.
func GetModelConfig(name string) (ModelConfig, bool) {
	cfg, ok := configs[name]
	return cfg, ok
}

// IsValid reports whether name is a cataloged model.
func IsValid(name string) bool {
	_, ok := configs[name]
	return ok
}

// Keys exposes per-provider API keys. The config package implements it.
type Keys interface {
	ProviderKey(p Provider) string
}

// Selectable reports whether the model can be used with the given keys.
func Selectable(name string, keys Keys) bool {
	cfg, ok := configs[name]
	if !ok {
		return false
	}
	return keys.ProviderKey(cfg.Provider) != ""
}

// SelectableModels returns the cataloged models usable with the given keys,
// preserving display order.
func SelectableModels(keys Keys) []string {
	var out []string
	for _, name := range Models {
		if Selectable(name, keys) {
			out = append(out, name)
		}
	}
	return out
}
