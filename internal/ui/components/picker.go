// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/chatmux/internal/registry"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

// =============================================================================
// MODEL PICKER
// =============================================================================

// Picker is the model selection overlay. Every cataloged model is listed in
// registry order; models whose provider has no configured key render
// disabled and cannot be chosen.
type Picker struct {
	keys   registry.Keys
	cursor int
}

// NewPicker creates a picker gated by the given key source.
func NewPicker(keys registry.Keys) *Picker {
	return &Picker{keys: keys}
}

// SetKeys swaps the key source, e.g. after a config reload.
func (p *Picker) SetKeys(keys registry.Keys) {
	p.keys = keys
}

// MoveTo positions the cursor on the named model if it is cataloged.
func (p *Picker) MoveTo(name string) {
	for i, m := range registry.Models {
		if m == name {
			p.cursor = i
			return
		}
	}
}

// MoveUp moves the cursor up one row.
func (p *Picker) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the cursor down one row.
func (p *Picker) MoveDown() {
	if p.cursor < len(registry.Models)-1 {
		p.cursor++
	}
}

// Choose returns the model under the cursor, or "" when that model is not
// selectable with the current keys.
func (p *Picker) Choose() string {
	name := registry.Models[p.cursor]
	if !registry.Selectable(name, p.keys) {
		return ""
	}
	return name
}

// Render renders the picker overlay.
func (p *Picker) Render(theme *styles.Theme, active string) string {
	var b strings.Builder
	b.WriteString(theme.HeaderTitle.Render("Select model"))
	b.WriteString("\n\n")

	for i, name := range registry.Models {
		cfg, _ := registry.GetModelConfig(name)
		provider := theme.PickerProvider.Render(cfg.Provider.DisplayName())

		var line string
		switch {
		case !registry.Selectable(name, p.keys):
			line = theme.PickerDisabled.Render(name + " (no key)")
		case i == p.cursor:
			line = theme.PickerSelected.Render(name)
		default:
			line = theme.PickerItem.Render(name)
		}

		marker := "  "
		if name == active {
			marker = theme.ChipIcon.Render("* ")
		}

		b.WriteString(marker + line + " " + provider)
		if i < len(registry.Models)-1 {
			b.WriteString("\n")
		}
	}

	return theme.PickerBox.Render(b.String())
}
