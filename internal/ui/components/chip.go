// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/ui/styles"
	"github.com/jeranaias/chatmux/internal/util"
)

// =============================================================================
// ATTACHMENT CHIP
// =============================================================================

// maxChipNameWidth caps the filename cell so long names cannot blow out the
// chip row on narrow terminals.
const maxChipNameWidth = 28

// Chip is the attachment pill shown on user messages and above the composer
// while an attachment is staged.
type Chip struct {
	Name string
	Kind attachment.Kind
}

// NewChip builds a chip for a filename, classifying it by extension. This is
// the render-time path: persisted parts only retain the filename, so the
// chip re-derives the kind from the same rule table the composer used.
func NewChip(name string) Chip {
	return Chip{Name: name, Kind: attachment.ClassifyFilename(name)}
}

// Render renders the chip as a single-line pill.
func (c Chip) Render(theme *styles.Theme) string {
	name := util.TruncateWidth(c.Name, maxChipNameWidth)
	icon := theme.ChipIcon.Render(c.Kind.Icon())
	return theme.Chip.Render(icon + " " + c.Kind.Label() + " " + name)
}

// RenderChipRow renders the chips for every attachment filename on a
// message, separated by single spaces. Returns "" when there are none.
func RenderChipRow(theme *styles.Theme, names []string) string {
	if len(names) == 0 {
		return ""
	}
	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += NewChip(name).Render(theme)
	}
	return out
}
