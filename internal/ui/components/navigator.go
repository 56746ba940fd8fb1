// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/ui/styles"
	"github.com/jeranaias/chatmux/internal/util"
)

// =============================================================================
// NAVIGATOR SIDE PANEL
// =============================================================================

// Navigator is the toggleable side panel listing one summary line per user
// message in the active thread. Selecting an entry jumps the transcript to
// the summarized message.
type Navigator struct {
	summaries []message.Summary
	cursor    int
	width     int
	height    int
}

// NewNavigator creates an empty navigator panel.
func NewNavigator() *Navigator {
	return &Navigator{width: 32, height: 20}
}

// SetSummaries replaces the listed summaries, clamping the cursor.
func (n *Navigator) SetSummaries(sums []message.Summary) {
	n.summaries = sums
	if n.cursor >= len(sums) {
		n.cursor = len(sums) - 1
	}
	if n.cursor < 0 {
		n.cursor = 0
	}
}

// SetSize updates the panel dimensions.
func (n *Navigator) SetSize(width, height int) {
	n.width = width
	n.height = height
}

// Len returns the number of listed summaries.
func (n *Navigator) Len() int {
	return len(n.summaries)
}

// MoveUp moves the cursor up one entry.
func (n *Navigator) MoveUp() {
	if n.cursor > 0 {
		n.cursor--
	}
}

// MoveDown moves the cursor down one entry.
func (n *Navigator) MoveDown() {
	if n.cursor < len(n.summaries)-1 {
		n.cursor++
	}
}

// Selected returns the message id of the entry under the cursor, or "" when
// the panel is empty.
func (n *Navigator) Selected() string {
	if len(n.summaries) == 0 {
		return ""
	}
	return n.summaries[n.cursor].MessageID
}

// Render renders the panel for the current thread.
func (n *Navigator) Render(theme *styles.Theme) string {
	var b strings.Builder
	b.WriteString(theme.NavigatorTitle.Render("Messages"))
	b.WriteString("\n")

	if len(n.summaries) == 0 {
		b.WriteString(theme.NavigatorEmpty.Render("No summaries yet"))
		return theme.NavigatorPanel.Height(n.height).Render(b.String())
	}

	lineWidth := n.width - 4
	if lineWidth < 8 {
		lineWidth = 8
	}

	for i, sum := range n.summaries {
		line := util.TruncateWidth(sum.Content, lineWidth)
		if i == n.cursor {
			line = theme.NavigatorSelected.Render("> " + line)
		} else {
			line = theme.NavigatorItem.Render("  " + line)
		}
		b.WriteString(line)
		if i < len(n.summaries)-1 {
			b.WriteString("\n")
		}
	}

	return theme.NavigatorPanel.Width(n.width).Height(n.height).Render(b.String())
}
