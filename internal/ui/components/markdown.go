// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer for assistant output.
// Rebuilt when the wrap width changes (terminal resize).
var (
	markdownMu       sync.Mutex
	markdownRenderer *glamour.TermRenderer
	markdownWidth    int
)

func rendererFor(width int) *glamour.TermRenderer {
	markdownMu.Lock()
	defer markdownMu.Unlock()

	if markdownRenderer != nil && markdownWidth == width {
		return markdownRenderer
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	markdownRenderer = r
	markdownWidth = width
	return r
}

// RenderMarkdown renders assistant markdown for terminal display, word
// wrapped to width. Returns the original content if rendering fails.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	r := rendererFor(width)
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
