// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
//
// This file renders the chat layout: header, transcript viewport with the
// optional navigator panel, staged attachment row, composer, and status bar.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatmux/internal/ui/components"
)

// navigatorWidth is the fixed column width of the side panel.
const navigatorWidth = 34

// =============================================================================
// LAYOUT
// =============================================================================

// setSize recomputes component dimensions after a terminal resize.
func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	transcriptWidth := width
	if m.showNav {
		transcriptWidth -= navigatorWidth
	}

	// Header, staged row, composer, and status bar share the column.
	viewportHeight := height - m.composerHeight() - 3
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	m.viewport.Width = transcriptWidth
	m.viewport.Height = viewportHeight
	m.input.SetWidth(width - 4)
	m.pathInput.Width = width - 12
	m.editInput.Width = width - 12
	m.navigator.SetSize(navigatorWidth, viewportHeight)

	m.refreshViewport()
}

func (m Model) composerHeight() int {
	h := m.input.Height() + 2
	if m.staged != nil {
		h += 2
	}
	return h
}

// refreshViewport rebuilds the transcript content and the per-message line
// offsets used for navigator jumps.
func (m *Model) refreshViewport() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	m.msgOffsets = m.msgOffsets[:0]
	line := 0

	for i, msg := range m.transcript {
		m.msgOffsets = append(m.msgOffsets, line)

		view := components.MessageView{
			Msg:           msg,
			Width:         width - 2,
			Selected:      i == m.selected,
			ShowReasoning: m.showReasoning[msg.ID],
			Editing:       m.editing && i == m.selected,
			EditText:      m.editInput.Value(),
		}
		rendered := view.Render(m.theme)

		b.WriteString(rendered)
		b.WriteString("\n\n")
		line += strings.Count(rendered, "\n") + 2
	}

	m.viewport.SetContent(b.String())
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if m.showPicker {
		return m.picker.Render(m.theme, m.modelName)
	}

	sections := []string{
		m.renderHeader(),
		m.renderBody(),
	}

	if staged := m.renderStaged(); staged != "" {
		sections = append(sections, staged)
	}

	sections = append(sections, m.renderComposer(), m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.threadTitle
	if title == "" {
		title = "New conversation"
	}
	name := m.theme.HeaderTitle.Render("chatmux")
	model := m.theme.HeaderModel.Render(m.modelName)
	return m.theme.Header.Width(m.width).Render(name + "  " + title + "  " + model)
}

func (m Model) renderBody() string {
	transcript := m.viewport.View()
	if !m.showNav {
		return transcript
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		transcript,
		m.navigator.Render(m.theme),
	)
}

// renderStaged shows the staged attachment chip plus, for text-like kinds,
// a highlighted excerpt so the user can confirm the file before sending.
func (m Model) renderStaged() string {
	if m.staged == nil {
		return ""
	}

	chip := components.Chip{Name: m.staged.Name, Kind: m.staged.Kind}.Render(m.theme)
	out := chip + " " + m.theme.ShortcutDesc.Render("(C-x to remove)")

	if preview := components.NewCodePreview(m.staged); preview != nil {
		preview.MaxWidth = m.width - 2
		out += "\n" + preview.Render(m.theme)
	}
	return out
}

func (m Model) renderComposer() string {
	switch {
	case m.attachMode == attachImage:
		label := m.theme.InputPrompt.Render("Attach image ")
		return m.theme.InputContainer.Width(m.width).Render(label + m.pathInput.View())
	case m.attachMode == attachDocument:
		label := m.theme.InputPrompt.Render("Attach file ")
		return m.theme.InputContainer.Width(m.width).Render(label + m.pathInput.View())
	case m.editing:
		return m.theme.InputContainer.Width(m.width).Render(m.editInput.View())
	default:
		return m.theme.InputContainer.Width(m.width).Render(m.input.View())
	}
}

func (m Model) renderStatusBar() string {
	if m.lastError != nil {
		text := m.theme.StatusError.Render(m.lastError.Title + ": " + m.lastError.Message)
		hint := m.theme.ShortcutDesc.Render("  Esc to dismiss")
		return m.theme.StatusBar.Width(m.width).Render(text + hint)
	}

	var left string
	if m.client.Status().Busy() {
		left = m.spinner.View() + " " + m.theme.ThinkingText.Render(m.client.Status().String()) +
			m.theme.ShortcutDesc.Render("  Esc to stop")
	} else if m.statusMsg != "" {
		left = m.theme.StatusInfo.Render(m.statusMsg)
	} else {
		var parts []string
		for _, b := range m.keyMap.ShortHelp() {
			parts = append(parts,
				m.theme.ShortcutKey.Render(b.Help().Key)+" "+m.theme.ShortcutDesc.Render(b.Help().Desc))
		}
		left = strings.Join(parts, "  ")
	}

	return m.theme.StatusBar.Width(m.width).Render(left)
}
