// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
//
// This file defines keyboard bindings for the chat interface.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit          key.Binding
	Stop            key.Binding
	AttachFile      key.Binding
	AttachImage     key.Binding
	ClearAttachment key.Binding
	ModelPicker     key.Binding
	Navigator       key.Binding
	NewThread       key.Binding
	Copy            key.Binding
	Edit            key.Binding
	Reasoning       key.Binding
	SelectUp        key.Binding
	SelectDown      key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	Quit            key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "stop / cancel"),
		),
		AttachFile: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "attach file"),
		),
		AttachImage: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "attach image"),
		),
		ClearAttachment: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "clear attachment"),
		),
		ModelPicker: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "select model"),
		),
		Navigator: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "navigator"),
		),
		NewThread: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "new thread"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy message"),
		),
		Edit: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "edit message"),
		),
		Reasoning: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "toggle reasoning"),
		),
		SelectUp: key.NewBinding(
			key.WithKeys("ctrl+up"),
			key.WithHelp("C-up", "select previous"),
		),
		SelectDown: key.NewBinding(
			key.WithKeys("ctrl+down"),
			key.WithHelp("C-down", "select next"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the most commonly used shortcuts for the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.AttachFile, k.ModelPicker, k.Navigator, k.Quit}
}

// FullHelp returns all bindings grouped for the help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Stop, k.NewThread, k.Quit},
		{k.AttachFile, k.AttachImage, k.ClearAttachment},
		{k.ModelPicker, k.Navigator, k.Reasoning},
		{k.SelectUp, k.SelectDown, k.Copy, k.Edit},
		{k.PageUp, k.PageDown},
	}
}
