// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chatmux TUI.
//
// # Key Types
//
//   - Theme: all lipgloss styles the views render with, built once at
//     startup after termenv capability detection
//   - LayoutMode: responsive breakpoints keyed off terminal width
//
// # Usage
//
//	theme := styles.NewTheme()
//	theme.SetSize(width, height)
//	header := theme.Header.Render("chatmux")
//
// Colors are declared as lipgloss.AdaptiveColor pairs so the same palette
// works on light and dark terminals without a runtime switch.
package styles
