// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable rendering pieces of the chatmux
// TUI: the message renderer, attachment chips, the staged-attachment code
// preview, the model picker, and the navigator side panel.
//
// # Key Types
//
//   - MessageView: renders one persisted or streaming message for the
//     transcript viewport
//   - Chip: the attachment pill shown on user messages and in the composer
//   - CodePreview: chroma-highlighted preview of a staged text attachment
//   - Picker: the model selection overlay with per-provider key gating
//   - Navigator: the message-summary side panel
//
// Components are pure view code. They take data and a *styles.Theme and
// return strings; all state lives in the chat model.
package components
