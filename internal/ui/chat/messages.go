// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
//
// This file defines all Bubble Tea messages used by the chat interface.
// Messages are organized by category: attachments, streaming, store and
// config reactivity, completions, and UI state.
package chat

import (
	"time"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/config"
	"github.com/jeranaias/chatmux/internal/transport"
)

// =============================================================================
// ATTACHMENT MESSAGES
// =============================================================================

// AttachmentStagedMsg carries the result of an asynchronous attachment
// build. Gen is the staging generation the build was started under; the
// composer drops the result when a newer staging superseded it.
type AttachmentStagedMsg struct {
	Gen        int
	Attachment *attachment.Attachment
	Err        error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamEventMsg delivers one transport event from the active stream.
// Closed marks channel exhaustion, which is the stream-complete signal.
type StreamEventMsg struct {
	Event  transport.Event
	Closed bool
}

// StreamTickMsg drives the 30fps flush of the streaming buffer.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// STORE AND CONFIG REACTIVITY
// =============================================================================

// StoreChangedMsg is sent when the store reports a mutation; the model
// re-queries the affected thread's state.
type StoreChangedMsg struct {
	ThreadID string
}

// ConfigReloadedMsg is sent when the config file changed on disk and
// reparsed cleanly. Key presence re-gates the model picker.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// COMPLETION MESSAGES
// =============================================================================

// CompletionDoneMsg is the result of a fire-and-forget title or summary
// completion. Failures are logged, never surfaced as blocking errors.
type CompletionDoneMsg struct {
	IsTitle bool
	Err     error
}

// =============================================================================
// CLIPBOARD MESSAGES
// =============================================================================

// CopyCompleteMsg is sent when a clipboard copy finishes.
type CopyCompleteMsg struct {
	Err error
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ErrorMsg is a dismissible error shown in the status line.
type ErrorMsg struct {
	Title   string
	Message string
}

// NewErrorMsg creates an error message.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{Title: title, Message: message}
}
