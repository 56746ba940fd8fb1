// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package message contains the data structures for threads, messages, and
// message content parts.
package message

import "time"

// =============================================================================
// THREAD TYPE
// =============================================================================

// Thread is an ordered conversation of messages. Its id is supplied by the
// caller (pre-generated alongside the route) rather than by the store, and
// the row is created lazily on the first message of a new conversation.
type Thread struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// Summary is a one-line digest of a user message, produced by the completion
// service and listed in the navigator panel for jumping between messages.
type Summary struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
