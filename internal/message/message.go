// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package message contains the data structures for threads, messages, and
// message content parts.
package message

import (
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleData      Role = "data"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleData:
		return "Data"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single persisted message. The caller generates the ID
// before any I/O so the same id serves optimistic rendering, persistence, and
// transport correlation. Parts is the durable source of truth; Content is the
// derived flattened fallback. Messages are never mutated after creation
// except by the edit flow, which replaces them.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Streaming state (not persisted)
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
	streamReason  strings.Builder `json:"-"`
}

// NewUserMessage creates a user message from assembled parts with a
// caller-generated id. Content is derived by flattening the full part list.
func NewUserMessage(id string, parts []Part) *Message {
	return &Message{
		ID:        id,
		Role:      RoleUser,
		Parts:     parts,
		Content:   Flatten(parts),
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an empty streaming assistant message.
func NewAssistantMessage(id string) *Message {
	return &Message{
		ID:          id,
		Role:        RoleAssistant,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// STREAMING
// =============================================================================

// AppendToken appends streamed text to a streaming message.
func (m *Message) AppendToken(token string) {
	if m.IsStreaming {
		m.streamContent.WriteString(token)
	}
}

// AppendReasoning appends a streamed reasoning delta.
func (m *Message) AppendReasoning(delta string) {
	if m.IsStreaming {
		m.streamReason.WriteString(delta)
	}
}

// FinalizeStream merges the accumulated stream into Parts and Content.
// A reasoning part, when present, precedes the text part, matching stream
// order on the wire.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}

	if r := m.streamReason.String(); r != "" {
		m.Parts = append(m.Parts, NewReasoningPart(r))
	}
	text := m.streamContent.String()
	m.Parts = append(m.Parts, NewTextPart(text))
	m.Content = Flatten(m.Parts)

	m.streamContent.Reset()
	m.streamReason.Reset()
	m.IsStreaming = false
}

// StreamingText returns the text accumulated so far for a streaming message.
func (m *Message) StreamingText() string {
	return m.streamContent.String()
}

// StreamingReasoning returns the reasoning accumulated so far.
func (m *Message) StreamingReasoning() string {
	return m.streamReason.String()
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// VisibleText returns the concatenated user-visible text of the message,
// falling back to the in-flight stream content while streaming.
func (m *Message) VisibleText() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return DisplayText(m.Parts)
}

// FirstVisibleTextPart returns the index of the first non-hidden text part,
// or -1. The edit view binds to this part.
func (m *Message) FirstVisibleTextPart() int {
	for i, p := range m.Parts {
		if p.IsVisibleText() {
			return i
		}
	}
	return -1
}

// HasAttachments reports whether any part derives from a staged attachment.
func (m *Message) HasAttachments() bool {
	for _, p := range m.Parts {
		if p.IsAttachmentDerived() {
			return true
		}
	}
	return false
}

// Preview returns a truncated single-line preview of the visible text.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.VisibleText(), "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// ATTACHMENT HEADER RECOVERY
// =============================================================================

// fileHeaderRe matches the bracketed file headers written at assembly time:
// "[PDF File: name]" and "[File: name]". The original file object does not
// survive persistence, so the renderer recovers the filename from here.
var fileHeaderRe = regexp.MustCompile(`\[(?:PDF )?File: ([^\]]+)\]`)

// AttachmentFilename extracts the original filename from a hidden part's
// bracketed header. Returns ("", false) when the part carries no header.
func AttachmentFilename(p Part) (string, bool) {
	if p.Type != PartText || !p.Hidden {
		return "", false
	}
	match := fileHeaderRe.FindStringSubmatch(p.Text)
	if match == nil {
		return "", false
	}
	return match[1], true
}
