// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package message contains the data structures for threads, messages, and
// message content parts.
//
// A Message's Parts slice is the durable source of truth: it retains hidden
// parts (model-only context such as extracted file text) alongside visible
// text, image references, and audio references. Every other representation is
// derived from it on demand:
//
//   - APIParts: the model-facing payload (includes hidden parts)
//   - DisplayParts: the user-visible transcript (hidden parts filtered)
//   - Flatten: the fallback content string for consumers without parts support
//
// # Key Types
//
//   - Part: one typed unit of content (text/image/audio/reasoning)
//   - Message: a persisted message with role, parts, and derived content
//   - Thread: an ordered conversation keyed by a caller-supplied id
//   - Summary: a one-line navigator entry generated per user message
//
// # Usage
//
// Assemble and persist an outgoing message:
//
//	parts := message.Assemble(input, staged)
//	msg := message.NewUserMessage(uuid.NewString(), parts)
//	err := store.CreateMessage(threadID, msg)
package message
