// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
//
// # Key Types
//
//   - Model: the Bubble Tea model owning the composer state machine, the
//     transcript, and the active stream
//   - StreamingBuffer: batches stream deltas for 30fps flicker-free rendering
//   - KeyMap: keyboard bindings
//
// # Submit pipeline
//
// A submit gates on a non-empty draft or a staged attachment and on the
// transport being idle. It assembles the draft and attachment into content
// parts, lazily creates the thread row on the first message, persists the
// user message before appending it to the in-memory transcript, fires the
// title or summary completion, clears the composer, and opens the
// assistant stream. Esc cancels the stream; partial output is kept.
//
// Attachment staging is asynchronous and carries a generation token so a
// result from a superseded staging is discarded rather than applied.
package chat
