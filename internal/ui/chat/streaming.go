// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
//
// This file implements streaming optimization for smooth, flicker-free
// rendering during model response streaming. The StreamingBuffer batches
// content and reasoning deltas for rendering at a capped frame rate.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches stream deltas for efficient rendering. Deltas are
// accumulated and flushed either when the batch size threshold is reached
// or when enough time has passed since the last flush (33ms for 30fps).
//
// Content and reasoning accumulate separately because they render into
// different blocks of the assistant message.
//
// Thread-safety: all operations are protected by a mutex since deltas
// arrive from the transport goroutine while flushing happens in the main
// Bubble Tea loop.
type StreamingBuffer struct {
	mu         sync.Mutex
	content    strings.Builder
	reasoning  strings.Builder
	deltaCount int
	lastFlush  time.Time

	batchSize  int
	minFlushMs time.Duration
}

// NewStreamingBuffer creates a streaming buffer with default settings:
// 15 deltas per batch, 30fps flush cap.
func NewStreamingBuffer() *StreamingBuffer {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)

	return &StreamingBuffer{
		batchSize:  defaultBatchSize,
		minFlushMs: time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// Write adds a content delta to the buffer.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.content.WriteString(token)
	sb.deltaCount++
}

// WriteReasoning adds a reasoning delta to the buffer.
func (sb *StreamingBuffer) WriteReasoning(delta string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.reasoning.WriteString(delta)
	sb.deltaCount++
}

// Flush returns the accumulated content and reasoning if a flush is due.
// The buffer flushes when the batch size threshold is reached or the flush
// interval has elapsed, whichever comes first.
func (sb *StreamingBuffer) Flush() (content, reasoning string, ok bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if !sb.shouldFlushLocked() {
		return "", "", false
	}
	return sb.flushLocked()
}

// ForceFlush immediately flushes all buffered deltas regardless of
// thresholds. Used when a stream completes so no tokens are lost.
func (sb *StreamingBuffer) ForceFlush() (content, reasoning string, ok bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.content.Len() == 0 && sb.reasoning.Len() == 0 {
		return "", "", false
	}
	return sb.flushLocked()
}

// Reset clears the buffer without flushing. Used when canceling a stream.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.content.Reset()
	sb.reasoning.Reset()
	sb.deltaCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of deltas waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.deltaCount
}

func (sb *StreamingBuffer) flushLocked() (string, string, bool) {
	content := sb.content.String()
	reasoning := sb.reasoning.String()
	sb.content.Reset()
	sb.reasoning.Reset()
	sb.deltaCount = 0
	sb.lastFlush = time.Now()
	return content, reasoning, true
}

func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.content.Len() == 0 && sb.reasoning.Len() == 0 {
		return false
	}
	if sb.deltaCount >= sb.batchSize {
		return true
	}
	return time.Since(sb.lastFlush) >= sb.minFlushMs
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps,
// driving buffer flushes while a stream is active.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
