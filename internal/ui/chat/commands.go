// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
//
// This file defines the tea.Cmd constructors that bridge the composer to
// the attachment pipeline, the transport, the store, and the clipboard.
package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/config"
	"github.com/jeranaias/chatmux/internal/store"
	"github.com/jeranaias/chatmux/internal/transport"
)

// =============================================================================
// ATTACHMENT STAGING
// =============================================================================

// imagePathExtensions is the image affordance filter.
var imagePathExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true,
}

// validAttachPath checks a path against the affordance's filter before any
// file I/O happens. The document affordance carries the long allow-list:
// every extension the classifier recognizes except images.
func validAttachPath(path string, imageOnly bool) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if imageOnly {
		return imagePathExtensions[ext]
	}
	if imagePathExtensions[ext] {
		return false
	}
	base := filepath.Base(path)
	if attachment.IsTextLike(base) {
		return true
	}
	switch attachment.ClassifyFilename(base) {
	case attachment.KindPDF, attachment.KindAudio, attachment.KindText,
		attachment.KindCode, attachment.KindData:
		return true
	}
	return false
}

// stageAttachmentCmd reads and builds an attachment off the Update loop.
// gen is the staging generation at the time the command was issued; the
// composer discards the result if staging moved on.
func stageAttachmentCmd(gen int, path string, builder *attachment.Builder) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return AttachmentStagedMsg{Gen: gen, Err: err}
		}

		// The media type comes from the filename alone, never from content
		// sniffing: sniffing reports text/plain for any source file, which
		// would classify it differently at compose time than the filename
		// does at render time.
		mediaType := attachment.MediaTypeByName(path)
		att, err := builder.Build(context.Background(), filepath.Base(path), mediaType, data)
		return AttachmentStagedMsg{Gen: gen, Attachment: att, Err: err}
	}
}

// =============================================================================
// STREAM EVENT PUMP
// =============================================================================

// waitForStreamEvent blocks on the active stream's event channel and
// returns the next delta. The Update loop re-arms it after each event until
// the channel closes.
func waitForStreamEvent(events <-chan transport.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamEventMsg{Closed: true}
		}
		return StreamEventMsg{Event: ev}
	}
}

// =============================================================================
// STORE AND CONFIG WATCHERS
// =============================================================================

// waitForStoreChange blocks on the store's change feed.
func waitForStoreChange(changes <-chan store.Change) tea.Cmd {
	return func() tea.Msg {
		ch, ok := <-changes
		if !ok {
			return nil
		}
		return StoreChangedMsg{ThreadID: ch.ThreadID}
	}
}

// waitForConfigReload blocks on the config watcher's reload feed.
func waitForConfigReload(reloads <-chan *config.Config) tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-reloads
		if !ok {
			return nil
		}
		return ConfigReloadedMsg{Config: cfg}
	}
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// completionTimeout bounds fire-and-forget title/summary calls.
const completionTimeout = 30 * time.Second

// summarizeCmd runs a title or summary completion in the background. The
// result lands in the store; the message only reports failure for logging.
func summarizeCmd(s *transport.Summarizer, text string, opts transport.CompleteOpts) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
		defer cancel()
		err := s.Complete(ctx, text, opts)
		return CompletionDoneMsg{IsTitle: opts.IsTitle, Err: err}
	}
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// copyCmd writes text to the system clipboard.
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopyCompleteMsg{Err: clipboard.WriteAll(text)}
	}
}
