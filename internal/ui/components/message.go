// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

// =============================================================================
// MESSAGE VIEW
// =============================================================================

// MessageView renders one transcript entry. The zero value is not useful;
// build one per message per frame.
type MessageView struct {
	Msg      *message.Message
	Width    int
	Selected bool

	// ShowReasoning expands the reasoning block on assistant messages.
	ShowReasoning bool

	// EditText replaces the visible text of a selected user message while
	// the edit view is active.
	Editing  bool
	EditText string
}

// Render renders the message for the transcript viewport.
func (v MessageView) Render(theme *styles.Theme) string {
	switch v.Msg.Role {
	case message.RoleUser:
		return v.renderUser(theme)
	case message.RoleAssistant:
		return v.renderAssistant(theme)
	default:
		return theme.Timestamp.Render(v.Msg.Content)
	}
}

// renderUser renders the visible text plus one chip per attachment-derived
// part. Hidden parts never reach the transcript; the chips are recovered
// from the file headers the assembler wrote into them.
func (v MessageView) renderUser(theme *styles.Theme) string {
	text := v.Msg.VisibleText()
	if v.Editing {
		text = v.EditText
	}

	bubble := theme.UserBubble
	if v.Selected {
		bubble = theme.UserSelected
	}

	var sections []string
	if text != "" {
		sections = append(sections, bubble.MaxWidth(v.Width).Render(text))
	}

	if row := RenderChipRow(theme, attachmentNames(v.Msg)); row != "" {
		sections = append(sections, row)
	}

	// Image and audio parts carry no file header, so they get a generic
	// placeholder instead of a named chip.
	for _, p := range v.Msg.Parts {
		switch p.Type {
		case message.PartImage:
			sections = append(sections, theme.ImagePlaceholder.Render("[image]"))
		case message.PartAudio:
			icon := theme.ChipIcon.Render(attachment.KindAudio.Icon())
			sections = append(sections, theme.Chip.Render(icon+" "+attachment.KindAudio.Label()))
		}
	}

	if len(sections) == 0 {
		// An attachment-only message with an unrecognized part shape still
		// needs a visible anchor in the transcript.
		sections = append(sections, bubble.MaxWidth(v.Width).Render(v.Msg.Content))
	}

	return strings.Join(sections, "\n")
}

// renderAssistant renders the reasoning block (collapsed to a header unless
// expanded), then the markdown body. Streaming messages read from the
// stream accumulators instead of the finalized parts.
func (v MessageView) renderAssistant(theme *styles.Theme) string {
	var sections []string

	reasoning := v.reasoningText()
	if reasoning != "" {
		header := theme.ReasoningHeader.Render("Reasoning")
		if v.ShowReasoning {
			block := theme.ReasoningBlock.MaxWidth(v.Width).Render(reasoning)
			sections = append(sections, header+"\n"+block)
		} else {
			sections = append(sections, header+theme.Timestamp.Render(" (press r to expand)"))
		}
	}

	body := v.bodyText()
	if body != "" {
		sections = append(sections, RenderMarkdown(body, v.Width-4))
	}

	for _, p := range v.Msg.Parts {
		if p.Type == message.PartImage {
			sections = append(sections, theme.ImagePlaceholder.Render("[image]"))
		}
	}

	if len(sections) == 0 {
		sections = append(sections, theme.ThinkingText.Render("…"))
	}

	return strings.Join(sections, "\n")
}

func (v MessageView) bodyText() string {
	if v.Msg.IsStreaming {
		return v.Msg.StreamingText()
	}
	return message.DisplayText(v.Msg.Parts)
}

func (v MessageView) reasoningText() string {
	if v.Msg.IsStreaming {
		return v.Msg.StreamingReasoning()
	}
	for _, p := range v.Msg.Parts {
		if p.Type == message.PartReasoning {
			return p.Reasoning
		}
	}
	return ""
}

// attachmentNames recovers the original filenames from a message's
// attachment-derived parts, in part order.
func attachmentNames(msg *message.Message) []string {
	var names []string
	for _, p := range msg.Parts {
		if name, ok := message.AttachmentFilename(p); ok {
			names = append(names, name)
		}
	}
	return names
}
