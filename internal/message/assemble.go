// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package message contains the data structures for threads, messages, and
// message content parts.
package message

import (
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/chatmux/internal/attachment"
)

// =============================================================================
// CONTENT ASSEMBLY
// =============================================================================

// Assemble builds the canonical part list for an outgoing user message from
// the trimmed input text and the staged attachment, if any.
//
// The list always begins with a visible text part carrying the input (an
// empty string is legal when an attachment is present), followed by at most
// one attachment-derived part:
//
//   - image: one visible image part referencing the data URI directly
//   - audio: one audio part with bare base64 (prefix stripped) and the file
//     extension as the format, defaulting to "wav"
//   - pdf with extracted text: one hidden text part with a "[PDF File: name]"
//     header followed by the extracted text (which may itself be an inline
//     extraction error)
//   - text-like files: one hidden text part with a "[File: name]" header and
//     the decoded contents; a decode failure is logged and the part is
//     silently skipped
//   - any other binary: no additional part; the attachment is indicated
//     visually but not sent as model context
func Assemble(input string, att *attachment.Attachment) []Part {
	parts := []Part{NewTextPart(strings.TrimSpace(input))}
	if att == nil {
		return parts
	}

	switch att.Kind {
	case attachment.KindImage:
		parts = append(parts, NewImagePart(att.Data))

	case attachment.KindAudio:
		payload, err := attachment.Base64Payload(att.Data)
		if err != nil {
			log.Printf("assemble: audio payload for %q: %v", att.Name, err)
			return parts
		}
		format := attachment.Ext(att.Name)
		if format == "" {
			format = "wav"
		}
		parts = append(parts, NewAudioPart(payload, format))

	case attachment.KindPDF:
		if att.ExtractedText != "" {
			text := fmt.Sprintf("\n\n[PDF File: %s]\n%s", att.Name, att.ExtractedText)
			parts = append(parts, NewHiddenTextPart(text))
		}

	default:
		if !attachment.IsTextLike(att.Name) {
			return parts
		}
		decoded, err := attachment.DecodePayload(att.Data)
		if err != nil {
			log.Printf("assemble: decoding %q: %v", att.Name, err)
			return parts
		}
		text := fmt.Sprintf("\n\n[File: %s]\n%s", att.Name, decoded)
		parts = append(parts, NewHiddenTextPart(text))
	}

	return parts
}

// =============================================================================
// DERIVATIONS
// =============================================================================

// APIParts returns the model-facing payload. Hidden parts are model-only
// context and stay in: only the user-visible transcript filters them.
// Reasoning parts are the model's own output and are not echoed back.
func APIParts(parts []Part) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		if p.Type == PartReasoning {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DisplayParts returns the user-visible transcript view: hidden parts are
// filtered, everything else passes through in order.
func DisplayParts(parts []Part) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		if p.Hidden {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Flatten derives the fallback content string for consumers that do not
// understand parts (transport payload, history display). All text parts
// contribute, hidden ones included.
func Flatten(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p.Type != PartText {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// DisplayText derives the human-readable string: visible text parts only.
func DisplayText(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if !p.IsVisibleText() {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
