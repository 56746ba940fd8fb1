// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package message contains the data structures for threads, messages, and
// message content parts.
package message

// =============================================================================
// PART TYPE
// =============================================================================

// PartType discriminates the content part union.
type PartType string

const (
	// PartText is plain text; the Hidden flag distinguishes user-visible
	// text from model-only context.
	PartText PartType = "text"
	// PartImage references an image by data URI.
	PartImage PartType = "image_url"
	// PartAudio carries raw base64 audio (no data-URI prefix) plus a format.
	PartAudio PartType = "input_audio"
	// PartReasoning is an assistant reasoning trace.
	PartReasoning PartType = "reasoning"
)

// Part is one typed unit of message content. Exactly the fields matching
// Type are populated; the rest stay zero so a parts slice serializes to the
// same tagged-union shape it had at assembly time.
type Part struct {
	Type PartType `json:"type"`

	// PartText
	Text   string `json:"text,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`

	// PartImage
	Image *ImageRef `json:"image_url,omitempty"`

	// PartAudio
	Audio *AudioRef `json:"input_audio,omitempty"`

	// PartReasoning
	Reasoning string `json:"reasoning,omitempty"`
}

// ImageRef references image content by URL (a data URI for attachments).
type ImageRef struct {
	URL string `json:"url"`
}

// AudioRef carries bare base64 audio data and its container format.
// The transport contract requires raw base64 without the data-URI prefix.
type AudioRef struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewTextPart creates a visible text part.
func NewTextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// NewHiddenTextPart creates a model-only text part excluded from the
// transcript but retained in the payload and the persisted record.
func NewHiddenTextPart(text string) Part {
	return Part{Type: PartText, Text: text, Hidden: true}
}

// NewImagePart creates an image part referencing a data URI directly.
func NewImagePart(url string) Part {
	return Part{Type: PartImage, Image: &ImageRef{URL: url}}
}

// NewAudioPart creates an audio part from bare base64 data and a format.
func NewAudioPart(data, format string) Part {
	return Part{Type: PartAudio, Audio: &AudioRef{Data: data, Format: format}}
}

// NewReasoningPart creates an assistant reasoning part.
func NewReasoningPart(reasoning string) Part {
	return Part{Type: PartReasoning, Reasoning: reasoning}
}

// =============================================================================
// PART METHODS
// =============================================================================

// IsVisibleText reports whether the part is user-visible text.
func (p Part) IsVisibleText() bool {
	return p.Type == PartText && !p.Hidden
}

// IsAttachmentDerived reports whether the part came from a staged attachment
// (hidden text, image reference, or audio reference). The renderer uses this
// to decide whether a message needs an attachment chip row.
func (p Part) IsAttachmentDerived() bool {
	if p.Hidden {
		return true
	}
	return p.Type == PartImage || p.Type == PartAudio
}
