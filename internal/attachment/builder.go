// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment implements the file ingestion pipeline for outgoing
// chat messages.
package attachment

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is one user-selected file staged for the next outgoing message.
// At most one attachment is staged at a time; staging a new one replaces the
// previous without side effects beyond composer state.
type Attachment struct {
	// Name is the original filename.
	Name string `json:"name"`
	// Data is the full file contents as a data URI (mime prefix + base64).
	Data string `json:"data"`
	// Kind is the semantic classification, assigned once at ingestion.
	Kind Kind `json:"kind"`
	// ExtractedText holds per-page PDF text (or an inline extraction error
	// message). Present only for KindPDF.
	ExtractedText string `json:"extracted_text,omitempty"`
}

// =============================================================================
// BUILDER
// =============================================================================

// ErrEmptyName is returned when a file has no name to classify by.
var ErrEmptyName = errors.New("attachment: filename is empty")

// Builder turns raw file bytes into a staged Attachment.
type Builder struct {
	extractor *Extractor
}

// NewBuilder creates a builder with the default PDF extractor.
func NewBuilder() *Builder {
	return &Builder{extractor: NewExtractor()}
}

// NewBuilderWithExtractor creates a builder with a custom PDF extractor.
func NewBuilderWithExtractor(extractor *Extractor) *Builder {
	return &Builder{extractor: extractor}
}

// Build produces a single Attachment from raw file contents. The bytes are
// encoded into a self-describing data URI and classified; PDF files
// additionally go through text extraction, whose result (success or inline
// error) becomes ExtractedText. Extraction failure never fails the build.
func (b *Builder) Build(ctx context.Context, name, mediaType string, data []byte) (*Attachment, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	att := &Attachment{
		Name: name,
		Data: EncodeDataURI(mediaType, data),
		Kind: Classify(mediaType, name),
	}

	if att.Kind == KindPDF {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		att.ExtractedText = b.extractor.ExtractText(data)
	}

	return att, nil
}

// =============================================================================
// DATA URI HELPERS
// =============================================================================

// ErrNotDataURI is returned when a string lacks the data-URI payload comma.
var ErrNotDataURI = errors.New("attachment: not a data URI")

// EncodeDataURI encodes raw bytes as a base64 data URI. An empty media type
// falls back to application/octet-stream.
func EncodeDataURI(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Base64Payload returns the raw base64 payload of a data URI, the substring
// after the comma. Transports that want bare base64 (audio input) require the
// prefix stripped.
func Base64Payload(dataURI string) (string, error) {
	_, payload, found := strings.Cut(dataURI, ",")
	if !found {
		return "", ErrNotDataURI
	}
	return payload, nil
}

// DecodePayload decodes a data URI's base64 payload back to raw bytes.
func DecodePayload(dataURI string) ([]byte, error) {
	payload, err := Base64Payload(dataURI)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(payload)
}
