// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attachment implements the file ingestion pipeline for outgoing
// chat messages: classification of an uploaded file into a semantic kind,
// best-effort PDF text extraction, and encoding into a single staged
// Attachment value.
package attachment

import (
	"path/filepath"
	"strings"
)

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind is the semantic classification of an attached file.
// Kinds are mutually exclusive and assigned exactly once at ingestion.
type Kind int

const (
	// KindFile is the generic fallback for anything not otherwise matched.
	KindFile Kind = iota
	// KindImage is any image/* media type (raster images).
	KindImage
	// KindAudio is any audio/* media type.
	KindAudio
	// KindPDF is application/pdf; the only kind with text extraction.
	KindPDF
	// KindText is any text/* media type.
	KindText
	// KindCode is a source file matched by extension (js, go, rs, ...).
	KindCode
	// KindData is a structured data file matched by extension (json, csv, ...).
	KindData
)

// String returns the wire/storage name of the kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindPDF:
		return "pdf"
	case KindText:
		return "text"
	case KindCode:
		return "code"
	case KindData:
		return "data"
	default:
		return "file"
	}
}

// Label returns the human-readable chip label for the kind.
func (k Kind) Label() string {
	switch k {
	case KindImage:
		return "Image"
	case KindAudio:
		return "Audio"
	case KindPDF:
		return "PDF"
	case KindText:
		return "Text"
	case KindCode:
		return "Code"
	case KindData:
		return "Data"
	default:
		return "File"
	}
}

// Icon returns the chip icon for the kind.
func (k Kind) Icon() string {
	switch k {
	case KindImage:
		return "🖼️"
	case KindAudio:
		return "🎵"
	case KindPDF:
		return "📕"
	case KindText:
		return "📄"
	case KindCode:
		return "💻"
	case KindData:
		return "📊"
	default:
		return "📎"
	}
}

// =============================================================================
// CLASSIFICATION RULE TABLE
// =============================================================================

// The extension tables below are the single source of classification rules.
// Both the compose-time path (Classify, which also sees the declared media
// type) and the render-time path (ClassifyFilename, which only has a filename
// recovered from a persisted part) consult these same tables so the two can
// never drift.

var codeExtensions = map[string]bool{
	".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".py": true, ".java": true, ".c": true, ".cpp": true,
	".cs": true, ".php": true, ".rb": true, ".go": true,
	".rs": true, ".swift": true, ".kt": true,
}

var dataExtensions = map[string]bool{
	".json": true, ".xml": true, ".yaml": true,
	".yml": true, ".csv": true, ".sql": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".webp": true,
}

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true,
}

var plainTextExtensions = map[string]bool{
	".txt": true, ".md": true,
}

// textLikeExtensions is the broad allow-list of extensions whose contents are
// safe to decode back to text and hand to the model as hidden context.
var textLikeExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".xml": true, ".csv": true,
	".log": true, ".yaml": true, ".yml": true, ".ini": true, ".conf": true,
	".cfg": true, ".properties": true, ".sql": true, ".sh": true, ".bat": true,
	".ps1": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".html": true, ".css": true, ".scss": true, ".sass": true,
	".less": true, ".php": true, ".rb": true, ".go": true, ".rs": true,
	".java": true, ".c": true, ".cpp": true, ".h": true, ".hpp": true,
	".cs": true, ".vb": true, ".swift": true, ".kt": true, ".dart": true,
	".r": true, ".m": true, ".pl": true, ".lua": true, ".scala": true,
	".clj": true, ".hs": true, ".elm": true, ".ex": true, ".exs": true,
	".erl": true, ".f90": true, ".f95": true, ".jl": true, ".nim": true,
	".zig": true, ".v": true, ".toml": true, ".dockerfile": true,
	".gitignore": true, ".gitattributes": true, ".env": true,
	".editorconfig": true,
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify maps a file's declared media type and name to a Kind.
// First match wins, in this order: image/* and audio/* prefixes,
// application/pdf, text/*, then the code and data extension tables,
// and finally the generic file kind. Filename matching is case-insensitive.
func Classify(mediaType, filename string) Kind {
	mediaType = strings.ToLower(mediaType)

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	case strings.HasPrefix(mediaType, "audio/"):
		return KindAudio
	case mediaType == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mediaType, "text/"):
		return KindText
	}

	ext := lowerExt(filename)
	switch {
	case codeExtensions[ext]:
		return KindCode
	case dataExtensions[ext]:
		return KindData
	}
	return KindFile
}

// ClassifyFilename maps a bare filename to a display Kind using only the
// extension tables. This is the render-side path: the original file object
// does not survive persistence, so messages re-derive the chip kind from the
// filename embedded in a hidden part's bracketed header.
func ClassifyFilename(filename string) Kind {
	ext := lowerExt(filename)

	switch {
	case imageExtensions[ext]:
		return KindImage
	case plainTextExtensions[ext]:
		return KindText
	case ext == ".pdf":
		return KindPDF
	case audioExtensions[ext]:
		return KindAudio
	case codeExtensions[ext]:
		return KindCode
	case dataExtensions[ext]:
		return KindData
	default:
		return KindFile
	}
}

// MediaTypeByName returns the declared media type for a filename, mirroring
// what a browser reports as File.type: concrete types for images, audio, PDF,
// and plain text, empty for everything else. Source and data files carry no
// media type here so Classify falls through to the extension tables and stays
// in agreement with ClassifyFilename.
func MediaTypeByName(filename string) string {
	switch lowerExt(filename) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	default:
		return ""
	}
}

// IsTextLike reports whether a filename's contents may be decoded to text
// and sent as hidden model context. Files without any extension are treated
// as text, matching the original allow-list behavior.
func IsTextLike(filename string) bool {
	if !strings.Contains(filepath.Base(filename), ".") {
		return true
	}
	return textLikeExtensions[lowerExt(filename)]
}

// Ext returns the filename's extension without the dot, lowercased.
// Returns empty string when the filename has no extension.
func Ext(filename string) string {
	return strings.TrimPrefix(lowerExt(filename), ".")
}

func lowerExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
