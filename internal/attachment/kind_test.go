// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import "testing"

// =============================================================================
// CLASSIFY TESTS
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		filename  string
		want      Kind
	}{
		// Media type prefixes win first
		{"png image", "image/png", "photo.png", KindImage},
		{"webp image", "image/webp", "photo.webp", KindImage},
		{"mp3 audio", "audio/mpeg", "clip.mp3", KindAudio},
		{"wav audio", "audio/wav", "clip.wav", KindAudio},
		{"pdf", "application/pdf", "paper.pdf", KindPDF},
		{"plain text", "text/plain", "notes.txt", KindText},
		{"markdown text", "text/markdown", "README.md", KindText},

		// Media type beats extension
		{"image named like code", "image/png", "diagram.go", KindImage},
		{"text named like data", "text/csv", "table.csv", KindText},

		// Extension tables for unknown media types
		{"go source", "application/octet-stream", "main.go", KindCode},
		{"rust source", "", "lib.rs", KindCode},
		{"kotlin source uppercase", "", "App.KT", KindCode},
		{"json data", "application/octet-stream", "config.json", KindData},
		{"sql data", "", "schema.sql", KindData},
		{"yaml data", "", "deploy.yaml", KindData},

		// Generic fallback
		{"zip archive", "application/zip", "bundle.zip", KindFile},
		{"no hints at all", "", "mystery", KindFile},

		// Case-insensitive media type
		{"uppercase media type", "IMAGE/PNG", "photo.png", KindImage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.mediaType, tc.filename)
			if got != tc.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tc.mediaType, tc.filename, got, tc.want)
			}
		})
	}
}

func TestClassifyIsStable(t *testing.T) {
	// Same input, same output, across repeated calls.
	for i := 0; i < 10; i++ {
		if got := Classify("application/pdf", "doc.pdf"); got != KindPDF {
			t.Fatalf("Classify not stable: got %v on call %d", got, i)
		}
	}
}

// =============================================================================
// RENDER-SIDE CLASSIFICATION TESTS
// =============================================================================

func TestClassifyFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     Kind
	}{
		{"photo.jpg", KindImage},
		{"photo.JPEG", KindImage},
		{"banner.webp", KindImage},
		{"notes.txt", KindText},
		{"README.md", KindText},
		{"paper.pdf", KindPDF},
		{"clip.mp3", KindAudio},
		{"voice.m4a", KindAudio},
		{"main.go", KindCode},
		{"index.tsx", KindCode},
		{"config.json", KindData},
		{"dump.sql", KindData},
		{"bundle.zip", KindFile},
		{"mystery", KindFile},
	}

	for _, tc := range tests {
		got := ClassifyFilename(tc.filename)
		if got != tc.want {
			t.Errorf("ClassifyFilename(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestMediaTypeByNameAgreesWithRenderSide(t *testing.T) {
	// Compose-time classification feeds MediaTypeByName into Classify;
	// render-time classification only has ClassifyFilename. The two must
	// assign the same kind for every recognized extension.
	files := []string{
		"photo.png", "photo.JPG", "banner.webp", "anim.gif",
		"clip.mp3", "voice.m4a", "sound.wav", "loop.ogg",
		"paper.pdf", "notes.txt", "README.md",
		"main.go", "index.tsx", "script.py",
		"config.json", "dump.sql", "deploy.yaml",
		"bundle.zip", "app.log", "mystery",
	}

	for _, name := range files {
		compose := Classify(MediaTypeByName(name), name)
		render := ClassifyFilename(name)
		if compose != render {
			t.Errorf("%s: compose-time kind %v != render-time kind %v", name, compose, render)
		}
	}
}

func TestMediaTypeByName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.png", "image/png"},
		{"PHOTO.JPEG", "image/jpeg"},
		{"clip.mp3", "audio/mpeg"},
		{"paper.pdf", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"main.go", ""},
		{"config.json", ""},
		{"mystery", ""},
	}

	for _, tc := range tests {
		if got := MediaTypeByName(tc.filename); got != tc.want {
			t.Errorf("MediaTypeByName(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestIsTextLike(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"notes.txt", true},
		{"main.go", true},
		{"deploy.toml", true},
		{"script.PS1", true}, // case-insensitive
		{"Makefile", true},   // no extension: treated as text
		{"photo.png", false},
		{"clip.mp3", false},
		{"archive.tar", false},
	}

	for _, tc := range tests {
		if got := IsTextLike(tc.filename); got != tc.want {
			t.Errorf("IsTextLike(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"clip.mp3", "mp3"},
		{"CLIP.WAV", "wav"},
		{"voice", ""},
		{"a.b.ogg", "ogg"},
	}

	for _, tc := range tests {
		if got := Ext(tc.filename); got != tc.want {
			t.Errorf("Ext(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

// =============================================================================
// KIND METADATA TESTS
// =============================================================================

func TestKindStringAndLabel(t *testing.T) {
	tests := []struct {
		kind  Kind
		str   string
		label string
	}{
		{KindImage, "image", "Image"},
		{KindAudio, "audio", "Audio"},
		{KindPDF, "pdf", "PDF"},
		{KindText, "text", "Text"},
		{KindCode, "code", "Code"},
		{KindData, "data", "Data"},
		{KindFile, "file", "File"},
	}

	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.str {
			t.Errorf("Kind.String() = %q, want %q", got, tc.str)
		}
		if got := tc.kind.Label(); got != tc.label {
			t.Errorf("Kind.Label() = %q, want %q", got, tc.label)
		}
	}
}
