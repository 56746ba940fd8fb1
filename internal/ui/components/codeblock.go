// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

// =============================================================================
// STAGED ATTACHMENT CODE PREVIEW
// =============================================================================

// previewLines is how many lines of a staged text attachment the composer
// shows before cutting off.
const previewLines = 8

// CodePreview is a syntax-highlighted excerpt of a staged code, text, or
// data attachment, shown above the composer so the user can confirm they
// picked the right file.
type CodePreview struct {
	Filename string
	Content  string
	MaxWidth int
}

// NewCodePreview builds a preview from a staged attachment. Returns nil for
// kinds with no meaningful text preview (images, audio, PDFs).
func NewCodePreview(att *attachment.Attachment) *CodePreview {
	if att == nil {
		return nil
	}
	switch att.Kind {
	case attachment.KindCode, attachment.KindText, attachment.KindData:
	default:
		return nil
	}

	raw, err := attachment.DecodePayload(att.Data)
	if err != nil {
		return nil
	}

	return &CodePreview{
		Filename: att.Name,
		Content:  string(raw),
		MaxWidth: 80,
	}
}

// Render renders the highlighted excerpt inside a bordered box with the
// filename as header.
func (p *CodePreview) Render(theme *styles.Theme) string {
	lines := strings.Split(strings.TrimRight(p.Content, "\n"), "\n")
	truncated := false
	if len(lines) > previewLines {
		lines = lines[:previewLines]
		truncated = true
	}

	excerpt := highlightCode(strings.Join(lines, "\n"), languageForFilename(p.Filename))
	if truncated {
		excerpt += "\n" + theme.InputPlaceholder.Render("…")
	}

	header := theme.ChipIcon.Render(p.Filename)
	return theme.StagedPreview.MaxWidth(p.MaxWidth).Render(header + "\n" + excerpt)
}

// languageForFilename maps a filename extension to a chroma lexer name.
// Empty string lets chroma analyse the content instead.
func languageForFilename(name string) string {
	if lexer := lexers.Match(name); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies syntax highlighting to code using the chroma
// library. Returns the input unchanged when highlighting fails.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
