// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme()
}

func TestUserMessageShowsVisibleTextOnly(t *testing.T) {
	parts := []message.Part{
		message.NewTextPart("what does this say?"),
		message.NewHiddenTextPart("[PDF File: report.pdf]\nsecret extracted text"),
	}
	msg := message.NewUserMessage("m1", parts)

	out := MessageView{Msg: msg, Width: 80}.Render(testTheme())

	if !strings.Contains(out, "what does this say?") {
		t.Errorf("visible text missing from render:\n%s", out)
	}
	if strings.Contains(out, "secret extracted text") {
		t.Errorf("hidden part leaked into transcript:\n%s", out)
	}
	if !strings.Contains(out, "report.pdf") {
		t.Errorf("attachment chip missing filename:\n%s", out)
	}
}

func TestUserMessageImagePlaceholder(t *testing.T) {
	parts := []message.Part{
		message.NewTextPart("look at this"),
		message.NewImagePart("data:image/png;base64,aWly"),
	}
	msg := message.NewUserMessage("m2", parts)

	out := MessageView{Msg: msg, Width: 80}.Render(testTheme())
	if !strings.Contains(out, "[image]") {
		t.Errorf("image part did not render a placeholder:\n%s", out)
	}
	if strings.Contains(out, "base64") {
		t.Errorf("raw data URI leaked into transcript:\n%s", out)
	}
}

func TestAssistantReasoningCollapsedByDefault(t *testing.T) {
	msg := message.NewAssistantMessage("a1")
	msg.AppendReasoning("thinking about the answer")
	msg.AppendToken("the answer is 42")
	msg.FinalizeStream()

	theme := testTheme()

	collapsed := MessageView{Msg: msg, Width: 80}.Render(theme)
	if strings.Contains(collapsed, "thinking about the answer") {
		t.Errorf("reasoning shown while collapsed:\n%s", collapsed)
	}
	if !strings.Contains(collapsed, "Reasoning") {
		t.Errorf("collapsed reasoning header missing:\n%s", collapsed)
	}

	expanded := MessageView{Msg: msg, Width: 80, ShowReasoning: true}.Render(theme)
	if !strings.Contains(expanded, "thinking about the answer") {
		t.Errorf("reasoning missing when expanded:\n%s", expanded)
	}
}

func TestStreamingMessageReadsAccumulators(t *testing.T) {
	msg := message.NewAssistantMessage("a2")
	msg.AppendToken("partial out")

	out := MessageView{Msg: msg, Width: 80}.Render(testTheme())
	if !strings.Contains(out, "partial out") {
		t.Errorf("streaming text missing from render:\n%s", out)
	}
}

func TestEditingOverridesVisibleText(t *testing.T) {
	msg := message.NewUserMessage("m3", []message.Part{message.NewTextPart("original")})

	out := MessageView{Msg: msg, Width: 80, Editing: true, EditText: "edited"}.Render(testTheme())
	if !strings.Contains(out, "edited") {
		t.Errorf("edit text not rendered:\n%s", out)
	}
	if strings.Contains(out, "original") {
		t.Errorf("stale text rendered during edit:\n%s", out)
	}
}

func TestChipClassifiesByExtension(t *testing.T) {
	tests := []struct {
		name string
		kind attachment.Kind
	}{
		{"main.go", attachment.KindCode},
		{"paper.pdf", attachment.KindPDF},
		{"notes.txt", attachment.KindText},
		{"data.csv", attachment.KindData},
	}

	for _, tt := range tests {
		chip := NewChip(tt.name)
		if chip.Kind != tt.kind {
			t.Errorf("NewChip(%q).Kind = %v, want %v", tt.name, chip.Kind, tt.kind)
		}
	}
}

func TestCodePreviewOnlyForTextLikeKinds(t *testing.T) {
	code := &attachment.Attachment{
		Name: "main.go",
		Data: attachment.EncodeDataURI("text/x-go", []byte("package main\n")),
		Kind: attachment.KindCode,
	}
	if NewCodePreview(code) == nil {
		t.Error("expected a preview for a code attachment")
	}

	img := &attachment.Attachment{
		Name: "photo.png",
		Data: attachment.EncodeDataURI("image/png", []byte{0x89, 0x50}),
		Kind: attachment.KindImage,
	}
	if NewCodePreview(img) != nil {
		t.Error("expected no preview for an image attachment")
	}
}

func TestCodePreviewTruncatesLongFiles(t *testing.T) {
	content := strings.Repeat("line\n", 40)
	att := &attachment.Attachment{
		Name: "big.txt",
		Data: attachment.EncodeDataURI("text/plain", []byte(content)),
		Kind: attachment.KindText,
	}

	preview := NewCodePreview(att)
	if preview == nil {
		t.Fatal("expected a preview")
	}
	out := preview.Render(testTheme())
	if got := strings.Count(out, "line"); got > previewLines {
		t.Errorf("preview shows %d lines, cap is %d", got, previewLines)
	}
}
