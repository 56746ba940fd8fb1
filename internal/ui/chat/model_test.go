// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/config"
	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/registry"
	"github.com/jeranaias/chatmux/internal/store"
	"github.com/jeranaias/chatmux/internal/transport"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

// sseServer streams the given chunks in the provider wire format.
func sseServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestModel(t *testing.T, serverURL string) Model {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	cfg.Keys.OpenAI = "sk-test"
	cfg.DefaultModel = "GPT-4o"

	client := transport.NewClient()
	if serverURL != "" {
		client = client.WithBaseURL(registry.ProviderOpenAI, serverURL)
	}

	return New(Options{
		Store:  st,
		Client: client,
		Config: cfg,
		Theme:  styles.NewTheme(),
	})
}

// drainStream feeds stream events through the model until the channel
// closes, returning the final model.
func drainStream(t *testing.T, m Model) Model {
	t.Helper()
	if m.events == nil {
		t.Fatal("no active stream")
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-m.events:
			next, _ := m.handleStreamEvent(StreamEventMsg{Event: ev, Closed: !ok})
			m = next.(Model)
			if !ok {
				return m
			}
		case <-deadline:
			t.Fatal("stream did not finish")
		}
	}
}

func TestSubmitGatesOnEmptyComposer(t *testing.T) {
	m := newTestModel(t, "")

	next, _ := m.submit()
	m = next.(Model)

	if len(m.transcript) != 0 {
		t.Errorf("empty submit appended %d messages", len(m.transcript))
	}
	if m.threadID != "" {
		t.Error("empty submit created a thread")
	}

	// Whitespace-only input is still empty.
	m.input.SetValue("   \n  ")
	next, _ = m.submit()
	m = next.(Model)
	if len(m.transcript) != 0 {
		t.Error("whitespace-only submit was not gated")
	}
}

func TestSubmitPersistsThreadAndMessage(t *testing.T) {
	server := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"Hello"}}]}`,
		`{"choices":[{"delta":{"content":" there"},"finish_reason":"stop"}]}`,
	})
	defer server.Close()

	m := newTestModel(t, server.URL)
	m.input.SetValue("hi")

	next, _ := m.submit()
	m = next.(Model)

	if m.threadID == "" {
		t.Fatal("thread id not assigned on first submit")
	}
	if exists, _ := m.store.ThreadExists(m.threadID); !exists {
		t.Error("thread row not created before message persist")
	}

	msgs, err := m.store.MessagesByThread(m.threadID)
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != message.RoleUser {
		t.Fatalf("persisted messages = %d, want 1 user message", len(msgs))
	}
	if msgs[0].Content != "hi" {
		t.Errorf("persisted content = %q, want hi", msgs[0].Content)
	}

	// Composer cleared after submit.
	if m.input.Value() != "" {
		t.Error("input not cleared after submit")
	}

	// Transcript holds the user message plus the streaming placeholder.
	if len(m.transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(m.transcript))
	}

	m = drainStream(t, m)

	msgs, _ = m.store.MessagesByThread(m.threadID)
	if len(msgs) != 2 {
		t.Fatalf("persisted messages after stream = %d, want 2", len(msgs))
	}
	if msgs[1].Role != message.RoleAssistant || msgs[1].Content != "Hello there" {
		t.Errorf("assistant message = %q (%s)", msgs[1].Content, msgs[1].Role)
	}
}

func TestSubmitRejectedWhileStreaming(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-release
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()
	defer close(release)

	m := newTestModel(t, server.URL)
	m.input.SetValue("first")

	next, _ := m.submit()
	m = next.(Model)
	if len(m.transcript) != 2 {
		t.Fatalf("transcript after first submit = %d, want 2", len(m.transcript))
	}

	// Transport is busy; a second submit must be a no-op.
	m.input.SetValue("second")
	next, _ = m.submit()
	m = next.(Model)
	if len(m.transcript) != 2 {
		t.Errorf("second submit was not gated while streaming")
	}
	if m.input.Value() != "second" {
		t.Error("gated submit cleared the draft")
	}

	m.client.Stop()
}

func TestAttachmentOnlySubmit(t *testing.T) {
	server := sseServer(t, []string{
		`{"choices":[{"delta":{"content":"ok"},"finish_reason":"stop"}]}`,
	})
	defer server.Close()

	m := newTestModel(t, server.URL)
	m.staged = &attachment.Attachment{
		Name: "notes.txt",
		Data: attachment.EncodeDataURI("text/plain", []byte("note body")),
		Kind: attachment.KindText,
	}

	next, _ := m.submit()
	m = next.(Model)

	if len(m.transcript) < 1 {
		t.Fatal("attachment-only submit was gated")
	}
	if m.staged != nil {
		t.Error("staged attachment not cleared after submit")
	}

	userMsg := m.transcript[0]
	if !userMsg.HasAttachments() {
		t.Error("submitted message lost its attachment parts")
	}

	m = drainStream(t, m)
}

func TestStaleAttachmentGenerationDiscarded(t *testing.T) {
	m := newTestModel(t, "")
	m.stagedGen = 3

	stale := AttachmentStagedMsg{
		Gen:        2,
		Attachment: &attachment.Attachment{Name: "old.txt", Kind: attachment.KindText},
	}
	next, _ := m.handleStaged(stale)
	m = next.(Model)
	if m.staged != nil {
		t.Error("stale staging result was applied")
	}

	current := AttachmentStagedMsg{
		Gen:        3,
		Attachment: &attachment.Attachment{Name: "new.txt", Kind: attachment.KindText},
	}
	next, _ = m.handleStaged(current)
	m = next.(Model)
	if m.staged == nil || m.staged.Name != "new.txt" {
		t.Error("current staging result was not applied")
	}
}

func TestStagedSourceFileKindMatchesRenderSide(t *testing.T) {
	m := newTestModel(t, "")

	path := filepath.Join(t.TempDir(), "main.go")
	src := "package main\n\nfunc main() {}\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	msg, ok := stageAttachmentCmd(m.stagedGen, path, m.builder)().(AttachmentStagedMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("staging failed: %v", msg.Err)
	}

	// The kind assigned at staging must match what the persisted message's
	// chip derives from the filename alone.
	if msg.Attachment.Kind != attachment.KindCode {
		t.Errorf("staged kind = %v, want %v", msg.Attachment.Kind, attachment.KindCode)
	}
	if render := attachment.ClassifyFilename(msg.Attachment.Name); msg.Attachment.Kind != render {
		t.Errorf("compose-time kind %v != render-time kind %v", msg.Attachment.Kind, render)
	}
}

func TestStagingReplacesPrevious(t *testing.T) {
	m := newTestModel(t, "")
	m.staged = &attachment.Attachment{Name: "first.txt", Kind: attachment.KindText}
	m.stagedGen = 1

	next, _ := m.handleStaged(AttachmentStagedMsg{
		Gen:        1,
		Attachment: &attachment.Attachment{Name: "second.txt", Kind: attachment.KindText},
	})
	m = next.(Model)
	if m.staged.Name != "second.txt" {
		t.Errorf("staged = %q, want second.txt", m.staged.Name)
	}
}

// runCompletionCmd walks the command batch produced by submit and executes
// commands until the title/summary completion reports done.
func runCompletionCmd(t *testing.T, cmd tea.Cmd) CompletionDoneMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case CompletionDoneMsg:
			return msg
		}
	}
	t.Fatal("submit produced no completion command")
	return CompletionDoneMsg{}
}

func TestSubmitWiresTitleThenSummaryCompletions(t *testing.T) {
	var mu sync.Mutex
	var prompts []string

	// Dual-mode endpoint: streaming requests get SSE, completion requests
	// get a JSON body whose system prompt is recorded.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Stream   bool `json:"stream"`
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"},\"finish_reason\":\"stop\"}]}\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		var system string
		if len(req.Messages) > 0 && req.Messages[0].Role == "system" {
			json.Unmarshal(req.Messages[0].Content, &system)
		}
		mu.Lock()
		prompts = append(prompts, system)
		n := len(prompts)
		mu.Unlock()

		reply := "Trip planning"
		if n > 1 {
			reply = "Asks about trains"
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, reply)
	}))
	defer server.Close()

	m := newTestModel(t, server.URL)
	if m.summarizer == nil {
		t.Fatal("summarizer not built despite configured key")
	}

	// First submit of a new thread requests a title.
	m.input.SetValue("plan a trip")
	next, cmd := m.submit()
	m = next.(Model)

	done := runCompletionCmd(t, cmd)
	if !done.IsTitle {
		t.Error("first submit of a new thread did not request a title")
	}
	if done.Err != nil {
		t.Fatalf("title completion: %v", done.Err)
	}

	thread, err := m.store.GetThread(m.threadID)
	if err != nil {
		t.Fatal(err)
	}
	if thread.Title != "Trip planning" {
		t.Errorf("thread title = %q, want Trip planning", thread.Title)
	}

	m = drainStream(t, m)

	// Subsequent submits request a summary bound to the new user message.
	m.input.SetValue("which trains run overnight")
	next, cmd = m.submit()
	m = next.(Model)
	secondUser := m.transcript[len(m.transcript)-2]

	done = runCompletionCmd(t, cmd)
	if done.IsTitle {
		t.Error("second submit requested a title instead of a summary")
	}
	if done.Err != nil {
		t.Fatalf("summary completion: %v", done.Err)
	}

	sums, err := m.store.MessageSummaries(m.threadID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Fatalf("summaries = %d, want 1", len(sums))
	}
	if sums[0].MessageID != secondUser.ID {
		t.Errorf("summary bound to message %s, want %s", sums[0].MessageID, secondUser.ID)
	}
	if sums[0].Content != "Asks about trains" {
		t.Errorf("summary content = %q", sums[0].Content)
	}

	thread, _ = m.store.GetThread(m.threadID)
	if thread.Title != "Trip planning" {
		t.Errorf("second submit changed the title to %q", thread.Title)
	}

	m = drainStream(t, m)

	mu.Lock()
	defer mu.Unlock()
	if len(prompts) != 2 {
		t.Fatalf("completion calls = %d, want 2", len(prompts))
	}
	if !strings.Contains(strings.ToLower(prompts[0]), "title") {
		t.Errorf("first completion prompt %q is not the title prompt", prompts[0])
	}
	if !strings.Contains(strings.ToLower(prompts[1]), "summarize") {
		t.Errorf("second completion prompt %q is not the summary prompt", prompts[1])
	}
}

func TestNewThreadResetsComposer(t *testing.T) {
	m := newTestModel(t, "")
	m.threadID = "t-old"
	m.threadTitle = "Old title"
	m.transcript = []*message.Message{
		message.NewUserMessage("m1", []message.Part{message.NewTextPart("old")}),
	}
	m.staged = &attachment.Attachment{Name: "f.txt", Kind: attachment.KindText}
	m.input.SetValue("draft")
	oldPending := m.pendingThreadID

	next, _ := m.startNewThread()
	m = next.(Model)

	if m.threadID != "" || len(m.transcript) != 0 {
		t.Error("startNewThread did not reset thread state")
	}
	if m.staged != nil || m.input.Value() != "" {
		t.Error("startNewThread did not clear the composer")
	}
	if m.pendingThreadID == oldPending {
		t.Error("pending thread id was not regenerated")
	}
}

func TestEditCommitUpdatesPartsAndStore(t *testing.T) {
	m := newTestModel(t, "")
	m.threadID = "t1"
	if err := m.store.CreateThread("t1"); err != nil {
		t.Fatal(err)
	}

	parts := []message.Part{
		message.NewTextPart("original question"),
		message.NewHiddenTextPart("[File: ctx.txt]\ncontext"),
	}
	userMsg := message.NewUserMessage("m1", parts)
	if err := m.store.CreateMessage("t1", userMsg); err != nil {
		t.Fatal(err)
	}
	m.transcript = []*message.Message{userMsg}
	m.selected = 0

	next, _ := m.beginEdit()
	m = next.(Model)
	if !m.editing {
		t.Fatal("beginEdit did not enter edit mode")
	}

	m.editInput.SetValue("revised question")
	next, _ = m.commitEdit()
	m = next.(Model)
	if m.editing {
		t.Error("commitEdit did not leave edit mode")
	}

	if got := userMsg.VisibleText(); got != "revised question" {
		t.Errorf("in-memory visible text = %q", got)
	}

	stored, err := m.store.MessagesByThread("t1")
	if err != nil || len(stored) != 1 {
		t.Fatalf("reload messages: %v (%d)", err, len(stored))
	}
	if got := stored[0].VisibleText(); got != "revised question" {
		t.Errorf("persisted visible text = %q", got)
	}
	// Hidden parts survive the edit untouched.
	if len(stored[0].Parts) != 2 || !stored[0].Parts[1].Hidden {
		t.Error("hidden part lost during edit")
	}
}

func TestValidAttachPath(t *testing.T) {
	tests := []struct {
		path      string
		imageOnly bool
		want      bool
	}{
		{"notes.txt", false, true},
		{"main.go", false, true},
		{"paper.pdf", false, true},
		{"clip.mp3", false, true},
		{"photo.png", false, false},
		{"photo.png", true, true},
		{"photo.webp", true, true},
		{"doc.pdf", true, false},
		{"archive.GIF", true, true},
	}

	for _, tt := range tests {
		if got := validAttachPath(tt.path, tt.imageOnly); got != tt.want {
			t.Errorf("validAttachPath(%q, imageOnly=%v) = %v, want %v",
				tt.path, tt.imageOnly, got, tt.want)
		}
	}
}

func TestQuitKeyAlwaysQuits(t *testing.T) {
	m := newTestModel(t, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c produced no command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("ctrl+c produced %T, want tea.QuitMsg", msg)
	}
}
