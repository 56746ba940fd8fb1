// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the composer and transcript view for the TUI.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jeranaias/chatmux/internal/attachment"
	"github.com/jeranaias/chatmux/internal/config"
	"github.com/jeranaias/chatmux/internal/message"
	"github.com/jeranaias/chatmux/internal/registry"
	"github.com/jeranaias/chatmux/internal/store"
	"github.com/jeranaias/chatmux/internal/transport"
	"github.com/jeranaias/chatmux/internal/ui/components"
	"github.com/jeranaias/chatmux/internal/ui/styles"
)

// =============================================================================
// ATTACH PROMPT MODE
// =============================================================================

// attachMode tracks which attach affordance opened the path prompt.
type attachMode int

const (
	attachNone     attachMode = iota
	attachDocument            // documents, code, data, audio, PDFs
	attachImage               // png/jpeg/webp/gif only
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options carries the dependencies the chat model needs.
type Options struct {
	Store  *store.Store
	Client *transport.Client
	Config *config.Config
	Theme  *styles.Theme

	// ThreadID resumes an existing thread. Empty starts a new conversation
	// whose thread row is created lazily on first submit.
	ThreadID string

	// ConfigReloads is the config watcher feed; nil disables live reload.
	ConfigReloads <-chan *config.Config
}

// Model is the Bubble Tea model for the chat view. It owns the composer
// state machine: the draft text, the single staged attachment with its
// generation counter, and the submit pipeline.
type Model struct {
	theme  *styles.Theme
	keyMap KeyMap

	width  int
	height int

	// Dependencies
	store   *store.Store
	client  *transport.Client
	builder *attachment.Builder
	cfg     *config.Config

	// Thread state
	threadID        string // empty until the first message persists
	pendingThreadID string // pre-generated id for lazy thread creation
	threadTitle     string
	modelName       string
	transcript      []*message.Message

	// Composer
	input      textarea.Model
	staged     *attachment.Attachment
	stagedGen  int
	attachMode attachMode
	pathInput  textinput.Model

	// Streaming
	events       <-chan transport.Event
	streamingMsg *message.Message
	buffer       *StreamingBuffer
	summarizer   *transport.Summarizer

	// UI components
	viewport   viewport.Model
	spinner    spinner.Model
	picker     *components.Picker
	navigator  *components.Navigator
	showPicker bool
	showNav    bool
	navFocused bool

	// Selection and edit state
	selected      int // index into transcript, -1 for none
	editing       bool
	editInput     textinput.Model
	showReasoning map[string]bool

	// Transcript layout, rebuilt each render: first viewport line of each
	// transcript entry, used for navigator jumps.
	msgOffsets []int

	// Status line
	lastError *ErrorMsg
	statusMsg string

	// Reactivity feeds
	storeChanges  <-chan store.Change
	configReloads <-chan *config.Config
}

// New creates a chat model wired to the given dependencies.
func New(opts Options) Model {
	ti := textarea.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 8192
	ti.SetHeight(3)
	ti.ShowLineNumbers = false
	ti.Focus()

	pi := textinput.New()
	pi.Prompt = "path: "

	ei := textinput.New()
	ei.Prompt = "edit: "

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = opts.Theme.Spinner

	m := Model{
		theme:           opts.Theme,
		keyMap:          DefaultKeyMap(),
		store:           opts.Store,
		client:          opts.Client,
		builder:         attachment.NewBuilder(),
		cfg:             opts.Config,
		pendingThreadID: uuid.NewString(),
		modelName:       opts.Config.DefaultModel,
		input:           ti,
		pathInput:       pi,
		editInput:       ei,
		viewport:        vp,
		spinner:         sp,
		buffer:          NewStreamingBuffer(),
		picker:          components.NewPicker(opts.Config),
		navigator:       components.NewNavigator(),
		selected:        -1,
		showReasoning:   make(map[string]bool),
		configReloads:   opts.ConfigReloads,
	}

	if !registry.IsValid(m.modelName) {
		m.modelName = registry.DefaultModel
	}
	m.summarizer = m.buildSummarizer()

	if opts.Store != nil {
		m.storeChanges = opts.Store.Watch()
	}

	if opts.ThreadID != "" {
		m.resumeThread(opts.ThreadID)
	}

	return m
}

// resumeThread loads an existing thread's messages and summaries.
func (m *Model) resumeThread(id string) {
	msgs, err := m.store.MessagesByThread(id)
	if err != nil {
		log.Printf("resume thread %s: %v", id, err)
		return
	}
	m.threadID = id
	m.transcript = msgs
	if th, err := m.store.GetThread(id); err == nil {
		m.threadTitle = th.Title
	}
	m.reloadSummaries()
}

// buildSummarizer returns a summarizer for the active model, or nil when
// its provider has no key configured.
func (m Model) buildSummarizer() *transport.Summarizer {
	cfg, ok := registry.GetModelConfig(m.modelName)
	if !ok {
		return nil
	}
	apiKey := m.cfg.ProviderKey(cfg.Provider)
	if apiKey == "" || m.store == nil {
		return nil
	}
	return transport.NewSummarizer(m.client, m.store, cfg, apiKey)
}

// Init starts the background feeds.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if m.storeChanges != nil {
		cmds = append(cmds, waitForStoreChange(m.storeChanges))
	}
	if m.configReloads != nil {
		cmds = append(cmds, waitForConfigReload(m.configReloads))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AttachmentStagedMsg:
		return m.handleStaged(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case StoreChangedMsg:
		if msg.ThreadID == m.threadID {
			m.reloadSummaries()
			if th, err := m.store.GetThread(m.threadID); err == nil {
				m.threadTitle = th.Title
			}
		}
		return m, waitForStoreChange(m.storeChanges)

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.picker.SetKeys(msg.Config)
		m.summarizer = m.buildSummarizer()
		m.statusMsg = "config reloaded"
		return m, waitForConfigReload(m.configReloads)

	case CompletionDoneMsg:
		if msg.Err != nil {
			log.Printf("completion failed (title=%v): %v", msg.IsTitle, msg.Err)
		}
		return m, nil

	case CopyCompleteMsg:
		if msg.Err != nil {
			m.statusMsg = "copy failed"
		} else {
			m.statusMsg = "copied"
		}
		return m, nil

	case ErrorMsg:
		m.lastError = &msg
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blinks and other component messages fall through to the
	// focused input.
	var cmd tea.Cmd
	switch {
	case m.attachMode != attachNone:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.editing:
		m.editInput, cmd = m.editInput.Update(msg)
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// handleKey routes key presses by UI mode: overlays and prompts first, then
// the global bindings, then the composer textarea.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.showPicker {
		return m.handlePickerKey(msg)
	}
	if m.attachMode != attachNone {
		return m.handleAttachPromptKey(msg)
	}
	if m.editing {
		return m.handleEditKey(msg)
	}
	if m.navFocused {
		return m.handleNavigatorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Stop):
		if m.client.Status().Busy() {
			m.client.Stop()
			return m, nil
		}
		m.lastError = nil
		m.statusMsg = ""
		m.selected = -1
		return m, nil

	case key.Matches(msg, m.keyMap.AttachFile):
		m.attachMode = attachDocument
		m.pathInput.Reset()
		m.pathInput.Focus()
		m.input.Blur()
		return m, textinput.Blink

	case key.Matches(msg, m.keyMap.AttachImage):
		m.attachMode = attachImage
		m.pathInput.Reset()
		m.pathInput.Focus()
		m.input.Blur()
		return m, textinput.Blink

	case key.Matches(msg, m.keyMap.ClearAttachment):
		m.staged = nil
		m.stagedGen++
		return m, nil

	case key.Matches(msg, m.keyMap.ModelPicker):
		m.showPicker = true
		m.picker.MoveTo(m.modelName)
		return m, nil

	case key.Matches(msg, m.keyMap.Navigator):
		m.showNav = !m.showNav
		m.navFocused = m.showNav
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.NewThread):
		return m.startNewThread()

	case key.Matches(msg, m.keyMap.Copy):
		if text := m.selectedText(); text != "" {
			return m, copyCmd(text)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Edit):
		return m.beginEdit()

	case key.Matches(msg, m.keyMap.Reasoning):
		if msg := m.selectedAssistant(); msg != nil {
			m.showReasoning[msg.ID] = !m.showReasoning[msg.ID]
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.SelectUp):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.SelectDown):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.picker.MoveUp()
	case "down", "j":
		m.picker.MoveDown()
	case "enter":
		if name := m.picker.Choose(); name != "" {
			m.modelName = name
			m.summarizer = m.buildSummarizer()
			m.showPicker = false
		}
	case "esc":
		m.showPicker = false
	}
	return m, nil
}

func (m Model) handleAttachPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		imageOnly := m.attachMode == attachImage
		m.attachMode = attachNone
		m.pathInput.Blur()
		m.input.Focus()
		if path == "" {
			return m, nil
		}
		if !validAttachPath(path, imageOnly) {
			m.lastError = &ErrorMsg{Title: "Unsupported file", Message: path}
			return m, nil
		}
		m.stagedGen++
		return m, stageAttachmentCmd(m.stagedGen, path, m.builder)

	case "esc":
		m.attachMode = attachNone
		m.pathInput.Blur()
		m.input.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.commitEdit()
	case "esc":
		m.editing = false
		m.editInput.Blur()
		m.input.Focus()
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Model) handleNavigatorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.navigator.MoveUp()
	case "down", "j":
		m.navigator.MoveDown()
	case "enter":
		if id := m.navigator.Selected(); id != "" {
			m.jumpToMessage(id)
		}
		m.navFocused = false
	case "esc":
		m.navFocused = false
		m.showNav = false
		m.refreshViewport()
	}
	return m, nil
}

// =============================================================================
// SUBMIT PIPELINE
// =============================================================================

// submit runs the full submit algorithm: gate, assemble, lazily create the
// thread, persist, optimistically append, kick off the title or summary
// completion, clear the composer, and start the assistant stream.
func (m Model) submit() (tea.Model, tea.Cmd) {
	trimmed := strings.TrimSpace(m.input.Value())
	if trimmed == "" && m.staged == nil {
		return m, nil
	}
	if m.client.Status().Busy() {
		return m, nil
	}

	parts := message.Assemble(m.input.Value(), m.staged)
	userMsg := message.NewUserMessage(uuid.NewString(), parts)

	var cmds []tea.Cmd

	// Lazy thread creation happens before the message row so the foreign
	// key holds. The title completion fires only on this first message.
	newThread := m.threadID == ""
	if newThread {
		m.threadID = m.pendingThreadID
		if err := m.store.CreateThread(m.threadID); err != nil && !errors.Is(err, store.ErrThreadExists) {
			log.Printf("create thread %s: %v", m.threadID, err)
			m.lastError = &ErrorMsg{Title: "Save failed", Message: err.Error()}
		}
	}

	if m.summarizer != nil && trimmed != "" {
		opts := transport.CompleteOpts{
			ThreadID:  m.threadID,
			MessageID: userMsg.ID,
			IsTitle:   newThread,
		}
		cmds = append(cmds, summarizeCmd(m.summarizer, trimmed, opts))
	}

	if err := m.store.CreateMessage(m.threadID, userMsg); err != nil {
		// The in-memory append still happens so the turn is not lost;
		// the error stays visible until dismissed.
		log.Printf("persist message %s: %v", userMsg.ID, err)
		m.lastError = &ErrorMsg{Title: "Save failed", Message: err.Error()}
	}

	m.transcript = append(m.transcript, userMsg)

	// Clear the composer. Bumping the generation invalidates any staging
	// still in flight.
	m.input.Reset()
	m.staged = nil
	m.stagedGen++
	m.selected = -1

	next, streamCmd := m.startStream()
	if streamCmd != nil {
		cmds = append(cmds, streamCmd)
	}
	next.refreshViewport()
	next.viewport.GotoBottom()
	return next, tea.Batch(cmds...)
}

// startStream opens the assistant stream for the current transcript.
func (m Model) startStream() (Model, tea.Cmd) {
	modelCfg, ok := registry.GetModelConfig(m.modelName)
	if !ok {
		m.lastError = &ErrorMsg{Title: "Unknown model", Message: m.modelName}
		return m, nil
	}

	req := transport.StreamRequest{
		Model:    modelCfg,
		APIKey:   m.cfg.ProviderKey(modelCfg.Provider),
		Messages: m.transcript,
	}

	events, err := m.client.Append(context.Background(), req)
	if err != nil {
		m.lastError = &ErrorMsg{Title: "Stream failed", Message: err.Error()}
		return m, nil
	}

	assistant := message.NewAssistantMessage(uuid.NewString())
	m.transcript = append(m.transcript, assistant)
	m.streamingMsg = assistant
	m.events = events
	m.buffer.Reset()

	return m, tea.Batch(waitForStreamEvent(events), streamTickCmd(), m.spinner.Tick)
}

// handleStreamEvent folds one transport event into the streaming buffer and
// re-arms the pump, or finalizes the assistant message on channel close.
func (m Model) handleStreamEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	if msg.Closed {
		return m.finishStream()
	}

	ev := msg.Event
	if ev.Err != nil {
		m.lastError = &ErrorMsg{Title: "Stream error", Message: ev.Err.Error()}
	}
	if ev.Reasoning != "" {
		m.buffer.WriteReasoning(ev.Reasoning)
	}
	if ev.Content != "" {
		m.buffer.Write(ev.Content)
	}
	return m, waitForStreamEvent(m.events)
}

// handleStreamTick flushes the streaming buffer into the assistant message
// at the capped frame rate.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.streamingMsg == nil {
		return m, nil
	}
	if content, reasoning, ok := m.buffer.Flush(); ok {
		m.streamingMsg.AppendToken(content)
		m.streamingMsg.AppendReasoning(reasoning)
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

// finishStream drains the buffer, finalizes the streaming message into
// durable parts, and persists it. Runs on both completion and cancellation;
// partial content is kept either way.
func (m Model) finishStream() (tea.Model, tea.Cmd) {
	if m.streamingMsg == nil {
		return m, nil
	}

	if content, reasoning, ok := m.buffer.ForceFlush(); ok {
		m.streamingMsg.AppendToken(content)
		m.streamingMsg.AppendReasoning(reasoning)
	}
	empty := m.streamingMsg.StreamingText() == "" && m.streamingMsg.StreamingReasoning() == ""
	m.streamingMsg.FinalizeStream()

	if empty {
		// Nothing arrived before the stream ended; drop the placeholder.
		if n := len(m.transcript); n > 0 && m.transcript[n-1] == m.streamingMsg {
			m.transcript = m.transcript[:n-1]
		}
	} else if err := m.store.CreateMessage(m.threadID, m.streamingMsg); err != nil {
		log.Printf("persist assistant message %s: %v", m.streamingMsg.ID, err)
		m.lastError = &ErrorMsg{Title: "Save failed", Message: err.Error()}
	}

	m.streamingMsg = nil
	m.events = nil
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// ATTACHMENT STAGING
// =============================================================================

// handleStaged applies a finished attachment build unless a newer staging
// generation superseded it.
func (m Model) handleStaged(msg AttachmentStagedMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.stagedGen {
		return m, nil
	}
	if msg.Err != nil {
		m.lastError = &ErrorMsg{Title: "Attachment failed", Message: msg.Err.Error()}
		return m, nil
	}
	m.staged = msg.Attachment
	m.statusMsg = "attached " + msg.Attachment.Name
	return m, nil
}

// =============================================================================
// SELECTION, EDIT, NAVIGATION
// =============================================================================

func (m *Model) moveSelection(delta int) {
	if len(m.transcript) == 0 {
		return
	}
	if m.selected < 0 {
		m.selected = len(m.transcript) - 1
	} else {
		m.selected += delta
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.transcript) {
		m.selected = len(m.transcript) - 1
	}
	m.refreshViewport()
	m.scrollToIndex(m.selected)
}

// selectedText returns the copyable text of the selected message, falling
// back to the last assistant reply.
func (m Model) selectedText() string {
	if m.selected >= 0 && m.selected < len(m.transcript) {
		return m.transcript[m.selected].VisibleText()
	}
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].Role == message.RoleAssistant && !m.transcript[i].IsStreaming {
			return m.transcript[i].VisibleText()
		}
	}
	return ""
}

// selectedAssistant returns the selected assistant message, falling back to
// the most recent one.
func (m Model) selectedAssistant() *message.Message {
	if m.selected >= 0 && m.selected < len(m.transcript) {
		if msg := m.transcript[m.selected]; msg.Role == message.RoleAssistant {
			return msg
		}
		return nil
	}
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].Role == message.RoleAssistant {
			return m.transcript[i]
		}
	}
	return nil
}

// beginEdit opens the edit view for the selected user message.
func (m Model) beginEdit() (tea.Model, tea.Cmd) {
	if m.selected < 0 || m.selected >= len(m.transcript) {
		return m, nil
	}
	msg := m.transcript[m.selected]
	if msg.Role != message.RoleUser {
		return m, nil
	}
	m.editing = true
	m.editInput.SetValue(msg.VisibleText())
	m.editInput.Focus()
	m.input.Blur()
	return m, textinput.Blink
}

// commitEdit replaces the visible text part of the message being edited,
// persists the new parts, and leaves edit mode. Resubmission is not part of
// the edit flow.
func (m Model) commitEdit() (tea.Model, tea.Cmd) {
	m.editing = false
	m.editInput.Blur()
	m.input.Focus()

	if m.selected < 0 || m.selected >= len(m.transcript) {
		return m, nil
	}
	msg := m.transcript[m.selected]
	idx := msg.FirstVisibleTextPart()
	if idx < 0 {
		return m, nil
	}

	msg.Parts[idx].Text = m.editInput.Value()
	msg.Content = message.Flatten(msg.Parts)

	if err := m.store.UpdateMessageParts(msg.ID, msg.Parts); err != nil {
		log.Printf("update message %s: %v", msg.ID, err)
		m.lastError = &ErrorMsg{Title: "Save failed", Message: err.Error()}
	}

	m.refreshViewport()
	return m, nil
}

// jumpToMessage selects and scrolls to the message the navigator chose.
func (m *Model) jumpToMessage(id string) {
	for i, msg := range m.transcript {
		if msg.ID == id {
			m.selected = i
			m.refreshViewport()
			m.scrollToIndex(i)
			return
		}
	}
}

func (m *Model) scrollToIndex(i int) {
	if i >= 0 && i < len(m.msgOffsets) {
		m.viewport.SetYOffset(m.msgOffsets[i])
	}
}

// startNewThread resets to a fresh conversation with a newly pre-generated
// thread id. An active stream is stopped first.
func (m Model) startNewThread() (tea.Model, tea.Cmd) {
	if m.client.Status().Busy() {
		m.client.Stop()
	}
	m.threadID = ""
	m.pendingThreadID = uuid.NewString()
	m.threadTitle = ""
	m.transcript = nil
	m.streamingMsg = nil
	m.events = nil
	m.selected = -1
	m.lastError = nil
	m.statusMsg = ""
	m.staged = nil
	m.stagedGen++
	m.input.Reset()
	m.navigator.SetSummaries(nil)
	m.refreshViewport()
	return m, nil
}

// reloadSummaries re-queries the navigator's summary list for the active
// thread.
func (m *Model) reloadSummaries() {
	if m.threadID == "" {
		m.navigator.SetSummaries(nil)
		return
	}
	sums, err := m.store.MessageSummaries(m.threadID)
	if err != nil {
		log.Printf("load summaries for %s: %v", m.threadID, err)
		return
	}
	m.navigator.SetSummaries(sums)
}
