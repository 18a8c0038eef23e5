// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/document"
	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/render"
	"github.com/morganforge/grokwire/internal/session"
	"github.com/morganforge/grokwire/internal/storage"
	"github.com/morganforge/grokwire/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the chat view's top-level mode.
type State int

const (
	StateReady State = iota
	StateStreaming
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int

	manager *session.Manager
	store   *storage.Store

	// In-flight stream.
	runner         *session.Runner
	buffer         *StreamingBuffer
	streamText     strings.Builder
	streamingMsgID string
	cancel         context.CancelFunc

	// Per-entry disclosure state, keyed by message ID. Lives only while
	// the process does; disclosure state is never persisted.
	renderStates map[string]*document.RenderState
	policy       document.DisclosurePolicy

	// Disclosure focus for keyboard toggling.
	disclosures []disclosureRef
	focusIdx    int

	renderer *render.Terminal

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	inputMode     bool
	statusMsg     string
	commandOutput string
	lastErr       error
}

// disclosureRef identifies one toggleable disclosure in the rendered
// conversation.
type disclosureRef struct {
	msgID string
	key   string
	title string
	open  bool
}

// New creates the chat view.
func New(cfg *config.Config, manager *session.Manager, store *storage.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Message Grok..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	theme := styles.NewTheme()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	policy := document.DefaultPolicy()
	if cfg != nil {
		policy.OpenAllWhileStreaming = cfg.UI.OpenAllWhileStreaming
		policy.FirstSectionOpen = cfg.UI.FirstSectionOpen
	}

	maxFPS := 30
	codeTheme := "monokai"
	if cfg != nil {
		maxFPS = cfg.UI.MaxFPS
		codeTheme = cfg.UI.CodeTheme
	}

	return Model{
		state:        StateReady,
		theme:        theme,
		cfg:          cfg,
		manager:      manager,
		store:        store,
		buffer:       NewStreamingBuffer(maxFPS),
		renderStates: make(map[string]*document.RenderState),
		policy:       policy,
		renderer:     render.NewTerminal(80).WithCodeTheme(codeTheme),
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		keyMap:       DefaultKeyMap(),
		inputMode:    true,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamFinishedMsg:
		return m.handleStreamFinished(msg)

	case StatusMsg:
		m.statusMsg = msg.Text
		return m, nil

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	default:
		var cmds []tea.Cmd
		if m.inputMode && m.state == StateReady {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
		return m, tea.Batch(cmds...)
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	const reservedHeight = 6 // header + input area + status bar
	vpHeight := m.height - reservedHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}
	codeTheme := "monokai"
	if m.cfg != nil {
		codeTheme = m.cfg.UI.CodeTheme
	}
	m.renderer = render.NewTerminal(contentWidth).WithCodeTheme(codeTheme)

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}

	m.updateViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.state == StateStreaming {
		if key.Matches(msg, m.keyMap.Cancel) {
			if m.cancel != nil {
				m.cancel()
			}
			m.statusMsg = "Cancelling..."
			return m, nil
		}
		return m.handleNavigation(msg)
	}

	if !m.inputMode {
		switch {
		case key.Matches(msg, m.keyMap.FocusInput):
			m.inputMode = true
			m.input.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keyMap.NextDisclosure):
			return m.cycleDisclosure(1)

		case key.Matches(msg, m.keyMap.PrevDisclosure):
			return m.cycleDisclosure(-1)

		case key.Matches(msg, m.keyMap.Toggle):
			return m.toggleFocusedDisclosure()

		case msg.String() == "q":
			return m, tea.Quit
		}
		return m.handleNavigation(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.LeaveInput):
		m.inputMode = false
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if strings.HasPrefix(text, "/") {
			m.input.Reset()
			return m.handleCommand(text)
		}
		return m.submitInput(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// STREAMING
// =============================================================================

// submitInput sends the user message and starts the stream.
func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.statusMsg = ""
	m.lastErr = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	runner, err := m.manager.Send(ctx, text)
	if err != nil {
		cancel()
		m.cancel = nil
		m.lastErr = err
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.runner = runner
	m.buffer.Reset()
	m.streamText.Reset()
	if last := m.manager.Active().GetLastMessage(); last != nil {
		m.streamingMsgID = last.ID
	}
	m.state = StateStreaming

	// The runner goroutine mirrors deltas and the reasoning timer into
	// the buffer; the tick handler drains them on the Bubble Tea loop.
	buf := m.buffer
	state := runner.State()
	appended := 0
	runner.OnUpdate(func() {
		text := state.Text()
		if len(text) > appended {
			buf.Write(text[appended:])
			appended = len(text)
		}
		buf.SetElapsed(state.ThinkingSeconds())
	})

	runCmd := func() tea.Msg {
		return StreamFinishedMsg{Err: runner.Run(ctx)}
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(runCmd, m.spinner.Tick, streamTickCmd(m.buffer.Interval()))
}

// handleStreamTick drains the buffer and redraws at the capped rate.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}

	if content, ok := m.buffer.Flush(); ok {
		m.streamText.WriteString(content)
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd(m.buffer.Interval())
}

// handleStreamFinished runs after the runner committed the entry.
func (m Model) handleStreamFinished(msg StreamFinishedMsg) (tea.Model, tea.Cmd) {
	if content, ok := m.buffer.ForceFlush(); ok {
		m.streamText.WriteString(content)
	}
	m.streamText.Reset()
	m.streamingMsgID = ""
	m.state = StateReady
	m.runner = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.lastErr = msg.Err
	m.statusMsg = ""

	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	m.inputMode = true
	return m, textinput.Blink
}

// =============================================================================
// DISCLOSURE TOGGLING
// =============================================================================

// cycleDisclosure moves the focus over the rendered disclosures.
func (m Model) cycleDisclosure(step int) (tea.Model, tea.Cmd) {
	if len(m.disclosures) == 0 {
		return m, nil
	}
	m.focusIdx = (m.focusIdx + step + len(m.disclosures)) % len(m.disclosures)
	d := m.disclosures[m.focusIdx]
	m.statusMsg = "section: " + d.title
	return m, nil
}

// toggleFocusedDisclosure flips the focused disclosure's open state in
// the owning entry's RenderState and re-renders.
func (m Model) toggleFocusedDisclosure() (tea.Model, tea.Cmd) {
	if len(m.disclosures) == 0 {
		return m, nil
	}
	d := m.disclosures[m.focusIdx]
	state := m.renderState(d.msgID)
	state.SetOpen(d.key, !d.open)
	m.updateViewport()
	return m, nil
}

// renderState returns the RenderState for an entry, creating it on
// first use.
func (m *Model) renderState(msgID string) *document.RenderState {
	s, ok := m.renderStates[msgID]
	if !ok {
		s = document.NewRenderState()
		m.renderStates[msgID] = s
	}
	return s
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Conversation returns the active conversation.
func (m *Model) Conversation() *model.Conversation {
	return m.manager.Active()
}

// GetState returns the current view state.
func (m *Model) GetState() State {
	return m.state
}
