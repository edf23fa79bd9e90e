// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatdesk/internal/bridge"
	chatsvc "github.com/jeranaias/chatdesk/internal/chat"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Conversations manages sessions. *chatsvc.Service implements it.
type Conversations interface {
	NewSession() string
	Reset(sessionID string)
	Title(sessionID string) string
}

// Submitter runs turns in the background. *bridge.Bridge implements it.
type Submitter interface {
	Submit(ctx context.Context, sessionID, text string, onResult func(chatsvc.Result))
	Pending() int
}

// =============================================================================
// MODEL
// =============================================================================

// Layout heights of the fixed parts of the window.
const (
	headerHeight = 2
	inputHeight  = 3
	statusHeight = 1
)

// Model is the Bubble Tea model of the chat window.
type Model struct {
	conv   Conversations
	submit Submitter
	typing *bridge.Typing
	theme  *styles.Theme
	keys   KeyMap
	ctx    context.Context
	logger *slog.Logger

	saveTheme ThemeSaver

	input    textinput.Model
	viewport viewport.Model

	log *transcript
	md  *markdown

	welcome        string
	providerName   string
	typingInterval time.Duration
	renderMarkdown bool

	width  int
	height int
	ready  bool
}

// ThemeSaver records the theme chosen with the toggle key.
type ThemeSaver func(mode styles.Mode) error

// Option configures a Model.
type Option func(*Model)

// WithWelcome sets the message shown at the start of every chat. An empty
// string shows none.
func WithWelcome(text string) Option {
	return func(m *Model) {
		m.welcome = text
	}
}

// WithProviderName sets the provider label shown in the header.
func WithProviderName(name string) Option {
	return func(m *Model) {
		m.providerName = name
	}
}

// WithTypingInterval sets the typing animation period.
func WithTypingInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.typingInterval = d
		}
	}
}

// WithMarkdown enables or disables markdown rendering of replies.
func WithMarkdown(enabled bool) Option {
	return func(m *Model) {
		m.renderMarkdown = enabled
	}
}

// WithContext sets the context passed to submitted turns.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(km KeyMap) Option {
	return func(m *Model) {
		m.keys = km
	}
}

// WithThemeSaver persists the theme each time it is toggled.
func WithThemeSaver(save ThemeSaver) Option {
	return func(m *Model) {
		m.saveTheme = save
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates the chat window and starts its first session. typing must be
// the indicator the Submitter drives.
func New(conv Conversations, submit Submitter, typing *bridge.Typing, theme *styles.Theme, opts ...Option) Model {
	if typing == nil {
		typing = &bridge.Typing{}
	}
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}

	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	m := Model{
		conv:           conv,
		submit:         submit,
		typing:         typing,
		theme:          theme,
		keys:           DefaultKeyMap(),
		ctx:            context.Background(),
		logger:         slog.New(slog.DiscardHandler),
		input:          ti,
		viewport:       viewport.New(0, 0),
		log:            &transcript{},
		md:             &markdown{},
		welcome:        chatsvc.WelcomeText,
		typingInterval: bridge.DefaultTypingInterval,
		renderMarkdown: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.applyInputStyles()

	m.log.start(conv.NewSession(), m.welcome)
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case bridge.CallbackMsg:
		return m.handleCallback(msg)

	case bridge.TypingTickMsg:
		if !m.typing.Advance(msg.Gen) {
			return m, nil
		}
		m.refresh()
		return m, bridge.TickCmd(msg.Gen, m.typingInterval)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the window.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// HANDLERS
// =============================================================================

// persistTheme saves the current mode off the update loop. A failed save
// only costs the choice at the next start.
func (m Model) persistTheme() tea.Cmd {
	if m.saveTheme == nil {
		return nil
	}
	save, mode, logger := m.saveTheme, m.theme.Mode, m.logger
	return func() tea.Msg {
		if err := save(mode); err != nil {
			logger.Warn("theme not saved", "theme", string(mode), "error", err)
		} else {
			logger.Debug("theme saved", "theme", string(mode))
		}
		return nil
	}
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.input.Width = max(m.width-8, 10)
	m.ready = true

	m.log.invalidate()
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewChat):
		return m.newChat()

	case key.Matches(msg, m.keys.ToggleTheme):
		m.theme = m.theme.Toggle()
		m.applyInputStyles()
		m.log.invalidate()
		m.refresh()
		return m, m.persistTheme()

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.send()
	}

	if m.Busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send submits the input line. Sending is disabled while a reply is pending.
func (m Model) send() (tea.Model, tea.Cmd) {
	if m.Busy() {
		return m, nil
	}

	text := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(text) != "" {
		m.log.add(entryUser, text)
	}
	m.input.Blur()

	log := m.log
	sessionID := log.sessionID
	m.submit.Submit(m.ctx, sessionID, text, func(r chatsvc.Result) {
		if !log.deliver(sessionID, r) {
			m.logger.Debug("dropped result for closed session", "session", sessionID)
		}
	})

	m.refresh()
	return m, bridge.TickCmd(m.typing.Generation(), m.typingInterval)
}

// handleCallback runs a result delivered by the bridge and re-enables the
// input once nothing is pending.
func (m Model) handleCallback(msg bridge.CallbackMsg) (tea.Model, tea.Cmd) {
	msg.Run()

	var cmd tea.Cmd
	if !m.Busy() {
		m.input.Focus()
		cmd = textinput.Blink
	}
	m.refresh()
	return m, cmd
}

// newChat resets the current session and starts a fresh one.
func (m Model) newChat() (tea.Model, tea.Cmd) {
	old := m.log.sessionID
	m.conv.Reset(old)
	id := m.conv.NewSession()
	m.log.start(id, m.welcome)
	m.logger.Info("new chat", "previous", old, "session", id)

	m.input.Reset()
	var cmd tea.Cmd
	if !m.Busy() {
		m.input.Focus()
		cmd = textinput.Blink
	}
	m.refresh()
	return m, cmd
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SessionID returns the session shown in the window.
func (m Model) SessionID() string {
	return m.log.sessionID
}

// Busy reports whether a reply is pending.
func (m Model) Busy() bool {
	return m.submit.Pending() > 0
}

// Theme returns the active theme.
func (m Model) Theme() *styles.Theme {
	return m.theme
}

// InputFocused reports whether the input accepts typing.
func (m Model) InputFocused() bool {
	return m.input.Focused()
}

// SetInput replaces the input line.
func (m *Model) SetInput(text string) {
	m.input.SetValue(text)
}

func (m *Model) applyInputStyles() {
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.InputPlaceholder
}

// refresh rebuilds the viewport content and keeps the newest entry in view.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
