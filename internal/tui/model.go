// Package tui provides the full-screen chat interface built on bubbletea.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/model"
	"github.com/Veraticus/loanbot/internal/tui/themes"
)

const (
	sidebarWidth    = 34
	minSidebarWidth = 80
	inputCharLimit  = 1000
)

// role identifies who wrote a transcript entry.
type role int

const (
	roleAssistant role = iota
	roleApplicant
	roleNotice
)

type entry struct {
	decision *model.Decision
	text     string
	role     role
	degraded bool
}

// Model holds the chat screen state.
type Model struct {
	ctx          context.Context
	lastError    error
	startErr     error
	bot          *chat.Bot
	chat         *chat.Chat
	lastDecision *model.Decision
	theme        themes.Theme
	state        snapshot
	symbol       string
	transcript   []entry
	help         help.Model
	keymap       KeyMap
	input        textinput.Model
	spinner      spinner.Model
	viewport     viewport.Model
	config       Config
	width        int
	height       int
	showSidebar  bool
	waiting      bool
	quitting     bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, bot *chat.Bot, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Tell me about your income, debts and the loan you need..."
	input.CharLimit = inputCharLimit
	input.Prompt = "› "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	h := help.New()
	h.ShowAll = false

	m := Model{
		ctx:         ctx,
		bot:         bot,
		config:      cfg,
		theme:       cfg.Theme,
		keymap:      DefaultKeyMap(),
		input:       input,
		spinner:     spin,
		help:        h,
		viewport:    viewport.New(cfg.Width, cfg.Height),
		symbol:      bot.Engine().Policy().CurrencySymbol,
		width:       cfg.Width,
		height:      cfg.Height,
		showSidebar: cfg.ShowSidebar,
		waiting:     true,
	}
	m.handleResize()
	return m
}

// Init starts the conversation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		startChat(m.ctx, m.bot),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKeys(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		m.refreshTranscript()

	case chatStartedMsg:
		m.waiting = false
		if msg.err != nil {
			m.startErr = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		m.chat = msg.chat
		m.state = msg.state
		m.transcript = append(m.transcript, entry{role: roleAssistant, text: msg.state.greeting})
		m.refreshTranscript()

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.lastError = msg.err
			break
		}
		m.lastError = nil
		m.state = msg.state
		m.transcript = append(m.transcript, entry{
			role:     roleAssistant,
			text:     msg.reply.ModelText,
			degraded: msg.reply.Degraded,
			decision: msg.reply.Decision,
		})
		if msg.reply.Redacted.Detected() {
			m.transcript = append(m.transcript, entry{
				role: roleNotice,
				text: "Masked before sending: " + strings.Join(msg.reply.Redacted.CategoryNames(), ", "),
			})
		}
		if msg.reply.Decision != nil {
			m.lastDecision = msg.reply.Decision
		}
		m.refreshTranscript()

	case resetMsg:
		m.waiting = false
		if msg.err != nil {
			m.lastError = msg.err
			break
		}
		m.lastError = nil
		m.state = msg.state
		m.lastDecision = nil
		m.transcript = []entry{
			{role: roleNotice, text: "Started a new conversation."},
			{role: roleAssistant, text: msg.state.greeting},
		}
		m.refreshTranscript()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderScreen()
}

// handleKeys handles global shortcuts. It reports false for keys meant for the input.
func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit, true

	case key.Matches(msg, m.keymap.ClearScreen):
		return tea.ClearScreen, true

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.handleResize()
		return nil, true

	case key.Matches(msg, m.keymap.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		m.handleResize()
		m.refreshTranscript()
		return nil, true

	case key.Matches(msg, m.keymap.ScrollUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
		return nil, true

	case key.Matches(msg, m.keymap.ScrollDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
		return nil, true

	case key.Matches(msg, m.keymap.Reset):
		if m.chat == nil || m.waiting {
			return nil, true
		}
		m.waiting = true
		return tea.Batch(resetChat(m.ctx, m.chat), m.spinner.Tick), true

	case key.Matches(msg, m.keymap.Send):
		if m.chat == nil || m.waiting {
			return nil, true
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return nil, true
		}
		m.input.Reset()
		m.waiting = true
		m.transcript = append(m.transcript, entry{role: roleApplicant, text: text})
		m.refreshTranscript()
		return tea.Batch(sendMessage(m.ctx, m.chat, text), m.spinner.Tick), true
	}
	return nil, false
}

// sidebarVisible reports whether the terminal is wide enough for the sidebar.
func (m Model) sidebarVisible() bool {
	return m.showSidebar && m.width >= minSidebarWidth
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	transcriptWidth := m.width
	if m.sidebarVisible() {
		transcriptWidth -= sidebarWidth + 1
	}

	// header, input, error line and help
	chrome := 4
	if m.help.ShowAll {
		chrome += 3
	}

	m.viewport.Width = max(transcriptWidth, 10)
	m.viewport.Height = max(m.height-chrome, 3)
	m.input.Width = max(m.width-4, 10)
	m.help.Width = m.width
}

// refreshTranscript re-renders the transcript and scrolls to the newest entry.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// Chat returns the active conversation, if one was started.
func (m Model) Chat() *chat.Chat {
	return m.chat
}
