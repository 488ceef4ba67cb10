package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/dialogos/pkg/interpreter"
	"github.com/ormasoftchile/dialogos/pkg/session"
)

// Config configures a Run invocation.
type Config struct {
	Interpreter *interpreter.Interpreter
	SessionID   string
	InitialVars map[string]any
}

// Run launches the session inspector full-screen and blocks until the
// user quits or the session finishes and they dismiss it.
func Run(cfg Config) error {
	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type turnMsg struct{ out interpreter.Output }

type entry struct {
	role string // "bot" or "user"
	text string
}

// Model is the bubbletea model driving one interpreter session.
type Model struct {
	in        *interpreter.Interpreter
	sessionID string

	viewport viewport.Model
	input    textinput.Model

	entries          []entry
	state            session.State
	waiting          bool
	availableIntents []string
	lastErr          error

	width, height int
	ready         bool
}

func initialModel(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "type a reply..."
	ti.Focus()
	ti.CharLimit = 500

	cfg.Interpreter.CreateSession(cfg.SessionID, cfg.InitialVars)

	return Model{
		in:        cfg.Interpreter,
		sessionID: cfg.SessionID,
		input:     ti,
	}
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		return turnMsg{out: m.in.Start(m.sessionID)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerH := 2
		intentH := 1
		inputH := 1
		keyBarH := 1
		vpHeight := m.height - headerH - intentH - inputH - keyBarH
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.input.Width = m.width - 2
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case turnMsg:
		out := msg.out
		if out.Message != "" {
			m.entries = append(m.entries, entry{role: "bot", text: out.Message})
		}
		m.state = out.State
		m.waiting = out.WaitingForInput
		m.availableIntents = out.AvailableIntents
		if out.State == session.Error {
			m.lastErr = fmt.Errorf("%s", out.Message)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Submit) && m.waiting:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.entries = append(m.entries, entry{role: "user", text: text})
			m.input.SetValue("")
			m.waiting = false
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, func() tea.Msg {
				return turnMsg{out: m.in.ProcessInput(m.sessionID, text)}
			}
		case key.Matches(msg, keys.PgUp):
			m.viewport.HalfPageUp()
			return m, nil
		case key.Matches(msg, keys.PgDown):
			m.viewport.HalfPageDown()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.waiting {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, e := range m.entries {
		switch e.role {
		case "user":
			b.WriteString(userMessageStyle.Render("you: " + e.text))
		default:
			b.WriteString(botMessageStyle.Render(renderMarkdown(e.text)))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "initializing..."
	}

	badge := stateBadgeStyle.Render(m.state.String())
	header := headerStyle.Render("dialogue: "+m.sessionID) + " " + badge

	intents := intentBarStyle.Render(strings.Join(m.availableIntents, "  "))

	var bottom string
	switch {
	case m.state == session.Error:
		bottom = errorStyle.Render("error: " + m.lastErr.Error())
	case m.state == session.Finished:
		bottom = finishedStyle.Render("session finished")
	default:
		bottom = m.input.View()
	}

	keyBar := keyBarStyle.Render(keyBarText(m.waiting))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		transcriptPanelStyle.Width(m.width-2).Render(m.viewport.View()),
		intents,
		bottom,
		keyBar,
	)
}
