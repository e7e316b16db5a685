package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	session "github.com/lumastream/live-core/core"
	"github.com/lumastream/live-core/core/events"
	"github.com/muesli/reflow/wordwrap"
)

type sessionConfig struct {
	jwt          string
	voice        string
	duration     int
	instructions string
	device       string
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	modelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	faintStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle    = lipgloss.NewStyle().Faint(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	separatorStyle = lipgloss.NewStyle().Faint(true)
)

// Messages delivered from orchestrator callbacks to the tea loop.
type (
	connectedMsg  struct{}
	connectFailed struct{ err error }
	transcriptMsg struct {
		speaker  string
		text     string
		finished bool
	}
	interruptedMsg struct{}
	turnDoneMsg    struct{}
	usageMsg       session.TokenUsage
	countdownMsg   int
	sessionEndMsg  events.SessionStats
	sessionErrMsg  struct{ err error }
	completionMsg  session.CompletionResult
)

type transcriptLine struct {
	speaker  string
	text     string
	finished bool
}

type model struct {
	orchestrator *session.Orchestrator
	config       sessionConfig

	uiEvents chan tea.Msg

	viewport viewport.Model
	spinner  spinner.Model
	input    textinput.Model

	lines     []transcriptLine
	usage     session.TokenUsage
	remaining int
	status    string
	failure   error
	finished  bool
	ready     bool
	width     int
}

func newModel(orchestrator *session.Orchestrator, config sessionConfig) *model {
	loading := spinner.New()
	loading.Spinner = spinner.Dot

	input := textinput.New()
	input.Placeholder = "type a message, enter to send"
	input.CharLimit = 512

	return &model{
		orchestrator: orchestrator,
		config:       config,
		uiEvents:     make(chan tea.Msg, 64),
		spinner:      loading,
		input:        input,
		remaining:    -1,
		status:       "connecting",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.connect(), m.nextEvent())
}

// nextEvent bridges orchestrator callbacks into the tea loop.
func (m *model) nextEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.uiEvents
	}
}

func (m *model) post(msg tea.Msg) {
	select {
	case m.uiEvents <- msg:
	default:
		// A full queue means the UI is wedged; dropping a transcript update
		// is better than blocking the gateway read loop.
	}
}

func (m *model) connect() tea.Cmd {
	return func() tea.Msg {
		opts := []session.SessionOption{
			session.WithInputTranscription(),
			session.WithOutputTranscription(),
			session.WithInputTranscriptionCallback(func(text string, finished bool) {
				m.post(transcriptMsg{speaker: "you", text: text, finished: finished})
			}),
			session.WithOutputTranscriptionCallback(func(text string, finished bool) {
				m.post(transcriptMsg{speaker: "model", text: text, finished: finished})
			}),
			session.WithInterruptedCallback(func() { m.post(interruptedMsg{}) }),
			session.WithTurnCompleteCallback(func() { m.post(turnDoneMsg{}) }),
			session.WithUsageCallback(func(usage session.TokenUsage) { m.post(usageMsg(usage)) }),
			session.WithCountdownCallback(func(remaining int) { m.post(countdownMsg(remaining)) }),
			session.WithSessionEndCallback(func(stats events.SessionStats) { m.post(sessionEndMsg(stats)) }),
			session.WithErrorCallback(func(err error) { m.post(sessionErrMsg{err: err}) }),
			session.WithCompletionCallback(func(result session.CompletionResult) { m.post(completionMsg(result)) }),
		}
		if m.config.instructions != "" {
			opts = append(opts, session.WithSystemInstructions(m.config.instructions))
		}
		if m.config.voice != "" {
			opts = append(opts, session.WithVoice(m.config.voice))
		}
		if m.config.duration > 0 {
			opts = append(opts, session.WithSessionDuration(m.config.duration))
		}
		if m.config.jwt != "" {
			opts = append(opts, session.WithJWT(m.config.jwt))
		}
		if m.config.device != "" {
			opts = append(opts, session.WithCaptureDevice(m.config.device))
		}

		if err := m.orchestrator.Connect(context.Background(), opts...); err != nil {
			return connectFailed{err: err}
		}
		return connectedMsg{}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.orchestrator.Disconnect()
			return m, tea.Quit
		case "tab":
			m.orchestrator.SetMuted(!m.orchestrator.IsMuted())
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				if err := m.orchestrator.SendText(text); err == nil {
					m.appendLine(transcriptLine{speaker: "you", text: text, finished: true})
					m.input.Reset()
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshTranscript()
		return m, nil

	case connectedMsg:
		m.status = "live"
		m.input.Focus()
		return m, m.nextEvent()

	case connectFailed:
		m.failure = msg.err
		m.status = "failed"
		return m, tea.Quit

	case transcriptMsg:
		m.appendLine(transcriptLine(msg))
		return m, m.nextEvent()

	case interruptedMsg:
		m.appendLine(transcriptLine{speaker: "", text: "[interrupted]", finished: true})
		return m, m.nextEvent()

	case turnDoneMsg:
		return m, m.nextEvent()

	case usageMsg:
		m.usage = session.TokenUsage(msg)
		return m, m.nextEvent()

	case countdownMsg:
		m.remaining = int(msg)
		return m, m.nextEvent()

	case completionMsg:
		m.appendLine(transcriptLine{
			speaker:  "",
			text:     fmt.Sprintf("[completed: score %d, %s]", msg.Score, msg.Feedback),
			finished: true,
		})
		return m, m.nextEvent()

	case sessionEndMsg:
		m.finished = true
		m.status = fmt.Sprintf("ended: %d messages, %d tokens", msg.MessageCount, msg.TotalTokenCount)
		return m, nil

	case sessionErrMsg:
		m.failure = msg.err
		m.status = "failed"
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// appendLine folds interim transcriptions in place: successive interim
// snapshots for the same speaker replace each other, and the finished
// snapshot pins the line.
func (m *model) appendLine(line transcriptLine) {
	if n := len(m.lines); n > 0 && !m.lines[n-1].finished && m.lines[n-1].speaker == line.speaker {
		m.lines[n-1] = line
	} else {
		m.lines = append(m.lines, line)
	}
	m.refreshTranscript()
}

func (m *model) refreshTranscript() {
	if !m.ready {
		return
	}

	var rendered strings.Builder
	for _, line := range m.lines {
		var style lipgloss.Style
		prefix := ""
		switch line.speaker {
		case "you":
			style, prefix = userStyle, "you: "
		case "model":
			style, prefix = modelStyle, "model: "
		default:
			style = faintStyle
		}
		text := line.text
		if !line.finished {
			text += "..."
		}
		rendered.WriteString(style.Render(wordwrap.String(prefix+text, m.width-2)))
		rendered.WriteString("\n")
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(rendered.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := titleStyle.Render("live session")
	if m.status == "connecting" {
		header += " " + m.spinner.View() + faintStyle.Render(" connecting")
	}

	footer := m.footerView()

	return header + "\n" +
		separatorStyle.Render(strings.Repeat("-", max(m.width, 1))) + "\n" +
		m.viewport.View() + "\n" +
		footer
}

func (m *model) footerView() string {
	parts := []string{}
	if m.remaining >= 0 {
		parts = append(parts, fmt.Sprintf("%02d:%02d left", m.remaining/60, m.remaining%60))
	}
	if m.usage.TotalTokenCount > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", m.usage.TotalTokenCount))
	}
	if m.orchestrator.IsMuted() {
		parts = append(parts, mutedStyle.Render("MUTED"))
	}
	parts = append(parts, m.status)

	status := footerStyle.Render(strings.Join(parts, " | "))
	if m.failure != nil {
		status = errorStyle.Render(m.failure.Error())
	}

	help := footerStyle.Render("enter: send  tab: mute  esc: quit")
	return status + "\n" + m.input.View() + "\n" + help
}
