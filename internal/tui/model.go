package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

// ChatPort is the subset of the server API the chat screen needs.
type ChatPort interface {
	// Ask answers a question within a session. An empty sessionID starts
	// a new session; the id in use is returned.
	Ask(question, intent, sessionID string) (string, *domain.Answer, error)
	ClearSession(sessionID string) error
}

type entry struct {
	role    domain.Role
	text    string
	sources []domain.RetrievedSource
	failed  bool
}

// answerMsg carries a finished Ask call back into Update.
type answerMsg struct {
	sessionID string
	answer    *domain.Answer
	err       error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	port      ChatPort
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	intent    domain.Intent
	sessionID string
	status    string
	pending   bool
	ready     bool
}

func New(port ChatPort, intent domain.Intent, sessionID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /help"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		port:      port,
		input:     ti,
		viewport:  vp,
		intent:    intent.OrDefault(),
		sessionID: sessionID,
		status:    "Ready.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// SessionID is the session the conversation is using, empty before the
// first answer.
func (m Model) SessionID() string { return m.sessionID }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		// header, intent line, status and the input line
		reserved := 4 + ih
		vh := msg.Height - reserved - th
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.pending = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{role: domain.RoleAssistant, text: msg.err.Error(), failed: true})
			m.status = "Request failed."
		} else {
			m.sessionID = msg.sessionID
			if msg.answer.Status == domain.AnswerStatusError {
				m.entries = append(m.entries, entry{role: domain.RoleAssistant, text: msg.answer.Message, failed: true})
				m.status = "No answer."
			} else {
				m.entries = append(m.entries, entry{role: domain.RoleAssistant, text: msg.answer.Text, sources: msg.answer.Sources})
				m.status = fmt.Sprintf("Answered from %d sources.", len(msg.answer.Sources))
			}
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.Type {
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.pending {
				return m, nil
			}
			m.input.SetValue("")
			if strings.HasPrefix(line, "/") {
				return m.command(line)
			}
			return m.ask(line)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) (tea.Model, tea.Cmd) {
	m.entries = append(m.entries, entry{role: domain.RoleUser, text: question})
	m.pending = true
	m.status = "Thinking..."
	m.refresh()

	port, intent, sessionID := m.port, string(m.intent), m.sessionID
	return m, func() tea.Msg {
		id, answer, err := port.Ask(question, intent, sessionID)
		return answerMsg{sessionID: id, answer: answer, err: err}
	}
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/clear":
		if m.sessionID != "" {
			if err := m.port.ClearSession(m.sessionID); err != nil {
				m.status = "Clear failed: " + err.Error()
				return m, nil
			}
		}
		m.entries = nil
		m.status = "History cleared."
	case "/intent":
		if len(fields) < 2 {
			m.status = "Usage: /intent <" + intentList() + ">"
			return m, nil
		}
		intent, err := domain.ParseIntent(strings.ToLower(fields[1]))
		if err != nil {
			m.status = fmt.Sprintf("Unknown intent %q. Choose one of %s.", fields[1], intentList())
			return m, nil
		}
		m.intent = intent
		m.status = "Intent set to " + string(intent) + "."
	case "/help":
		m.status = "/intent <name>  /clear  /quit"
	default:
		m.status = fmt.Sprintf("Unknown command %s. Try /help.", fields[0])
	}
	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Study Assistant")
	info := dimStyle.Render("intent: " + string(m.intent))
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + info + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return dimStyle.Render("No messages yet.")
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case e.role == domain.RoleUser:
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(wrap.Render(e.text))
		case e.failed:
			b.WriteString(errorStyle.Render("Error: "))
			b.WriteString(wrap.Render(e.text))
		default:
			b.WriteString(assistantStyle.Render("Assistant: "))
			b.WriteString(wrap.Render(e.text))
			for j, src := range e.sources {
				b.WriteString("\n")
				b.WriteString(dimStyle.Render(formatSource(j+1, src)))
			}
		}
	}
	return b.String()
}

func formatSource(n int, src domain.RetrievedSource) string {
	label := src.Metadata["source"]
	if label == "" {
		label = "passage"
	}
	if page := src.Metadata["page"]; page != "" {
		label += " p." + page
	}
	if src.Score != nil {
		return fmt.Sprintf("  [%d] %s (%.2f)", n, label, *src.Score)
	}
	return fmt.Sprintf("  [%d] %s", n, label)
}

func intentList() string {
	intents := domain.AllIntents()
	names := make([]string, len(intents))
	for i, intent := range intents {
		names[i] = string(intent)
	}
	return strings.Join(names, "|")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
