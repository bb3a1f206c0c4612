// internal/client/tui/app.go
package tui

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chatroom/internal/client/models"
	"chatroom/pkg/protocol"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// Sender is the part of the connection the chat view drives.
type Sender interface {
	Send(protocol.Message) error
	Logoff() error
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	addrStyle = headerStyle.
			Background(lipgloss.Color("#383838"))

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Width(10)

	privateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF87D7"))

	serverStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#874BFD")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type Model struct {
	viewport   viewport.Model
	input      textinput.Model
	entries    []models.Entry
	username   string
	serverAddr string
	sender     Sender
	width      int
	height     int
	loggingOff bool
	quitting   bool
}

func NewModel(username, serverAddr, greeting string, sender Sender) Model {
	input := textinput.New()
	input.Placeholder = "Type a command, ? for help..."
	input.Focus()
	input.CharLimit = 1000

	// get term size
	width, height, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		width = 80 // Fallback
		height = 24
	}

	vp := viewport.New(width, height-5)
	input.Width = width - 8

	m := Model{
		viewport:   vp,
		input:      input,
		username:   username,
		serverAddr: serverAddr,
		sender:     sender,
		width:      width,
		height:     height,
	}
	if greeting != "" {
		m.addEntry(models.NewEntry(models.EntryServer, greeting))
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(line) != "" {
				m.runCommand(line)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 1
		inputHeight := 3
		verticalMargin := headerHeight + inputHeight + 1

		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - verticalMargin
		m.input.Width = msg.Width - 8
		m.updateContent()

	case models.MessageReceived:
		m.addEntry(FormatMessage(msg.Message))

	case models.Disconnected:
		if msg.Unexpected {
			m.addEntry(models.NewEntry(models.EntryError, LostConnectionText))
		}
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) runCommand(line string) {
	command, err := ParseCommand(line, m.username)
	if err != nil {
		m.addEntry(models.NewEntry(models.EntryError, UnknownCommandText))
		return
	}

	switch command.Action {
	case ActionHelp:
		for _, text := range HelpLines {
			m.addEntry(models.NewEntry(models.EntryHelp, text))
		}
		return
	case ActionLogoff:
		m.loggingOff = true
		err = m.sender.Logoff()
	default:
		err = m.sender.Send(command.Message)
	}

	if err != nil {
		log.Printf("Error sending message: %v", err)
		m.addEntry(models.NewEntry(models.EntryError, "--Error: "+err.Error()))
	}
}

func (m *Model) addEntry(entry models.Entry) {
	m.entries = append(m.entries, entry)
	m.updateContent()
}

func (m *Model) updateContent() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(inputStyle.Render(m.input.View()))
	return sb.String()
}

func (m Model) renderHeader() string {
	title := headerStyle.Render(m.username)
	if m.loggingOff {
		title = headerStyle.Render(m.username + " (logging off)")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, addrStyle.Render(m.serverAddr))
}

func (m Model) renderEntries() string {
	var sb strings.Builder
	for _, entry := range m.entries {
		sb.WriteString(timestampStyle.Render(entry.At.Format(time.TimeOnly)))
		sb.WriteString(styleFor(entry.Kind).Render(entry.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}

func styleFor(kind models.EntryKind) lipgloss.Style {
	switch kind {
	case models.EntryPrivate:
		return privateStyle
	case models.EntryServer:
		return serverStyle
	case models.EntryError:
		return errorStyle
	case models.EntryHelp:
		return helpStyle
	}
	return lipgloss.NewStyle()
}

// Entries returns the chat log in arrival order.
func (m Model) Entries() []models.Entry {
	return m.entries
}

// Farewell is printed to the normal screen once the program exits, so the
// logoff acknowledgement or the connection error stays visible.
func (m Model) Farewell() string {
	if len(m.entries) == 0 {
		return ""
	}
	last := m.entries[len(m.entries)-1]
	return fmt.Sprintf("[%s] %s\n", last.At.Format(time.TimeOnly), last.Text)
}
