// Package tui is a terminal chat window for playing at the casino table.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/render"
)

// Model is the Bubble Tea model for the chat window: a scrolling log of game
// messages, a sidebar and an input line. Every line the player enters is
// delivered on Lines.
type Model struct {
	renderer *render.Renderer
	logger   *log.Logger

	// UI components.
	logViewport viewport.Model
	input       textinput.Model

	// State.
	gameLog     []string
	lines       chan string
	closed      bool
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Sidebar.
	account string
	balance string
	choices []string

	// Dimensions.
	width       int
	height      int
	initialized bool
}

// chatMsg carries a game message into the model.
type chatMsg chat.Message

// promptMsg sets the replies the current game is waiting for; nil clears them.
type promptMsg []string

// NewModel creates a chat window for account.
func NewModel(renderer *render.Renderer, account string, logger *log.Logger) *Model {
	// Sized properly once the first WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Type a command, e.g. coin 10 heads"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		renderer:    renderer,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		lines:       make(chan string, 16),
		focusedPane: 1,
		account:     account,
	}
}

// Lines yields everything the player enters. It is closed when they quit.
func (m *Model) Lines() <-chan string {
	return m.lines
}

// Log returns the rendered chat log.
func (m *Model) Log() []string {
	return append([]string{}, m.gameLog...)
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case chatMsg:
		m.addMessage(chat.Message(msg))
		return m, nil

	case promptMsg:
		m.choices = msg
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updated dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quit()
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				m.submit(m.input.Value())
				m.input.SetValue("")
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit echoes a line into the log and hands it to whoever is reading Lines.
func (m *Model) submit(line string) {
	line = strings.TrimSpace(line)
	if line == "" || m.closed {
		return
	}
	m.addEntry(EchoStyle.Render("> " + line))

	select {
	case m.lines <- line:
	default:
		m.logger.Warn("Input buffer full, dropping line", "line", line)
	}
}

func (m *Model) quit() {
	m.quitting = true
	m.closeLines()
}

func (m *Model) closeLines() {
	if !m.closed {
		m.closed = true
		close(m.lines)
	}
}

// addMessage renders a game message into the log, picking up the balance
// when the message reports one.
func (m *Model) addMessage(msg chat.Message) {
	for _, f := range msg.Fields {
		if f.Name == "Balance" {
			m.balance = f.Value
		}
	}
	m.addEntry(m.renderer.Message(msg))
}

func (m *Model) addEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))

	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Input pane (bottom, full width)
	inputContent := m.renderInputPane()
	inputHeight := lipgloss.Height(inputContent)
	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.border(1)).
		Width(max(m.width-2, 1)).
		Height(max(inputHeight, 1))
	inputPane := inputStyle.Render(inputContent)

	// Sidebar (right of the log, same height)
	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-inputHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(blurredBorder).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	// Log pane fills what is left
	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.border(0)).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, inputPane)
}

func (m *Model) border(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return focusedBorder
	}
	return blurredBorder
}

func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	content.WriteString(HeaderStyle.Render(" Casino "))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("Account: %s\n", m.account))
	if m.balance != "" {
		content.WriteString(SuccessStyle.Render("Balance: " + m.balance))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	if len(m.choices) > 0 {
		content.WriteString(WarningStyle.Render("Your move:"))
		content.WriteString("\n")
		content.WriteString(ChoicesStyle.Render(strings.Join(m.choices, " / ")))
	} else {
		content.WriteString(InfoStyle.Render("No game in progress"))
	}
	return content.String()
}

func (m *Model) renderInputPane() string {
	var content strings.Builder
	content.WriteString(m.input.View())
	content.WriteString("\n")

	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to send • Ctrl+C to quit"))
	}
	return content.String()
}
