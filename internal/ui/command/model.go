package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/theme"
)

// Commands are the palette commands understood by the console. They
// double as tab-completion suggestions.
var Commands = []string{
	"refresh",
	"read-all",
	"unread",
	"filter contact",
	"filter portfolio",
	"filter system",
	"clear",
	"reset-visits",
	"quit",
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Commands)
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		cmd := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if cmd == "" {
			return m, nil
		}
		return m, func() tea.Msg { return CommandMsg(cmd) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Command")

	hint := theme.HelpStyle.Render("tab completes: " + strings.Join(Commands, ", "))

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, m.input.View(), "", hint))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
