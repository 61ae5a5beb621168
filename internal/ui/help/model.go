package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/keys"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/theme"
)

// Model is the help overlay: key bindings plus a legend of the
// notification glyphs.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	legend := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Legend"),
		theme.TypeStyle(model.NotificationContact).Render(model.IconContact+" contact inquiry"),
		theme.TypeStyle(model.NotificationPortfolio).Render(model.IconPortfolio+" portfolio item"),
		theme.TypeStyle(model.NotificationSystem).Render(model.IconSystem+" system"),
		theme.UnreadDotStyle.Render("● unread"),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		legend,
	)

	return theme.DetailPanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
