package detail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/keys"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/theme"
)

// BackMsg signals the parent to navigate back to the feed.
type BackMsg struct{}

// Model shows one notification and the source record it refers to.
type Model struct {
	n        *model.Notification
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.n == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notification selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.n == nil {
		return ""
	}
	n := m.n

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	state := "unread"
	if n.Read {
		state = "read"
	}

	sections := []string{
		titleStyle.Render(n.Icon + " " + n.Title),
		theme.TypeStyle(n.Type).Render(strings.ToUpper(string(n.Type))) + "  " + metaStyle.Render(state),
		"",
		n.Message,
		"",
		fmt.Sprintf("%s %s", metaStyle.Render("When:"), valStyle.Render(n.Timestamp.Local().Format("2006-01-02 15:04:05"))),
		fmt.Sprintf("%s   %s", metaStyle.Render("ID:"), valStyle.Render(n.ID)),
	}

	fields := sourceFields(n)
	if len(fields) > 0 || len(n.Data) > 0 {
		sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
			Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
		sections = append(sections, "", sep, "", titleStyle.Render("Source record"), "")
	}
	for _, f := range fields {
		sections = append(sections, fmt.Sprintf("%s %s", metaStyle.Render(f[0]+":"), valStyle.Render(f[1])))
	}
	if len(fields) == 0 && len(n.Data) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, n.Data, "", "  "); err == nil {
			sections = append(sections, buf.String())
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// sourceFields extracts the displayable fields of a contact or portfolio
// record. Unknown payloads yield nil and are shown as raw JSON.
func sourceFields(n *model.Notification) [][2]string {
	if len(n.Data) == 0 {
		return nil
	}

	var fields [][2]string
	add := func(label, value string) {
		if value != "" {
			fields = append(fields, [2]string{label, value})
		}
	}

	switch n.Type {
	case model.NotificationContact:
		var c model.Contact
		if json.Unmarshal(n.Data, &c) != nil {
			return nil
		}
		add("Name", c.Name)
		add("Email", c.Email)
		add("Subject", c.Subject)
		add("Message", c.Message)
	case model.NotificationPortfolio:
		var p model.PortfolioItem
		if json.Unmarshal(n.Data, &p) != nil {
			return nil
		}
		add("Title", p.Title)
		add("Category", p.Category)
		add("Description", p.Description)
		add("Image", p.ImageURL)
	}
	return fields
}

// SetNotification updates the notification being displayed.
func (m *Model) SetNotification(n model.Notification) {
	m.n = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Current returns the ID of the displayed notification.
func (m Model) Current() string {
	if m.n == nil {
		return ""
	}
	return m.n.ID
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.n != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
