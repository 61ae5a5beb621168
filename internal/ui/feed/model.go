// Package feed is the scrollable notification list of the console.
package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/keys"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	ID string
}

// MarkReadMsg asks the parent to mark one notification read.
type MarkReadMsg struct {
	ID string
}

// MarkAllReadMsg asks the parent to mark the whole feed read.
type MarkAllReadMsg struct{}

// Model is the notification list view.
type Model struct {
	list       list.Model
	keys       *keys.KeyMap
	all        []model.Notification
	types      map[model.NotificationType]bool
	unreadOnly bool
	width      int
	height     int
}

// New creates an empty feed view.
func New(k *keys.KeyMap, width, height int) Model {
	return newWithClock(k, width, height, nil)
}

func newWithClock(k *keys.KeyMap, width, height int, now func() time.Time) Model {
	l := list.New([]list.Item{}, Delegate{now: now}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		types:  make(map[model.NotificationType]bool),
		width:  width,
		height: height,
	}
}

// SetNotifications replaces the feed contents, keeping the cursor in range.
func (m *Model) SetNotifications(ns []model.Notification) tea.Cmd {
	m.all = ns
	return m.apply()
}

// apply rebuilds the visible items from the full feed and the filters.
func (m *Model) apply() tea.Cmd {
	items := make([]list.Item, 0, len(m.all))
	for _, n := range m.all {
		if m.unreadOnly && n.Read {
			continue
		}
		if len(m.types) > 0 && !m.types[n.Type] {
			continue
		}
		items = append(items, Item{Notification: n})
	}
	return m.list.SetItems(items)
}

// Visible returns the notifications currently shown.
func (m Model) Visible() []model.Notification {
	items := m.list.Items()
	out := make([]model.Notification, 0, len(items))
	for _, it := range items {
		out = append(out, it.(Item).Notification)
	}
	return out
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// ToggleType shows or hides notifications of type t. With no type
// selected every type is shown.
func (m *Model) ToggleType(t model.NotificationType) tea.Cmd {
	if m.types[t] {
		delete(m.types, t)
	} else {
		m.types[t] = true
	}
	return m.apply()
}

// ToggleUnreadOnly hides or shows read notifications.
func (m *Model) ToggleUnreadOnly() tea.Cmd {
	m.unreadOnly = !m.unreadOnly
	return m.apply()
}

// ClearFilters shows everything again.
func (m *Model) ClearFilters() tea.Cmd {
	m.types = make(map[model.NotificationType]bool)
	m.unreadOnly = false
	return m.apply()
}

// FilterSummary describes the active filters, or "" when none are set.
func (m Model) FilterSummary() string {
	var parts []string
	if len(m.types) > 0 {
		var names []string
		for t := range m.types {
			names = append(names, string(t))
		}
		sort.Strings(names)
		parts = append(parts, "type: "+strings.Join(names, ","))
	}
	if m.unreadOnly {
		parts = append(parts, "unread only")
	}
	return strings.Join(parts, " | ")
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			if n, ok := m.Selected(); ok {
				return m, func() tea.Msg { return SelectedMsg{ID: n.ID} }
			}
			return m, nil

		case key.Matches(msg, m.keys.MarkRead):
			if n, ok := m.Selected(); ok && !n.Read {
				return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }
			}
			return m, nil

		case key.Matches(msg, m.keys.MarkAllRead):
			return m, func() tea.Msg { return MarkAllReadMsg{} }

		case key.Matches(msg, m.keys.UnreadOnly):
			cmd := m.ToggleUnreadOnly()
			return m, cmd

		case key.Matches(msg, m.keys.FilterContact):
			cmd := m.ToggleType(model.NotificationContact)
			return m, cmd

		case key.Matches(msg, m.keys.FilterPortfolio):
			cmd := m.ToggleType(model.NotificationPortfolio)
			return m, cmd

		case key.Matches(msg, m.keys.FilterSystem):
			cmd := m.ToggleType(model.NotificationSystem)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the feed.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.FilterSummary() != "" {
		return style.Render("No matching notifications.\nPress : then type 'clear' to reset filters.")
	}
	return style.Render("No notifications yet.\n\nNew contact inquiries and portfolio items show up here.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
