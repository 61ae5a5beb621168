package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/theme"
)

// Item wraps a notification for bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// Delegate renders one notification per line.
type Delegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d Delegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	dot := " "
	if !n.Read {
		dot = theme.UnreadDotStyle.Render("●")
	}

	icon := n.Icon
	if icon == "" {
		icon = n.Type.Icon()
	}
	badge := theme.TypeStyle(n.Type).Render(icon)

	now := time.Now()
	if d.now != nil {
		now = d.now()
	}
	when := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(now, n.Timestamp))

	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	if n.Read {
		text = theme.ReadItemStyle.Render(text)
	}

	line := fmt.Sprintf("%s %s %s  %s", dot, badge, text, when)
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly age of t as seen at now.
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}
