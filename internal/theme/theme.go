package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CardStyle frames one analytics metric.
var CardStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ReadItemStyle dims notifications that were already read.
var ReadItemStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// UnreadDotStyle marks unread notifications.
var UnreadDotStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle renders inline error text.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// TypeStyle returns a color-coded style for a notification type badge.
func TypeStyle(t model.NotificationType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.NotificationContact:
		return base.Foreground(ColorGreen)
	case model.NotificationPortfolio:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// ChangeStyle colors a percentage change: growth green, decline red.
func ChangeStyle(pct float64) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case pct > 0:
		return base.Foreground(ColorGreen)
	case pct < 0:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
