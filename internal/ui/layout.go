package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/theme"
)

// Layout manages the terminal layout: header, analytics strip, content
// and status bar stacked vertically.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StripHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions. The
// analytics strip takes three rows (a bordered card).
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StripHeight:     3,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StripHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar with a title on the left and the
// poll status on the right.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.Render(syncStatus)

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, titleRendered, filler, statusRendered)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := max(l.Width-lipgloss.Width(rendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame stacks header, analytics strip, content and status bar.
func (l Layout) RenderWithFrame(header, strip, content, statusBar string) string {
	content = lipgloss.NewStyle().Height(l.ContentHeight()).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, strip, content, statusBar)
}
