// Package stats renders the analytics strip above the feed.
package stats

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/theme"
)

// Render draws the three analytics cards across width. A failed
// computation renders its error instead.
func Render(a model.Analytics, width int) string {
	if a.Error != "" {
		return theme.CardStyle.
			Width(max(width-2, 0)).
			Render(theme.ErrorStyle.Render("analytics unavailable: " + a.Error))
	}
	if a.ComputedAt.IsZero() {
		return theme.CardStyle.
			Width(max(width-2, 0)).
			Render(theme.HelpStyle.Render("waiting for analytics..."))
	}

	cardWidth := max(width/3-2, 0)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Contacts", a.Contacts, a.ContactsChange, cardWidth),
		card("Portfolio", a.PortfolioItems, a.PortfolioChange, cardWidth),
		card("Visits", a.PageVisits, a.VisitsChange, cardWidth),
	)
}

func card(label string, value int, change float64, width int) string {
	text := fmt.Sprintf("%s %d %s",
		theme.HelpStyle.Render(label),
		value,
		theme.ChangeStyle(change).Render(FormatChange(change)),
	)
	return theme.CardStyle.Width(width).Render(text)
}

// FormatChange renders a percentage change with an arrow, e.g. "▲ 12.5%".
func FormatChange(pct float64) string {
	switch {
	case pct > 0:
		return fmt.Sprintf("▲ %.1f%%", pct)
	case pct < 0:
		return fmt.Sprintf("▼ %.1f%%", -pct)
	default:
		return "– 0.0%"
	}
}
