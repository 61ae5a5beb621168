package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nhle/adminfeed/internal/api"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/ui/stats"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

// writeFeed prints one line per notification, newest first.
func writeFeed(w io.Writer, feed api.FeedResponse, unreadOnly bool) {
	fmt.Fprintf(w, "%s\n", colorize(colorBold, fmt.Sprintf("%d unread", feed.UnreadCount)))
	shown := 0
	for _, n := range feed.Notifications {
		if unreadOnly && n.Read {
			continue
		}
		marker := " "
		if !n.Read {
			marker = colorize(colorCyan, "●")
		}
		fmt.Fprintf(w, "%s %s %-16s %s: %s %s\n",
			marker,
			n.Icon,
			n.Timestamp.Local().Format("2006-01-02 15:04"),
			n.Title,
			n.Message,
			colorize(colorDim, "["+n.ID+"]"),
		)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, "no notifications")
	}
}

// writeAnalytics prints the three dashboard metrics.
func writeAnalytics(w io.Writer, a model.Analytics) {
	if a.Error != "" {
		fmt.Fprintf(w, "%s\n", colorize(colorRed, "analytics unavailable: "+a.Error))
		return
	}
	rows := []struct {
		label  string
		value  int
		change float64
	}{
		{"Contacts", a.Contacts, a.ContactsChange},
		{"Portfolio", a.PortfolioItems, a.PortfolioChange},
		{"Page visits", a.PageVisits, a.VisitsChange},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s %8d  %s\n", r.label, r.value, stats.FormatChange(r.change))
	}
	if !a.ComputedAt.IsZero() {
		fmt.Fprintf(w, "%s\n", colorize(colorDim, "computed "+a.ComputedAt.Local().Format(time.DateTime)))
	}
}
