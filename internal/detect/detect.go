// Package detect compares two observations of a watched collection and
// synthesizes notifications for items that appeared in between.
package detect

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/adminfeed/internal/model"
)

// NearDuplicateWindow is the creation-time slack within which two
// portfolio items with the same title are treated as the same item.
// An optimistic UI insert and the server's stored copy usually differ
// by a few seconds.
const NearDuplicateWindow = 60 * time.Second

// Placeholders used when a source record lacks a display field.
const (
	placeholderName    = "Someone"
	placeholderSubject = "No subject"
	placeholderTitle   = "Untitled Project"
)

// Contacts returns one notification per contact in current whose ID
// does not appear in previous. Matching is strict identity only; a
// contact without an ID is identified by its full content instead.
func Contacts(previous, current []model.Contact, now time.Time) []model.Notification {
	known := make(map[string]struct{}, len(previous))
	for _, c := range previous {
		known[contactKey(c)] = struct{}{}
	}

	var out []model.Notification
	for _, c := range current {
		if _, ok := known[contactKey(c)]; ok {
			continue
		}
		out = append(out, contactNotification(c, now))
	}
	return out
}

func contactKey(c model.Contact) string {
	if c.ID != "" {
		return "id\x00" + c.ID
	}
	return strings.Join([]string{
		"anon", c.Name, c.Email, c.Subject, c.Message,
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, "\x00")
}

// PortfolioItems returns one notification per item in current that has
// no counterpart in previous. An earlier item is a counterpart when it
// shares the ID, or shares the title and was created at the same time
// or less than NearDuplicateWindow apart.
func PortfolioItems(previous, current []model.PortfolioItem, now time.Time) []model.Notification {
	var out []model.Notification
	for _, item := range current {
		if HasPortfolioCounterpart(item, previous) {
			continue
		}
		out = append(out, portfolioNotification(item, now))
	}
	return out
}

// HasPortfolioCounterpart reports whether any item in others is the same
// portfolio item as item under the rules of PortfolioItems.
func HasPortfolioCounterpart(item model.PortfolioItem, others []model.PortfolioItem) bool {
	for _, p := range others {
		if item.ID != "" && p.ID == item.ID {
			return true
		}
		if item.Title == "" || p.Title != item.Title {
			continue
		}
		if p.CreatedAt.Equal(item.CreatedAt) {
			return true
		}
		if absDuration(p.CreatedAt.Sub(item.CreatedAt)) < NearDuplicateWindow {
			return true
		}
	}
	return false
}

func contactNotification(c model.Contact, now time.Time) model.Notification {
	ts := eventTime(c.CreatedAt, now)
	return model.Notification{
		ID:    model.NewNotificationID(model.NotificationContact, c.ID, ts),
		Type:  model.NotificationContact,
		Title: "New Contact Inquiry",
		Message: fmt.Sprintf("%s sent a message: %s",
			orDefault(c.Name, placeholderName),
			orDefault(c.Subject, placeholderSubject)),
		Timestamp: ts,
		Icon:      model.IconContact,
		Data:      raw(c),
	}
}

func portfolioNotification(item model.PortfolioItem, now time.Time) model.Notification {
	ts := eventTime(item.CreatedAt, now)
	return model.Notification{
		ID:        model.NewNotificationID(model.NotificationPortfolio, item.ID, ts),
		Type:      model.NotificationPortfolio,
		Title:     "New Portfolio Item",
		Message:   PortfolioMessage(item),
		Timestamp: ts,
		Icon:      model.IconPortfolio,
		Data:      raw(item),
	}
}

// PortfolioMessage is the display message for a newly added portfolio item.
func PortfolioMessage(item model.PortfolioItem) string {
	return fmt.Sprintf("%s was added to the portfolio", orDefault(item.Title, placeholderTitle))
}

// eventTime prefers the record's own creation time.
func eventTime(created, now time.Time) time.Time {
	if created.IsZero() {
		return now
	}
	return created
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// raw encodes a source record for Notification.Data. The records are
// plain structs of strings and times, so encoding cannot fail.
func raw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
