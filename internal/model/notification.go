package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies what produced a notification.
type NotificationType string

const (
	NotificationContact   NotificationType = "contact"
	NotificationPortfolio NotificationType = "portfolio"
	NotificationSystem    NotificationType = "system"
)

// MaxNotifications is the size cap of the notification ledger.
const MaxNotifications = 50

// Display glyphs per notification type.
const (
	IconContact   = "✉"
	IconPortfolio = "★"
	IconSystem    = "⚙"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationContact, NotificationPortfolio, NotificationSystem:
		return true
	}
	return false
}

// Icon returns the default display glyph for t.
func (t NotificationType) Icon() string {
	switch t {
	case NotificationContact:
		return IconContact
	case NotificationPortfolio:
		return IconPortfolio
	default:
		return IconSystem
	}
}

// Notification is a single entry of the admin notification feed.
type Notification struct {
	// ID is unique across the ledger, even for repeated detections of
	// the same upstream record.
	ID string `json:"id"`

	// Type identifies which detector or caller produced the record.
	Type NotificationType `json:"type"`

	// Title and Message are the display strings.
	Title   string `json:"title"`
	Message string `json:"message"`

	// Timestamp is the originating event's creation time, or the
	// detection time when the source record carried none.
	Timestamp time.Time `json:"timestamp"`

	// Read flips to true once the admin has seen the notification.
	Read bool `json:"isRead"`

	// Icon is the display glyph.
	Icon string `json:"icon"`

	// Data is the originating source record. It is a loose reference and
	// may outlive the record it was copied from.
	Data json.RawMessage `json:"data,omitempty"`
}

// NewNotificationID builds a ledger id from the notification type, the
// source record id (or the event time when the record has none) and a
// random suffix.
func NewNotificationID(t NotificationType, sourceID string, at time.Time) string {
	key := sourceID
	if key == "" {
		key = strconv.FormatInt(at.UnixMilli(), 10)
	}
	return fmt.Sprintf("%s-%s-%s", t, key, uuid.New().String()[:8])
}
