package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewNotificationID(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	withSource := NewNotificationID(NotificationContact, "abc", at)
	if !strings.HasPrefix(withSource, "contact-abc-") {
		t.Errorf("id = %q, want contact-abc- prefix", withSource)
	}

	withoutSource := NewNotificationID(NotificationSystem, "", at)
	if !strings.HasPrefix(withoutSource, "system-1700000000123-") {
		t.Errorf("id = %q, want timestamp key", withoutSource)
	}

	if again := NewNotificationID(NotificationContact, "abc", at); again == withSource {
		t.Error("ids for the same source record must differ")
	}
}

func TestNotificationTypeIcon(t *testing.T) {
	tests := []struct {
		typ  NotificationType
		want string
	}{
		{NotificationContact, IconContact},
		{NotificationPortfolio, IconPortfolio},
		{NotificationSystem, IconSystem},
		{NotificationType("other"), IconSystem},
	}
	for _, tt := range tests {
		if got := tt.typ.Icon(); got != tt.want {
			t.Errorf("%s.Icon() = %q, want %q", tt.typ, got, tt.want)
		}
	}
	if NotificationType("other").Valid() {
		t.Error("unknown type should not be valid")
	}
}
