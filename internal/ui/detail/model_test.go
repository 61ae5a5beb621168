package detail

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/adminfeed/internal/keys"
	"github.com/nhle/adminfeed/internal/model"
)

func TestRenderContact(t *testing.T) {
	data, _ := json.Marshal(model.Contact{ID: "c1", Name: "Ada", Email: "ada@example.com", Subject: "Quote"})
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.SetNotification(model.Notification{
		ID:        "contact-c1-abcd1234",
		Type:      model.NotificationContact,
		Title:     "New Contact Inquiry",
		Message:   "Ada sent a message: Quote",
		Icon:      model.IconContact,
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Data:      data,
	})

	out := m.renderContent()
	for _, want := range []string{"New Contact Inquiry", "ada@example.com", "Quote", "unread"} {
		if !strings.Contains(out, want) {
			t.Errorf("content missing %q", want)
		}
	}
	if m.Current() != "contact-c1-abcd1234" {
		t.Errorf("Current = %q", m.Current())
	}
}

func TestRenderUnknownPayloadAsJSON(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 30)
	m.SetNotification(model.Notification{
		ID:   "system-1",
		Type: model.NotificationSystem,
		Data: json.RawMessage(`{"job":"backup"}`),
	})
	if out := m.renderContent(); !strings.Contains(out, `"job": "backup"`) {
		t.Errorf("content = %q", out)
	}
}

func TestEscGoesBack(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(BackMsg); !ok {
		t.Errorf("esc produced %#v", cmd())
	}
}
