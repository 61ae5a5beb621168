package detect

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nhle/adminfeed/internal/model"
)

var (
	t0  = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
)

func TestContacts_StrictIdentity(t *testing.T) {
	previous := []model.Contact{{ID: "a"}}
	current := []model.Contact{{ID: "a"}, {ID: "b", Name: "Ada", Subject: "Quote", CreatedAt: t0}}

	got := Contacts(previous, current, now)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}

	n := got[0]
	var src model.Contact
	if err := json.Unmarshal(n.Data, &src); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if src.ID != "b" {
		t.Errorf("candidate refers to %q, want b", src.ID)
	}
	if n.Type != model.NotificationContact || n.Icon != model.IconContact {
		t.Errorf("type/icon = %s/%s", n.Type, n.Icon)
	}
	if !n.Timestamp.Equal(t0) {
		t.Errorf("Timestamp = %v, want source createdAt %v", n.Timestamp, t0)
	}
	if n.Message != "Ada sent a message: Quote" {
		t.Errorf("Message = %q", n.Message)
	}
	if n.Read {
		t.Error("new candidates must be unread")
	}
}

func TestContacts_SameNameDifferentIDIsNew(t *testing.T) {
	previous := []model.Contact{{ID: "a", Name: "Ada", Subject: "Quote", CreatedAt: t0}}
	current := []model.Contact{{ID: "z", Name: "Ada", Subject: "Quote", CreatedAt: t0}}

	if got := Contacts(previous, current, now); len(got) != 1 {
		t.Errorf("got %d candidates, want 1 (no fuzzy matching for contacts)", len(got))
	}
}

func TestContacts_MissingIDUsesContent(t *testing.T) {
	first := model.Contact{Name: "Ada", Email: "ada@example.com", Subject: "Quote", CreatedAt: t0}
	second := model.Contact{Name: "Bob", Email: "bob@example.com", Subject: "Hello", CreatedAt: t0.Add(time.Minute)}

	if got := Contacts(nil, []model.Contact{first}, now); len(got) != 1 {
		t.Fatalf("cold: got %d candidates, want 1", len(got))
	}
	got := Contacts([]model.Contact{first}, []model.Contact{first, second}, now)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1 (the second id-less contact)", len(got))
	}
	var src model.Contact
	if err := json.Unmarshal(got[0].Data, &src); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if src.Name != "Bob" {
		t.Errorf("candidate refers to %q, want Bob", src.Name)
	}
	if got := Contacts([]model.Contact{first, second}, []model.Contact{first, second}, now); len(got) != 0 {
		t.Errorf("repeat: got %d candidates, want 0", len(got))
	}
}

func TestContacts_Placeholders(t *testing.T) {
	got := Contacts(nil, []model.Contact{{ID: "x"}}, now)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Message != "Someone sent a message: No subject" {
		t.Errorf("Message = %q", got[0].Message)
	}
	if !got[0].Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want detection time", got[0].Timestamp)
	}
}

func TestRedetectionIsIdempotent(t *testing.T) {
	previous := []model.Contact{{ID: "a"}}
	current := []model.Contact{{ID: "a"}, {ID: "b"}}

	if got := Contacts(previous, current, now); len(got) != 1 {
		t.Fatalf("first pass: got %d, want 1", len(got))
	}
	// The cycle stores current as the new snapshot.
	if got := Contacts(current, current, now); len(got) != 0 {
		t.Errorf("second pass: got %d, want 0", len(got))
	}

	items := []model.PortfolioItem{{ID: "p1", Title: "Demo Reel", CreatedAt: t0}}
	if got := PortfolioItems(items, items, now); len(got) != 0 {
		t.Errorf("portfolio second pass: got %d, want 0", len(got))
	}
}

func TestPortfolioItems_NearDuplicateWindow(t *testing.T) {
	previous := []model.PortfolioItem{{Title: "Demo Reel", CreatedAt: t0}}

	tests := []struct {
		name    string
		current model.PortfolioItem
		want    int
	}{
		{"same id", model.PortfolioItem{ID: "p1", Title: "Other"}, 1},
		{"identical timestamp", model.PortfolioItem{Title: "Demo Reel", CreatedAt: t0}, 0},
		{"within window", model.PortfolioItem{Title: "Demo Reel", CreatedAt: t0.Add(30 * time.Second)}, 0},
		{"within window earlier", model.PortfolioItem{Title: "Demo Reel", CreatedAt: t0.Add(-59 * time.Second)}, 0},
		{"at window edge", model.PortfolioItem{Title: "Demo Reel", CreatedAt: t0.Add(60 * time.Second)}, 1},
		{"outside window", model.PortfolioItem{Title: "Demo Reel", CreatedAt: t0.Add(90 * time.Second)}, 1},
		{"different title", model.PortfolioItem{Title: "Brand Film", CreatedAt: t0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PortfolioItems(previous, []model.PortfolioItem{tt.current}, now)
			if len(got) != tt.want {
				t.Errorf("got %d candidates, want %d", len(got), tt.want)
			}
		})
	}
}

func TestPortfolioItems_SharedID(t *testing.T) {
	previous := []model.PortfolioItem{{ID: "p1", Title: "Old title", CreatedAt: t0}}
	current := []model.PortfolioItem{{ID: "p1", Title: "Renamed", CreatedAt: t0.Add(time.Hour)}}

	if got := PortfolioItems(previous, current, now); len(got) != 0 {
		t.Errorf("got %d candidates, want 0 for shared id", len(got))
	}
}

func TestPortfolioItems_Message(t *testing.T) {
	got := PortfolioItems(nil, []model.PortfolioItem{{ID: "p9"}}, now)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Message != "Untitled Project was added to the portfolio" {
		t.Errorf("Message = %q", got[0].Message)
	}
	if got[0].Type != model.NotificationPortfolio {
		t.Errorf("Type = %s", got[0].Type)
	}
}

func TestCandidateIDsAreFresh(t *testing.T) {
	current := []model.Contact{{ID: "b"}}
	first := Contacts(nil, current, now)
	second := Contacts(nil, current, now)
	if first[0].ID == second[0].ID {
		t.Errorf("ids must never be reused, both %q", first[0].ID)
	}
}
