package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestContactUnmarshal_CreatedAt(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T10:00:00Z"`, want},
		{"fractional", `"2024-05-01T10:00:00.000Z"`, want},
		{"epoch millis", `1714557600000`, want},
		{"empty", `""`, time.Time{}},
		{"null", `null`, time.Time{}},
		{"garbage", `"yesterday"`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Contact
			data := `{"_id":"a","name":"Ada","createdAt":` + tt.raw + `}`
			if err := json.Unmarshal([]byte(data), &c); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if c.ID != "a" || c.Name != "Ada" {
				t.Errorf("contact = %+v, other fields lost", c)
			}
			if !c.CreatedAt.Equal(tt.want) {
				t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, tt.want)
			}
		})
	}
}

func TestPortfolioItemUnmarshal_BadTimestampKeepsCollection(t *testing.T) {
	data := `[
		{"_id":"p1","title":"Demo Reel","createdAt":""},
		{"_id":"p2","title":"Brand Film","imageUrl":"/b.png","createdAt":"2024-05-01T10:00:00Z"},
		{"_id":"p3","title":"Teaser"}
	]`
	var items []PortfolioItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if !items[0].CreatedAt.IsZero() || !items[2].CreatedAt.IsZero() {
		t.Errorf("missing timestamps should decode as zero: %v / %v", items[0].CreatedAt, items[2].CreatedAt)
	}
	if items[1].ImageURL != "/b.png" || items[1].CreatedAt.IsZero() {
		t.Errorf("item = %+v", items[1])
	}
}

func TestContactRoundTripKeepsZeroTime(t *testing.T) {
	data, err := json.Marshal(Contact{ID: "a"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var c Contact
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !c.CreatedAt.IsZero() {
		t.Errorf("CreatedAt = %v, want zero", c.CreatedAt)
	}
}
