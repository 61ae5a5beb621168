package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/nhle/adminfeed/internal/model"
)

func TestFormatChange(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.5, "▲ 12.5%"},
		{-33.3, "▼ 33.3%"},
		{0, "– 0.0%"},
	}
	for _, tt := range tests {
		if got := FormatChange(tt.in); got != tt.want {
			t.Errorf("FormatChange(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	out := Render(model.Analytics{Contacts: 12, PortfolioItems: 4, PageVisits: 900, ContactsChange: 20, ComputedAt: time.Now()}, 90)
	for _, want := range []string{"Contacts", "12", "900", "▲ 20.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = Render(model.Analytics{Error: "connection refused", ComputedAt: time.Now()}, 90)
	if !strings.Contains(out, "connection refused") {
		t.Errorf("error not shown:\n%s", out)
	}
}
