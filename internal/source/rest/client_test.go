package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nhle/adminfeed/internal/source"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "test-token",
		WithHTTPClient(srv.Client()),
		WithBackoff(time.Millisecond),
	)
}

func TestFetchContacts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts" {
			t.Errorf("path = %s, want /contacts", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`[{"_id":"a","name":"Ada","subject":"Hello","createdAt":"2024-05-01T10:00:00Z"},{"_id":"b"}]`))
	})

	contacts, err := c.FetchContacts(context.Background())
	if err != nil {
		t.Fatalf("FetchContacts: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}
	if contacts[0].Name != "Ada" || contacts[0].CreatedAt.IsZero() {
		t.Errorf("contact[0] = %+v", contacts[0])
	}
	if !contacts[1].CreatedAt.IsZero() {
		t.Errorf("absent createdAt should decode to zero time")
	}
}

func TestFetchContacts_EmptyCreatedAt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"a","name":"Ada","createdAt":""},{"_id":"b","createdAt":"2024-05-01T10:00:00Z"}]`))
	})

	contacts, err := c.FetchContacts(context.Background())
	if err != nil {
		t.Fatalf("FetchContacts: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}
	if !contacts[0].CreatedAt.IsZero() || contacts[1].CreatedAt.IsZero() {
		t.Errorf("createdAt = %v / %v", contacts[0].CreatedAt, contacts[1].CreatedAt)
	}
}

func TestFetchPortfolioItems_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	items, err := c.FetchPortfolioItems(context.Background())
	if err != nil {
		t.Fatalf("FetchPortfolioItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

func TestFetch_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object", `{"items":[]}`},
		{"null", `null`},
		{"empty", ``},
		{"broken", `[{"_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := c.FetchContacts(context.Background())
			if !source.IsMalformed(err) {
				t.Errorf("err = %v, want MalformedError", err)
			}
		})
	}
}

func TestFetch_AuthErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if _, err := c.FetchContacts(context.Background()); !source.IsAuthError(err) {
		t.Errorf("401: err = %v, want AuthError", err)
	}

	noToken := NewClient("http://127.0.0.1:1", "")
	if _, err := noToken.FetchPortfolioItems(context.Background()); !source.IsAuthError(err) {
		t.Errorf("missing token: err = %v, want AuthError", err)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.FetchContacts(context.Background())
	httpErr, ok := err.(*source.HTTPError)
	if !ok {
		t.Fatalf("err = %T %v, want *source.HTTPError", err, err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
}

func TestFetch_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	})

	if _, err := c.FetchContacts(context.Background()); err != nil {
		t.Fatalf("FetchContacts: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestPageVisits(t *testing.T) {
	var deleted atomic.Bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/visits/total" {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"total":1234}`))
		case http.MethodDelete:
			deleted.Store(true)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	total, err := c.FetchPageVisitTotal(context.Background())
	if err != nil {
		t.Fatalf("FetchPageVisitTotal: %v", err)
	}
	if total != 1234 {
		t.Errorf("total = %d, want 1234", total)
	}

	if err := c.ResetPageVisits(context.Background()); err != nil {
		t.Fatalf("ResetPageVisits: %v", err)
	}
	if !deleted.Load() {
		t.Error("DELETE was not sent")
	}
}

func TestPageVisits_MissingTotal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":3}`))
	})
	if _, err := c.FetchPageVisitTotal(context.Background()); !source.IsMalformed(err) {
		t.Errorf("err = %v, want MalformedError", err)
	}
}
