package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nhle/adminfeed/internal/api"
	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/ledger"
	"github.com/nhle/adminfeed/internal/model"
	configview "github.com/nhle/adminfeed/internal/ui/config"
	"github.com/nhle/adminfeed/tests/testutil"
)

var ctx = context.Background()

type fakeAnalytics struct{ a model.Analytics }

func (f *fakeAnalytics) Latest() model.Analytics { return f.a }

func (f *fakeAnalytics) ResetVisits(context.Context) (model.Analytics, error) {
	f.a.PageVisits = 0
	f.a.VisitsChange = -100
	return f.a, nil
}

// newLocalServer runs the real admin API over an in-memory ledger.
func newLocalServer(t *testing.T) (*apiClient, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(testutil.NewTestStore(t))
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	bus := bridge.New()
	t.Cleanup(l.Attach(bus))

	srv := httptest.NewServer(api.NewHandler(api.Deps{
		Feed:      l,
		Analytics: &fakeAnalytics{a: model.Analytics{Contacts: 4, PageVisits: 120, VisitsChange: 20}},
		Bus:       bus,
		Token:     "test-token",
	}))
	t.Cleanup(srv.Close)

	return &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()}, l
}

func TestSendListAndRead(t *testing.T) {
	client, l := newLocalServer(t)

	ev := bridge.NotifyEvent{Type: model.NotificationSystem, Title: "Deploy finished", Message: "v1.4.2 is live"}
	resp, err := client.post(ctx, "/notifications", ev)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var sent map[string]int
	if err := decodeJSON(resp, &sent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sent["unreadCount"] != 1 {
		t.Errorf("unreadCount = %d, want 1", sent["unreadCount"])
	}

	resp, err = client.get(ctx, "/notifications")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var feed api.FeedResponse
	if err := decodeJSON(resp, &feed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(feed.Notifications) != 1 || feed.Notifications[0].Title != "Deploy finished" {
		t.Fatalf("feed = %+v", feed)
	}

	id := feed.Notifications[0].ID
	resp, err = client.post(ctx, "/notifications/"+id+"/read", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := decodeJSON(resp, nil); err != nil {
		t.Fatalf("read: %v", err)
	}
	if l.UnreadCount() != 0 {
		t.Errorf("UnreadCount = %d, want 0", l.UnreadCount())
	}
}

func TestAnalyticsResetVisits(t *testing.T) {
	client, _ := newLocalServer(t)

	resp, err := client.delete(ctx, "/analytics/visits")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	var a model.Analytics
	if err := decodeJSON(resp, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.PageVisits != 0 || a.VisitsChange != -100 {
		t.Errorf("analytics = %+v", a)
	}
}

func TestDecodeJSON_ErrorStatus(t *testing.T) {
	client, _ := newLocalServer(t)
	client.token = "wrong"

	resp, err := client.get(ctx, "/notifications")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	err = decodeJSON(resp, &api.FeedResponse{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want 401", err)
	}
}

func TestSendCommand_MissingTitle(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"notifications", "send", "--type", "system"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing title")
	}
	if !strings.Contains(err.Error(), "title is required") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestWriteFeed(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	feed := api.FeedResponse{
		UnreadCount: 1,
		Notifications: []model.Notification{
			{ID: "a", Title: "New Contact Inquiry", Message: "Ada sent a message: Hi", Icon: model.IconContact, Timestamp: time.Now()},
			{ID: "b", Title: "Dashboard Refreshed", Message: "Your dashboard data is up to date", Icon: model.IconSystem, Read: true, Timestamp: time.Now()},
		},
	}

	var buf bytes.Buffer
	writeFeed(&buf, feed, false)
	out := buf.String()
	if !strings.Contains(out, "1 unread") || !strings.Contains(out, "[a]") || !strings.Contains(out, "[b]") {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	writeFeed(&buf, feed, true)
	if strings.Contains(buf.String(), "[b]") {
		t.Error("read notification shown with unread filter")
	}
}

func TestWriteAnalytics(t *testing.T) {
	var buf bytes.Buffer
	writeAnalytics(&buf, model.Analytics{Contacts: 4, ContactsChange: 33.3, PageVisits: 10, VisitsChange: -50})
	out := buf.String()
	if !strings.Contains(out, "▲ 33.3%") || !strings.Contains(out, "▼ 50.0%") {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	writeAnalytics(&buf, model.Analytics{Error: "upstream down"})
	if !strings.Contains(buf.String(), "upstream down") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if got := colorize(colorRed, "x"); got != "x" {
		t.Errorf("colorize with noColor=true = %q", got)
	}
	noColor = false
	if got := colorize(colorRed, "x"); !strings.Contains(got, "\033[") {
		t.Errorf("colorize with noColor=false = %q", got)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q", buf.String())
	}
	if !newLogger("debug", &buf).Enabled(ctx, slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
}

func TestSaveSetup(t *testing.T) {
	old := configPath
	defer func() { configPath = old }()
	configPath = filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	form := configview.NewForm(cfg)
	form.BaseURL = "https://studio.example.com/api"
	form.DetectionInterval = "45"

	if err := saveSetup(form, cfg); err != nil {
		t.Fatalf("saveSetup: %v", err)
	}

	saved, err := model.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if saved.API.BaseURL != "https://studio.example.com/api" || saved.Poll.DetectionIntervalSec != 45 {
		t.Errorf("saved = %+v", saved)
	}
}

func TestHealthIsPublic(t *testing.T) {
	client, _ := newLocalServer(t)
	resp, err := client.httpClient.Get(client.baseURL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}
