package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/ledger"
	"github.com/nhle/adminfeed/internal/model"
	appsync "github.com/nhle/adminfeed/internal/sync"
	"github.com/nhle/adminfeed/internal/ui/feed"
	"github.com/nhle/adminfeed/tests/testutil"
)

type fakeSyncer struct {
	results  chan appsync.CycleResult
	statuses []appsync.SyncStatus
}

func (f *fakeSyncer) Results() <-chan appsync.CycleResult { return f.results }
func (f *fakeSyncer) Statuses() []appsync.SyncStatus     { return f.statuses }

type fakeAnalytics struct {
	latest   model.Analytics
	resetErr error
	resets   int
}

func (f *fakeAnalytics) Latest() model.Analytics { return f.latest }

func (f *fakeAnalytics) ResetVisits(context.Context) (model.Analytics, error) {
	f.resets++
	if f.resetErr != nil {
		return model.Analytics{}, f.resetErr
	}
	f.latest.PageVisits = 0
	return f.latest, nil
}

type fixture struct {
	model  Model
	ledger *ledger.Ledger
	sync   *fakeSyncer
	stats  *fakeAnalytics
	bus    *bridge.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	l := ledger.New(testutil.NewTestStore(t))
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"first", "second"} {
		if _, err := l.Inject(ctx, model.NotificationContact, title, "msg", "", nil); err != nil {
			t.Fatal(err)
		}
	}

	f := &fixture{
		ledger: l,
		sync:   &fakeSyncer{results: make(chan appsync.CycleResult, 1)},
		stats:  &fakeAnalytics{latest: model.Analytics{Contacts: 2, PageVisits: 40}},
		bus:    bridge.New(),
	}
	m := New(Deps{Feed: l, Sync: f.sync, Analytics: f.stats, Bus: f.bus})
	f.model = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	f.model = step(t, f.model, f.model.loadFeed()())
	return f
}

// step applies msg and returns the updated root model.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// stepRun applies msg, runs the returned command once and feeds its
// message back in.
func stepRun(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if out := cmd(); out != nil {
		m = step(t, m, out)
	}
	return m
}

func TestHeaderShowsUnreadCount(t *testing.T) {
	f := newFixture(t)
	view := f.model.View()
	if !strings.Contains(view, "Admin Feed [2 new]") {
		t.Errorf("header missing unread count:\n%s", view)
	}
	if f.model.analytics.PageVisits != 40 {
		t.Errorf("analytics not loaded: %+v", f.model.analytics)
	}
}

func TestOpenNotificationMarksRead(t *testing.T) {
	f := newFixture(t)
	id := f.ledger.List()[0].ID

	m := stepRun(t, f.model, feed.SelectedMsg{ID: id})
	if m.currentView != ViewDetail {
		t.Fatalf("view = %v, want detail", m.currentView)
	}
	if n, _ := f.ledger.Get(id); !n.Read {
		t.Error("opened notification should be marked read")
	}
	if f.ledger.UnreadCount() != 1 {
		t.Errorf("UnreadCount = %d, want 1", f.ledger.UnreadCount())
	}
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture(t)
	m := stepRun(t, f.model, feed.MarkAllReadMsg{})
	m = step(t, m, m.loadFeed()())
	if f.ledger.UnreadCount() != 0 || m.unreadCount != 0 {
		t.Errorf("unread = %d/%d, want 0", f.ledger.UnreadCount(), m.unreadCount)
	}
	if strings.Contains(m.View(), "new]") {
		t.Error("header should drop the unread badge")
	}
}

func TestAuthErrorShownUntilRecovery(t *testing.T) {
	f := newFixture(t)
	m := step(t, f.model, appsync.CycleResult{
		Resource:  model.ResourceContact,
		Err:       errors.New("401"),
		AuthError: true,
	})
	if !strings.Contains(m.keyHints(), "authentication failed") {
		t.Errorf("hints = %q", m.keyHints())
	}

	m = step(t, m, appsync.CycleResult{Resource: model.ResourcePortfolioItem})
	if m.keyHints() == "" || !strings.Contains(m.keyHints(), "authentication failed") {
		t.Error("another resource succeeding must not clear the contact auth error")
	}

	m = step(t, m, appsync.CycleResult{Resource: model.ResourceContact})
	if strings.Contains(m.keyHints(), "authentication failed") {
		t.Error("auth error should clear after a successful contact cycle")
	}
}

func TestCycleResultUpdatesAnalytics(t *testing.T) {
	f := newFixture(t)
	a := model.Analytics{Contacts: 9, ContactsChange: 12.5, ComputedAt: time.Now()}
	m := step(t, f.model, appsync.CycleResult{Resource: appsync.ResourceAnalytics, Analytics: &a})
	if m.analytics.Contacts != 9 {
		t.Errorf("analytics = %+v", m.analytics)
	}
}

func TestRefreshPublishesOnBus(t *testing.T) {
	f := newFixture(t)
	refreshed := 0
	f.bus.Subscribe(bridge.TopicRefresh, func(context.Context, bridge.Event) error {
		refreshed++
		return nil
	})

	stepRun(t, f.model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if refreshed != 1 {
		t.Errorf("refresh events = %d, want 1", refreshed)
	}
}

func TestCommands(t *testing.T) {
	f := newFixture(t)

	m := f.model
	cmd := m.executeCommand("reset-visits")
	m = step(t, m, cmd())
	if f.stats.resets != 1 || m.analytics.PageVisits != 0 {
		t.Errorf("resets = %d, visits = %d", f.stats.resets, m.analytics.PageVisits)
	}

	f.stats.resetErr = errors.New("upstream down")
	m = step(t, m, m.executeCommand("reset-visits")())
	if !strings.Contains(m.keyHints(), "reset visits failed") {
		t.Errorf("hints = %q", m.keyHints())
	}

	m.executeCommand("bogus")
	if !strings.Contains(m.statusMsg, "unknown command") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}

	m.executeCommand("filter system")
	if got := m.feedView.FilterSummary(); !strings.Contains(got, "system") {
		t.Errorf("FilterSummary = %q", got)
	}
}

func TestSyncStatus(t *testing.T) {
	f := newFixture(t)
	m := f.model

	if got := m.syncStatus(); got != "waiting" {
		t.Errorf("syncStatus = %q, want waiting", got)
	}

	f.sync.statuses = []appsync.SyncStatus{
		{Resource: model.ResourceContact, State: appsync.SyncError},
		{Resource: model.ResourcePortfolioItem, State: appsync.SyncIdle, LastSync: time.Now()},
	}
	if got := m.syncStatus(); !strings.Contains(got, "unreachable: contact") {
		t.Errorf("syncStatus = %q", got)
	}

	f.sync.statuses[0].State = appsync.SyncRunning
	if got := m.syncStatus(); got != "syncing (1)" {
		t.Errorf("syncStatus = %q", got)
	}
}

func TestHelpToggle(t *testing.T) {
	f := newFixture(t)
	m := step(t, f.model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if m.currentView != ViewHelp {
		t.Fatalf("view = %v, want help", m.currentView)
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if m.currentView != ViewFeed {
		t.Errorf("view = %v, want feed", m.currentView)
	}
}
