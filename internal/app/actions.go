package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/model"
	appsync "github.com/nhle/adminfeed/internal/sync"
)

// Feed is the notification ledger as seen by the console.
type Feed interface {
	List() []model.Notification
	UnreadCount() int
	Get(id string) (model.Notification, bool)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// Syncer exposes poller progress.
type Syncer interface {
	Results() <-chan appsync.CycleResult
	Statuses() []appsync.SyncStatus
}

// Analytics serves the dashboard metrics.
type Analytics interface {
	Latest() model.Analytics
	ResetVisits(ctx context.Context) (model.Analytics, error)
}

// feedLoadedMsg carries a fresh read of the ledger and metrics.
type feedLoadedMsg struct {
	notifications []model.Notification
	unread        int
	analytics     model.Analytics
}

// reloadTickMsg triggers a periodic ledger reload.
type reloadTickMsg struct{}

// actionDoneMsg reports the outcome of a user action.
type actionDoneMsg struct {
	action    string
	err       error
	analytics *model.Analytics
}

func tickReload() tea.Cmd {
	return tea.Tick(reloadInterval, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

// loadFeed reads the current ledger and metrics.
func (m Model) loadFeed() tea.Cmd {
	f, a := m.deps.Feed, m.deps.Analytics
	return func() tea.Msg {
		msg := feedLoadedMsg{
			notifications: f.List(),
			unread:        f.UnreadCount(),
		}
		if a != nil {
			msg.analytics = a.Latest()
		}
		return msg
	}
}

// waitForResult blocks until the poller reports a cycle result.
func (m Model) waitForResult() tea.Cmd {
	if m.deps.Sync == nil {
		return nil
	}
	ch := m.deps.Sync.Results()
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return r
	}
}

func (m Model) markRead(id string) tea.Cmd {
	f := m.deps.Feed
	return func() tea.Msg {
		return actionDoneMsg{action: "mark read", err: f.MarkRead(context.Background(), id)}
	}
}

func (m Model) markAllRead() tea.Cmd {
	f := m.deps.Feed
	return func() tea.Msg {
		return actionDoneMsg{action: "mark all read", err: f.MarkAllRead(context.Background())}
	}
}

// refresh asks the poller, through the bus, to run both cycles now.
func (m Model) refresh() tea.Cmd {
	b := m.deps.Bus
	if b == nil {
		return nil
	}
	return func() tea.Msg {
		return actionDoneMsg{action: "refresh", err: bridge.Refresh(context.Background(), b)}
	}
}

func (m Model) resetVisits() tea.Cmd {
	a := m.deps.Analytics
	return func() tea.Msg {
		if a == nil {
			return nil
		}
		result, err := a.ResetVisits(context.Background())
		if err != nil {
			return actionDoneMsg{action: "reset visits", err: err}
		}
		return actionDoneMsg{action: "reset visits", analytics: &result}
	}
}
