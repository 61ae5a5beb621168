package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/keys"
	"github.com/nhle/adminfeed/internal/model"
	appsync "github.com/nhle/adminfeed/internal/sync"
	"github.com/nhle/adminfeed/internal/ui"
	"github.com/nhle/adminfeed/internal/ui/command"
	"github.com/nhle/adminfeed/internal/ui/detail"
	"github.com/nhle/adminfeed/internal/ui/feed"
	helpview "github.com/nhle/adminfeed/internal/ui/help"
	"github.com/nhle/adminfeed/internal/ui/stats"
)

// reloadInterval is how often the console re-reads the ledger. It also
// keeps relative timestamps current.
const reloadInterval = time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the ledger, poller and analytics.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	deps         Deps
	keys         *keys.KeyMap
	feedView     feed.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	analytics    model.Analytics
	unreadCount  int
	authErrors   map[model.ResourceType]string
	statusMsg    string
	ready        bool
}

// New creates a new root application model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()
	return Model{
		currentView: ViewFeed,
		deps:        deps,
		keys:        k,
		feedView:    feed.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		authErrors:  make(map[model.ResourceType]string),
	}
}

// Init loads the ledger, starts the reload tick and waits for the first
// poller result.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadFeed(),
		tickReload(),
		m.waitForResult(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.feedView.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		return m, nil

	case feedLoadedMsg:
		m.unreadCount = msg.unread
		m.analytics = msg.analytics
		cmd := m.feedView.SetNotifications(msg.notifications)
		return m, cmd

	case reloadTickMsg:
		return m, tea.Batch(m.loadFeed(), tickReload())

	case appsync.CycleResult:
		m.applyResult(msg)
		return m, tea.Batch(m.loadFeed(), m.waitForResult())

	case actionDoneMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.statusMsg = ""
		}
		if msg.analytics != nil {
			m.analytics = *msg.analytics
		}
		return m, m.loadFeed()

	case feed.SelectedMsg:
		n, ok := m.deps.Feed.Get(msg.ID)
		if !ok {
			return m, nil
		}
		m.detail.SetNotification(n)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		if !n.Read {
			return m, m.markRead(n.ID)
		}
		return m, nil

	case feed.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case feed.MarkAllReadMsg:
		return m, m.markAllRead()

	case detail.BackMsg:
		m.currentView = ViewFeed
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.currentView == ViewFeed {
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewCommand {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd

		case "esc":
			if m.currentView == ViewHelp || m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}

		case "r":
			if m.currentView == ViewFeed {
				return m, m.refresh()
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewFeed:
		m.feedView, cmd = m.feedView.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// applyResult records auth failures per resource and picks up fresh
// analytics.
func (m *Model) applyResult(r appsync.CycleResult) {
	switch {
	case r.AuthError:
		m.authErrors[r.Resource] = "authentication failed: run 'adminfeed setup' to update the API token"
	case r.Err == nil:
		delete(m.authErrors, r.Resource)
	}
	if r.Analytics != nil {
		m.analytics = *r.Analytics
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Admin Feed"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("Admin Feed [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	strip := stats.Render(m.analytics, m.layout.ContentWidth())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, strip, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.feedView.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined poll state.
func (m Model) syncStatus() string {
	if m.deps.Sync == nil {
		return "offline"
	}
	statuses := m.deps.Sync.Statuses()

	running := 0
	var failing []string
	var last time.Time
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failing = append(failing, string(s.Resource))
		}
		if s.LastSync.After(last) {
			last = s.LastSync
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if len(failing) > 0 {
		return "⚠ unreachable: " + strings.Join(failing, ", ")
	}
	if last.IsZero() {
		return "waiting"
	}
	return "synced " + last.Local().Format("15:04:05")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.currentView == ViewFeed {
		if msg := m.authErrorMessage(); msg != "" {
			return msg
		}
		if m.statusMsg != "" {
			return m.statusMsg
		}
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | j/k scroll"
	default:
		if summary := m.feedView.FilterSummary(); summary != "" {
			return summary + " | : clear"
		}
		return "q quit | ? help | r refresh | m read | M read all | u unread | 1/2/3 type"
	}
}

// authErrorMessage returns the first auth error in resource order.
func (m Model) authErrorMessage() string {
	if len(m.authErrors) == 0 {
		return ""
	}
	resources := make([]string, 0, len(m.authErrors))
	for rt := range m.authErrors {
		resources = append(resources, string(rt))
	}
	sort.Strings(resources)
	return m.authErrors[model.ResourceType(resources[0])]
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		return m.refresh()
	case "read-all":
		return m.markAllRead()
	case "unread":
		return m.feedView.ToggleUnreadOnly()
	case "filter contact", "contact":
		return m.feedView.ToggleType(model.NotificationContact)
	case "filter portfolio", "portfolio":
		return m.feedView.ToggleType(model.NotificationPortfolio)
	case "filter system", "system":
		return m.feedView.ToggleType(model.NotificationSystem)
	case "clear filters", "clear":
		return m.feedView.ClearFilters()
	case "reset-visits":
		return m.resetVisits()
	case "quit", "q":
		return tea.Quit
	default:
		m.statusMsg = fmt.Sprintf("unknown command %q", cmd)
		return nil
	}
}

// Deps are the services the console reads from and acts on.
type Deps struct {
	Feed      Feed
	Sync      Syncer
	Analytics Analytics
	Bus       *bridge.Bus
}
