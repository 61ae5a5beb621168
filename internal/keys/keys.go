package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the feed console.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Read state
	MarkRead    key.Binding
	MarkAllRead key.Binding
	UnreadOnly  key.Binding

	// Type filters
	FilterContact   key.Binding
	FilterPortfolio key.Binding
	FilterSystem    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		UnreadOnly: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unread only"),
		),
		FilterContact: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle contacts"),
		),
		FilterPortfolio: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle portfolio"),
		),
		FilterSystem: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle system"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.MarkRead,
		k.Refresh, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.MarkRead, k.MarkAllRead, k.UnreadOnly, k.Refresh},
		{k.FilterContact, k.FilterPortfolio, k.FilterSystem},
		{k.Command, k.Help},
	}
}
