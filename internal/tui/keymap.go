package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts. Letter bindings are only consulted
// outside the details step, where keystrokes belong to the field input.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Wizard actions
	Select  key.Binding
	Back    key.Binding
	Confirm key.Binding
	Edit    key.Binding
	Submit  key.Binding
	Retry   key.Binding
	Voice   key.Binding

	// History view
	ToggleView key.Binding
	Refresh    key.Binding

	// Application
	Help   key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
		Back: key.NewBinding(
			key.WithKeys("shift+tab", "ctrl+b"),
			key.WithHelp("shift+tab", "back"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter", "c"),
			key.WithHelp("enter/c", "looks good"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit details"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter/s", "submit"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "retry"),
		),
		Voice: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "voice on/off"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "versions/pending"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Voice, k.Back, k.Cancel}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Select, k.Back, k.Confirm, k.Edit, k.Submit},
		{k.Retry, k.Voice, k.Help, k.Cancel},
	}
}

// stepHelp is the help keymap for one wizard step.
type stepHelp struct {
	short []key.Binding
	full  [][]key.Binding
}

func (h stepHelp) ShortHelp() []key.Binding  { return h.short }
func (h stepHelp) FullHelp() [][]key.Binding { return h.full }

// historyHelp is the help keymap for the history view.
type historyHelp KeyMap

func (h historyHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.ToggleView, h.Refresh, h.Quit}
}

func (h historyHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.Up, h.Down, h.PageUp, h.PageDown},
		{h.ToggleView, h.Refresh, h.Quit},
	}
}
