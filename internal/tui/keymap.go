package tui

import "github.com/charmbracelet/bubbles/key"

type keymap struct {
	quit, toggle, stop,
	next, prev,
	up, down,
	showHelp key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		toggle: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play/stop"),
		),
		stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop"),
		),
		next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous display"),
		),
		down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next display"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k *keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.up, k.down, k.quit, k.showHelp}
}

// FullHelp implements help.KeyMap.
func (k *keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.stop},
		{k.next, k.prev},
		{k.up, k.down},
		{k.quit, k.showHelp},
	}
}
