package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	expand key.Binding
	toggle key.Binding
	all    key.Binding
	export key.Binding
	back   key.Binding
	retry  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		expand: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand")),
		toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		all:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		export: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.export, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.expand},
		{k.toggle, k.all, k.export},
		{k.back, k.retry, k.quit},
	}
}
