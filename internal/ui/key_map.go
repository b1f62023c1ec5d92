package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the remote.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	search  key.Binding
	enter   key.Binding
	next    key.Binding
	refresh key.Binding
	radio   key.Binding
	volUp   key.Binding
	volDown key.Binding
	toggle  key.Binding
	back    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "play next")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		radio:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "radio")),
		volUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		volDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.enter, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.search},
		{k.next, k.refresh, k.radio},
		{k.volUp, k.volDown, k.toggle},
		{k.back, k.quit},
	}
}
