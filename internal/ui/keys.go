package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the viewer's keyboard bindings.
type keyMap struct {
	Quit         key.Binding
	ToggleFollow key.Binding
	ToggleScope  key.Binding
	Reload       key.Binding

	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q", "esc"),
			key.WithHelp("q", "quit"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow"),
		),
		ToggleScope: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "session/all"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g/G", "top/bottom"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", " "),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
		),
	}
}

// help lists the bindings shown in the status bar.
func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Quit, k.ToggleFollow, k.ToggleScope, k.Reload, k.Top}
}
