package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up               key.Binding
	Down             key.Binding
	Toggle           key.Binding
	SelectAll        key.Binding
	Clear            key.Binding
	Highlight        key.Binding
	Merge            key.Binding
	Delete           key.Binding
	DeleteUnselected key.Binding
	Undo             key.Binding
	Reset            key.Binding
	Save             key.Binding
	Focus            key.Binding
	Restore          key.Binding
	Debug            key.Binding
	Help             key.Binding
	Quit             key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Merge, k.Delete, k.Undo, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.SelectAll, k.Clear, k.Highlight},
		{k.Merge, k.Delete, k.DeleteUnselected, k.Undo, k.Reset},
		{k.Focus, k.Restore, k.Save, k.Debug, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "select"),
	),
	SelectAll: key.NewBinding(
		key.WithKeys("a", "ctrl+a"),
		key.WithHelp("a", "select all/none"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Highlight: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "highlight"),
	),
	Merge: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "merge"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x", "backspace"),
		key.WithHelp("x", "delete"),
	),
	DeleteUnselected: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "keep selected"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u", "ctrl+z"),
		key.WithHelp("u", "undo"),
	),
	Reset: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset"),
	),
	Save: key.NewBinding(
		key.WithKeys("s", "ctrl+s"),
		key.WithHelp("s", "save"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "clusters/history"),
	),
	Restore: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "restore entry"),
	),
	Debug: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "debug"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
