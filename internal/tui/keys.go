package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Tab       key.Binding
	Enter     key.Binding
	Add       key.Binding
	Edit      key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	Done      key.Binding
	Delete    key.Binding
	Project   key.Binding
	Archive   key.Binding
	Filter    key.Binding
	Help      key.Binding
	Quit      key.Binding
	Escape    key.Binding
	Confirm   key.Binding
	Refresh   key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
	MoveLeft:  key.NewBinding(key.WithKeys("H", "["), key.WithHelp("H/[", "move task left")),
	MoveRight: key.NewBinding(key.WithKeys("L", "]"), key.WithHelp("L/]", "move task right")),
	Done:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Project:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
	Archive:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "archive project")),
	Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Confirm:   key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	Refresh:   key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "refresh")),
}
