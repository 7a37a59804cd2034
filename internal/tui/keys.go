package tui

import "github.com/charmbracelet/bubbles/key"

// browserKeys translates terminal key names to the KeyboardEvent.key values
// the navigator binds
var browserKeys = map[string]string{
	"right":  "ArrowRight",
	"pgdown": "PageDown",
	" ":      " ",
	"left":   "ArrowLeft",
	"pgup":   "PageUp",
	"home":   "Home",
	"end":    "End",
}

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	First  key.Binding
	Last   key.Binding
	Run    key.Binding
	Reset  key.Binding
	Open   key.Binding
	Reveal key.Binding
	Copy   key.Binding
	Up     key.Binding
	Down   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "pgdown", " "),
			key.WithHelp("→/space", "next slide"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "pgup"),
			key.WithHelp("←", "previous slide"),
		),
		First: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first slide"),
		),
		Last: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "last slide"),
		),
		Run: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "run code"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset code"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open/close editor"),
		),
		Reveal: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "simplify/reset"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy code"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Run, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last},
		{k.Run, k.Reset, k.Open, k.Reveal, k.Copy},
		{k.Up, k.Down, k.Help, k.Quit},
	}
}
