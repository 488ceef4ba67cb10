package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Submit key.Binding
	PgUp   key.Binding
	PgDown key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(waiting bool) string {
	if waiting {
		return keyStyle.Render("enter") + keyDescStyle.Render(":send") + "  " +
			keyStyle.Render("PgUp/Dn") + keyDescStyle.Render(":scroll") + "  " +
			keyStyle.Render("ctrl+c") + keyDescStyle.Render(":quit")
	}
	return keyStyle.Render("PgUp/Dn") + keyDescStyle.Render(":scroll") + "  " +
		keyStyle.Render("ctrl+c") + keyDescStyle.Render(":quit")
}
