package model

import "charm.land/bubbles/v2/key"

type KeyMap struct {
	List struct {
		Up       key.Binding
		Down     key.Binding
		PageUp   key.Binding
		PageDown key.Binding
		Home     key.Binding
		End      key.Binding
		Open     key.Binding
		Filter   key.Binding
		Copy     key.Binding
		Browser  key.Binding
		Edit     key.Binding
		Refresh  key.Binding
	}

	Pages struct {
		Up        key.Binding
		Down      key.Binding
		PageUp    key.Binding
		PageDown  key.Binding
		NextPage  key.Binding
		PrevPage  key.Binding
		Home      key.Binding
		End       key.Binding
		ZoomIn    key.Binding
		ZoomOut   key.Binding
		ZoomReset key.Binding
	}

	Filter struct {
		Accept key.Binding
		Cancel key.Binding
	}

	// Global key maps
	Back key.Binding
	Quit key.Binding
	Help key.Binding
}

func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
	}

	km.List.Up = key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	)
	km.List.Down = key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	)
	km.List.PageUp = key.NewBinding(
		key.WithKeys("pgup", "b"),
		key.WithHelp("pgup", "page up"),
	)
	km.List.PageDown = key.NewBinding(
		key.WithKeys("pgdown", "f", "space"),
		key.WithHelp("pgdn", "page down"),
	)
	km.List.Home = key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "first"),
	)
	km.List.End = key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "last"),
	)
	km.List.Open = key.NewBinding(
		key.WithKeys("enter", "l"),
		key.WithHelp("enter", "open"),
	)
	km.List.Filter = key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	)
	km.List.Copy = key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	)
	km.List.Browser = key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open externally"),
	)
	km.List.Edit = key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	)
	km.List.Refresh = key.NewBinding(
		key.WithKeys("r", "ctrl+r"),
		key.WithHelp("r", "rescan"),
	)

	km.Pages.Up = key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	)
	km.Pages.Down = key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	)
	km.Pages.PageUp = key.NewBinding(
		key.WithKeys("pgup", "b"),
		key.WithHelp("pgup", "screen up"),
	)
	km.Pages.PageDown = key.NewBinding(
		key.WithKeys("pgdown", "f", "space"),
		key.WithHelp("pgdn", "screen down"),
	)
	km.Pages.NextPage = key.NewBinding(
		key.WithKeys("n", "right", "l"),
		key.WithHelp("n", "next page"),
	)
	km.Pages.PrevPage = key.NewBinding(
		key.WithKeys("p", "left", "h"),
		key.WithHelp("p", "prev page"),
	)
	km.Pages.Home = key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "first page"),
	)
	km.Pages.End = key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "last page"),
	)
	km.Pages.ZoomIn = key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	)
	km.Pages.ZoomOut = key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	)
	km.Pages.ZoomReset = key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "reset zoom"),
	)

	km.Filter.Accept = key.NewBinding(
		key.WithKeys("enter", "down", "up"),
		key.WithHelp("enter", "done"),
	)
	km.Filter.Cancel = key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	)

	return km
}
