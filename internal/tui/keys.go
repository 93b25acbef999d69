package tui

import "github.com/charmbracelet/bubbles/key"

// PickerKeys are the bindings for the user and library pickers.
type PickerKeys struct {
	Quit   key.Binding
	Select key.Binding
}

// NewPickerKeys creates key bindings for picker components.
func NewPickerKeys() PickerKeys {
	return PickerKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
	}
}

// ShortHelp returns a slice of key bindings for the short help view.
func (k PickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Quit}
}

// appKeys are the bindings for the search screen. Most apply only while
// the results pane has focus; text inputs swallow printable keys first.
type appKeys struct {
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Toggle     key.Binding
	TogglePage key.Binding
	ClearSel   key.Binding
	Edit       key.Binding
	Filter     key.Binding
	TagPane    key.Binding
	CycleSort  key.Binding
	Collection key.Binding
	ReloadTags key.Binding
	Apply      key.Binding
	Export     key.Binding
	Submit     key.Binding
	Back       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newAppKeys() appKeys {
	return appKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "next page"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		TogglePage: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select page"),
		),
		ClearSel: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "clear selection"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit tags"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filters"),
		),
		TagPane: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tag panel"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort order"),
		),
		Collection: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collections"),
		),
		ReloadTags: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload tags"),
		),
		Apply: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "apply changes"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export csv"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
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
}

// ShortHelp implements help.KeyMap.
func (k appKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Edit, k.TagPane, k.Apply, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k appKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Toggle, k.TogglePage, k.ClearSel, k.Edit},
		{k.Filter, k.TagPane, k.CycleSort, k.Collection},
		{k.ReloadTags, k.Apply, k.Export, k.Quit},
	}
}
