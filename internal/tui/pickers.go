package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// UserOption represents a user account choice.
type UserOption struct {
	ID   string
	Name string
}

// FilterValue implements list.Item
func (u UserOption) FilterValue() string {
	return u.Name + " " + u.ID
}

// LibraryOption represents a library (virtual folder) choice.
type LibraryOption struct {
	ID             string
	Name           string
	CollectionType string
}

// FilterValue implements list.Item
func (l LibraryOption) FilterValue() string {
	return l.Name + " " + l.CollectionType
}

// optionDelegate renders one-line picker entries: a name plus a dim
// annotation, cursor-highlighted.
type optionDelegate struct{}

func (d optionDelegate) Height() int  { return 1 }
func (d optionDelegate) Spacing() int { return 0 }
func (d optionDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

func (d optionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	var display string
	switch it := item.(type) {
	case UserOption:
		display = fmt.Sprintf("%s %s", it.Name, StyleHelp.Render("("+it.ID+")"))
	case LibraryOption:
		annotation := it.CollectionType
		if annotation == "" {
			annotation = it.ID
		}
		display = fmt.Sprintf("%s %s", it.Name, StyleHelp.Render("("+annotation+")"))
	default:
		return
	}

	if index == m.Index() {
		_, _ = fmt.Fprint(w, StyleHighlight.Render("› "+display))
	} else {
		_, _ = fmt.Fprint(w, "  "+StyleNormal.Render(display))
	}
}

type pickerModel struct {
	list     list.Model
	keys     PickerKeys
	quitting bool
	canceled bool
	selected list.Item
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't handle keys when filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.canceled = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Select):
			if item := m.list.SelectedItem(); item != nil {
				m.selected = item
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		h, v := StyleBorder.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	return StyleBorder.Render(m.list.View())
}

// runPicker runs one selection list to completion.
func runPicker(title string, items []list.Item) (list.Item, error) {
	l := list.New(items, optionDelegate{}, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = StyleHeader
	l.Styles.HelpStyle = StyleHelp

	m := pickerModel{list: l, keys: NewPickerKeys()}

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}

	fm, ok := finalModel.(pickerModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if fm.canceled || fm.selected == nil {
		return nil, fmt.Errorf("canceled by user")
	}
	return fm.selected, nil
}

// RunUserPicker launches an interactive user selector.
// A single account is returned without showing the picker.
func RunUserPicker(users []dto.User) (dto.User, error) {
	if len(users) == 0 {
		return dto.User{}, fmt.Errorf("no users on this server")
	}
	if len(users) == 1 {
		return users[0], nil
	}

	items := make([]list.Item, len(users))
	for i, u := range users {
		items[i] = UserOption{ID: u.ID, Name: u.Name}
	}

	picked, err := runPicker("Select User", items)
	if err != nil {
		return dto.User{}, err
	}
	opt := picked.(UserOption)
	return dto.User{ID: opt.ID, Name: opt.Name}, nil
}

// RunLibraryPicker launches an interactive library selector.
// A single library is returned without showing the picker.
func RunLibraryPicker(libraries []dto.Library) (dto.Library, error) {
	if len(libraries) == 0 {
		return dto.Library{}, fmt.Errorf("no libraries on this server")
	}
	if len(libraries) == 1 {
		return libraries[0], nil
	}

	items := make([]list.Item, len(libraries))
	for i, l := range libraries {
		items[i] = LibraryOption{ID: l.ID, Name: l.Name, CollectionType: l.CollectionType}
	}

	picked, err := runPicker("Select Library", items)
	if err != nil {
		return dto.Library{}, err
	}
	opt := picked.(LibraryOption)
	return dto.Library{ID: opt.ID, Name: opt.Name, CollectionType: opt.CollectionType}, nil
}
