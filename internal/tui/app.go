package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/engine"
	"github.com/blackwell-systems/tagctl/internal/gateway"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
)

const (
	// tagRetryInterval paces automatic retries while the server is still
	// gathering the tag catalog.
	tagRetryInterval = 4 * time.Second

	// noticeTTL is how long a transient status notice stays visible.
	noticeTTL = 5 * time.Second

	exportFileName = "tags_export.csv"
)

// Filter bar inputs, in tab order.
const (
	filterTitle = iota
	filterTypes
	filterInclude
	filterExclude
	filterCount
)

// focusRegion names the pane that receives keys.
type focusRegion int

const (
	focusResults focusRegion = iota
	focusFilters
	focusTags
	focusEditor
)

// tagMode is the tag panel's input mode while it has focus.
type tagMode int

const (
	tagBrowse tagMode = iota
	tagSearching
	tagAddEdit
	tagRemoveEdit
)

// sortOption pairs a sort field and order with its display label.
type sortOption struct {
	by    string
	order string
	label string
}

var sortOptions = []sortOption{
	{dto.SortByName, dto.SortAscending, "name ↑"},
	{dto.SortByName, dto.SortDescending, "name ↓"},
	{dto.SortByPremiere, dto.SortDescending, "released ↓"},
	{dto.SortByPremiere, dto.SortAscending, "released ↑"},
}

// outcomeLine is one row of the apply breakdown.
type outcomeLine struct {
	text   string
	failed bool
}

// App is the interactive search-and-retag screen. All durable state
// lives in the engine; the model holds only input widgets, cursors and
// transient display state, and projects the engine in View.
type App struct {
	eng *engine.Engine
	gw  *gateway.Client

	userName    string
	libraryName string

	keys appKeys
	help help.Model

	focus focusRegion

	filters     [filterCount]textinput.Model
	filterFocus int

	sortIdx            int
	excludeCollections bool

	cursor int

	tagMode   tagMode
	tagCursor int
	tagSearch textinput.Model
	listEdit  textinput.Model

	editInput textinput.Model

	spinner   spinner.Model
	exporting bool

	notice    string
	noticeErr bool
	noticeGen int

	outcome []outcomeLine

	activeCmd string

	width  int
	height int

	quitting bool
}

// NewApp builds the interactive session for one user and library. The
// types list seeds the type filter; everything else starts empty.
func NewApp(gw *gateway.Client, user dto.User, library dto.Library, types []string) App {
	eng := engine.New(user.ID, library.ID)
	eng.Query.Filters.Types = types
	eng.Query.Filters.SortBy = dto.DefaultSortBy
	eng.Query.Filters.SortOrder = dto.DefaultSortOrder

	var filters [filterCount]textinput.Model
	for i := range filters {
		filters[i] = textinput.New()
		filters[i].Prompt = ""
		filters[i].CharLimit = 200
		filters[i].Width = 20
	}
	filters[filterTitle].Placeholder = "title contains"
	filters[filterTypes].Placeholder = "types (Movie, Series)"
	filters[filterTypes].SetValue(strings.Join(types, ", "))
	filters[filterInclude].Placeholder = "with tags"
	filters[filterExclude].Placeholder = "without tags"

	tagSearch := textinput.New()
	tagSearch.Prompt = "/ "
	tagSearch.Placeholder = "filter tags"
	tagSearch.CharLimit = 100
	tagSearch.Width = 30

	listEdit := textinput.New()
	listEdit.Prompt = "│ "
	listEdit.Placeholder = "comma or semicolon separated"
	listEdit.CharLimit = 400
	listEdit.Width = 50

	editInput := textinput.New()
	editInput.Prompt = "│ "
	editInput.CharLimit = 400
	editInput.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorOrange)

	return App{
		eng:         eng,
		gw:          gw,
		userName:    user.Name,
		libraryName: library.Name,
		keys:        newAppKeys(),
		help:        help.New(),
		filters:     filters,
		tagSearch:   tagSearch,
		listEdit:    listEdit,
		editInput:   editInput,
		spinner:     s,
	}
}

// Init kicks off the first page and the tag catalog together.
func (m App) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.searchCmd(m.eng.BeginSearch(0, true)),
		m.tagsCmd(m.eng.BeginTagLoad()),
	)
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case searchResultMsg:
		if msg.err != nil {
			m.eng.FailSearch(msg.gen, msg.err)
			return m, nil
		}
		if m.eng.CompleteSearch(msg.gen, msg.resp) {
			m.clampCursor()
		}
		return m, nil

	case tagsResultMsg:
		if !m.eng.CompleteTagLoad(msg.gen, msg.result) {
			return m, nil
		}
		m.clampTagCursor()
		if msg.result.Err == nil && msg.result.Pending {
			gen := msg.gen
			return m, tea.Tick(tagRetryInterval, func(time.Time) tea.Msg {
				return tagRetryMsg{gen: gen}
			})
		}
		return m, nil

	case tagRetryMsg:
		if msg.gen != m.eng.Tags.Gen() || m.eng.Tags.PendingMessage() == "" {
			return m, nil
		}
		return m, m.tagsCmd(m.eng.BeginTagLoad())

	case applyResultMsg:
		return m.finishApply(msg)

	case editorSaveMsg:
		m.eng.CompleteEditorSave(msg.itemID, msg.update, msg.err)
		if _, open := m.eng.Editor.Open(); !open {
			if m.focus == focusEditor {
				m.focus = focusResults
			}
			m.editInput.Blur()
			return m, m.setNotice("tags saved", false)
		}
		return m, nil

	case exportResultMsg:
		m.exporting = false
		if msg.err != nil {
			return m, m.setNotice("export failed: "+msg.err.Error(), true)
		}
		return m, m.setNotice("exported to "+msg.path, false)

	case clearNoticeMsg:
		if msg.gen == m.noticeGen {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case ClearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil
	}

	return m, nil
}

func (m App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusFilters:
		return m.handleFilterKey(msg)
	case focusTags:
		return m.handleTagKey(msg)
	case focusEditor:
		return m.handleEditorKey(msg)
	default:
		return m.handleResultsKey(msg)
	}
}

func (m App) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.eng.Query.Items())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if !m.eng.Query.CanPrev() || m.eng.Query.Loading() {
			return m, nil
		}
		m.outcome = nil
		return m, m.searchCmd(m.eng.BeginSearch(m.eng.Query.PrevOffset(), false))

	case key.Matches(msg, m.keys.NextPage):
		if !m.eng.Query.CanNext() || m.eng.Query.Loading() {
			return m, nil
		}
		m.outcome = nil
		return m, m.searchCmd(m.eng.BeginSearch(m.eng.Query.NextOffset(), false))

	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.currentItem(); ok {
			m.eng.ToggleSelected(it.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.TogglePage):
		m.eng.TogglePage()
		return m, nil

	case key.Matches(msg, m.keys.ClearSel):
		m.eng.Selection.Clear()
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		return m.openEditor()

	case key.Matches(msg, m.keys.Filter):
		m.focus = focusFilters
		m.filterFocus = filterTitle
		return m, m.focusFilterInput()

	case key.Matches(msg, m.keys.TagPane):
		m.focus = focusTags
		m.tagMode = tagBrowse
		m.clampTagCursor()
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIdx = (m.sortIdx + 1) % len(sortOptions)
		m.outcome = nil
		return m, m.flash("o", m.dispatchSearch(0, false))

	case key.Matches(msg, m.keys.Collection):
		m.excludeCollections = !m.excludeCollections
		m.outcome = nil
		return m, m.flash("c", m.dispatchSearch(0, false))

	case key.Matches(msg, m.keys.ReloadTags):
		return m, m.flash("r", m.tagsCmd(m.eng.BeginTagLoad()))

	case key.Matches(msg, m.keys.Apply):
		return m.startApply()

	case key.Matches(msg, m.keys.Export):
		return m.startExport()
	}

	return m, nil
}

func (m App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusResults
		m.blurFilters()
		return m, nil

	case "enter":
		m.focus = focusResults
		m.blurFilters()
		m.outcome = nil
		return m, m.dispatchSearch(0, false)

	case "tab", "down":
		m.filterFocus = (m.filterFocus + 1) % filterCount
		return m, m.focusFilterInput()

	case "shift+tab", "up":
		m.filterFocus = (m.filterFocus + filterCount - 1) % filterCount
		return m, m.focusFilterInput()

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filters[m.filterFocus], cmd = m.filters[m.filterFocus].Update(msg)
	return m, cmd
}

func (m App) handleTagKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.tagMode {
	case tagSearching:
		switch msg.String() {
		case "enter":
			m.tagMode = tagBrowse
			m.tagSearch.Blur()
			return m, nil
		case "esc":
			m.tagMode = tagBrowse
			m.tagSearch.SetValue("")
			m.tagSearch.Blur()
			m.eng.SetTagSearch("")
			m.clampTagCursor()
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.tagSearch, cmd = m.tagSearch.Update(msg)
		m.eng.SetTagSearch(m.tagSearch.Value())
		m.clampTagCursor()
		return m, cmd

	case tagAddEdit, tagRemoveEdit:
		switch msg.String() {
		case "enter":
			if m.tagMode == tagAddEdit {
				m.eng.SetAddList(m.listEdit.Value())
			} else {
				m.eng.SetRemoveList(m.listEdit.Value())
			}
			m.tagMode = tagBrowse
			m.listEdit.Blur()
			return m, nil
		case "esc":
			m.tagMode = tagBrowse
			m.listEdit.Blur()
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.listEdit, cmd = m.listEdit.Update(msg)
		return m, cmd
	}

	// ── Browse mode ──
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.TagPane):
		m.focus = focusResults
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.tagCursor > 0 {
			m.tagCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.tagCursor < len(m.eng.Tags.Visible())-1 {
			m.tagCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Submit):
		if visible := m.eng.Tags.Visible(); m.tagCursor < len(visible) {
			m.eng.ToggleTag(visible[m.tagCursor])
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.tagMode = tagSearching
		m.tagSearch.SetValue(m.eng.Tags.Search())
		m.tagSearch.CursorEnd()
		return m, m.tagSearch.Focus()

	case key.Matches(msg, m.keys.ReloadTags):
		return m, m.flash("r", m.tagsCmd(m.eng.BeginTagLoad()))

	case key.Matches(msg, m.keys.Apply):
		return m.startApply()
	}

	// Free-text staging: new tags do not have to exist in the catalog.
	switch msg.String() {
	case "+":
		m.tagMode = tagAddEdit
		m.listEdit.Placeholder = "tags to add"
		m.listEdit.SetValue(tagutil.Join(m.eng.Tags.AddList()))
		m.listEdit.CursorEnd()
		return m, m.listEdit.Focus()
	case "-":
		m.tagMode = tagRemoveEdit
		m.listEdit.Placeholder = "tags to remove"
		m.listEdit.SetValue(tagutil.Join(m.eng.Tags.RemoveList()))
		m.listEdit.CursorEnd()
		return m, m.listEdit.Focus()
	}

	return m, nil
}

func (m App) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.eng.CloseEditor()
		m.focus = focusResults
		m.editInput.Blur()
		return m, nil

	case "enter":
		if m.eng.Editor.Saving() {
			return m, nil
		}
		m.eng.SetDraft(m.editInput.Value())
		submit, ok := m.eng.SubmitEditor()
		if !ok {
			return m, nil
		}
		if submit.Local {
			m.focus = focusResults
			m.editInput.Blur()
			return m, nil
		}
		return m, m.editorSaveCmd(submit)

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	if m.eng.Editor.Saving() {
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	m.eng.SetDraft(m.editInput.Value())
	return m, cmd
}

func (m App) openEditor() (tea.Model, tea.Cmd) {
	it, ok := m.currentItem()
	if !ok {
		return m, nil
	}
	if !m.eng.OpenEditor(it.ID) {
		m.focus = focusResults
		m.editInput.Blur()
		return m, nil
	}
	m.focus = focusEditor
	m.editInput.SetValue(m.eng.Editor.Draft())
	m.editInput.CursorEnd()
	return m, m.editInput.Focus()
}

func (m App) startApply() (tea.Model, tea.Cmd) {
	req, err := m.eng.BeginApply()
	if err != nil {
		return m, m.setNotice(err.Error(), true)
	}
	m.outcome = nil
	return m, m.flash("y", m.applyCmd(req))
}

func (m App) finishApply(msg applyResultMsg) (tea.Model, tea.Cmd) {
	outcome := m.eng.CompleteApply(msg.resp, msg.err)
	if outcome.Err != nil {
		return m, m.setNotice(outcome.Summary(), true)
	}

	m.outcome = make([]outcomeLine, 0, len(outcome.Failed)+len(outcome.Succeeded))
	for _, u := range outcome.Failed {
		m.outcome = append(m.outcome, outcomeLine{text: m.eng.Describe(u), failed: true})
	}
	for _, u := range outcome.Succeeded {
		m.outcome = append(m.outcome, outcomeLine{text: m.eng.Describe(u)})
	}

	cmds := []tea.Cmd{m.setNotice(outcome.Summary(), len(outcome.Failed) > 0)}
	if len(outcome.Failed) == 0 {
		// Re-run the committed query and reload the catalog so the
		// screen reflects server truth, new tags included.
		cmds = append(cmds,
			m.searchCmd(m.eng.BeginSearch(0, true)),
			m.tagsCmd(m.eng.BeginTagLoad()),
		)
	}
	return m, tea.Batch(cmds...)
}

func (m App) startExport() (tea.Model, tea.Cmd) {
	if m.exporting {
		return m, nil
	}
	m.exporting = true
	req := m.eng.ExportRequest()
	gw := m.gw
	cmd := func() tea.Msg {
		data, err := gw.Export(req)
		if err != nil {
			return exportResultMsg{err: err}
		}
		if err := os.WriteFile(exportFileName, data, 0o644); err != nil {
			return exportResultMsg{err: err}
		}
		return exportResultMsg{path: exportFileName}
	}
	return m, m.flash("x", cmd)
}

// ── Commands ──

func (m App) searchCmd(intent engine.SearchIntent) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		resp, err := gw.Search(intent.Req)
		return searchResultMsg{gen: intent.Gen, resp: resp, err: err}
	}
}

func (m App) tagsCmd(intent engine.TagLoadIntent) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		res, err := gw.Tags(intent.Req.UserID, intent.Req.LibraryID, intent.Req.Types)
		switch {
		case err != nil:
			return tagsResultMsg{gen: intent.Gen, result: engine.TagLoadResult{Err: err}}
		case res.Pending:
			return tagsResultMsg{gen: intent.Gen, result: engine.TagLoadResult{Pending: true, Message: res.Message}}
		default:
			return tagsResultMsg{gen: intent.Gen, result: engine.TagLoadResult{Tags: res.Tags, Source: res.Source}}
		}
	}
}

func (m App) applyCmd(req dto.ApplyRequest) tea.Cmd {
	gw := m.gw
	return func() tea.Msg {
		resp, err := gw.Apply(req)
		return applyResultMsg{resp: resp, err: err}
	}
}

func (m App) editorSaveCmd(submit engine.EditorSubmit) tea.Cmd {
	gw := m.gw
	req := dto.ApplyRequest{
		UserID:  m.eng.UserID,
		Changes: []dto.TagChange{{ID: submit.ItemID, Add: submit.Add, Remove: submit.Remove}},
	}
	return func() tea.Msg {
		resp, err := gw.Apply(req)
		if err != nil {
			return editorSaveMsg{itemID: submit.ItemID, err: err}
		}
		for _, u := range resp.Updated {
			if u.ID == submit.ItemID {
				return editorSaveMsg{itemID: submit.ItemID, update: u}
			}
		}
		return editorSaveMsg{itemID: submit.ItemID, err: fmt.Errorf("no update returned for item")}
	}
}

// ── Helpers ──

// dispatchSearch commits the filter form into the engine and starts a
// search at the given offset. Page turns bypass this so uncommitted
// form edits stay uncommitted.
func (m *App) dispatchSearch(offset int, reset bool) tea.Cmd {
	opt := sortOptions[m.sortIdx]
	m.eng.Query.Filters = engine.Filters{
		TitleQuery:         m.filters[filterTitle].Value(),
		Types:              tagutil.Split(m.filters[filterTypes].Value()),
		IncludeTags:        m.filters[filterInclude].Value(),
		ExcludeTags:        m.filters[filterExclude].Value(),
		ExcludeCollections: m.excludeCollections,
		SortBy:             opt.by,
		SortOrder:          opt.order,
	}
	intent := m.eng.BeginSearch(offset, reset)
	m.clampCursor()
	return m.searchCmd(intent)
}

// flash marks a footer shortcut active for the highlight tick.
func (m *App) flash(label string, cmd tea.Cmd) tea.Cmd {
	m.activeCmd = label
	return tea.Batch(cmd, HighlightCmd())
}

func (m *App) setNotice(text string, isErr bool) tea.Cmd {
	m.notice = text
	m.noticeErr = isErr
	m.noticeGen++
	gen := m.noticeGen
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{gen: gen}
	})
}

func (m App) currentItem() (dto.Item, bool) {
	items := m.eng.Query.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return dto.Item{}, false
	}
	return items[m.cursor], true
}

func (m *App) clampCursor() {
	if n := len(m.eng.Query.Items()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *App) clampTagCursor() {
	if n := len(m.eng.Tags.Visible()); m.tagCursor >= n {
		m.tagCursor = n - 1
	}
	if m.tagCursor < 0 {
		m.tagCursor = 0
	}
}

func (m *App) focusFilterInput() tea.Cmd {
	for i := range m.filters {
		if i != m.filterFocus {
			m.filters[i].Blur()
		}
	}
	return m.filters[m.filterFocus].Focus()
}

func (m *App) blurFilters() {
	for i := range m.filters {
		m.filters[i].Blur()
	}
}

// Run starts the interactive session and blocks until the user quits.
func Run(gw *gateway.Client, user dto.User, library dto.Library, types []string) error {
	p := tea.NewProgram(NewApp(gw, user, library, types), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
