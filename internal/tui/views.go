package tui

import (
	"fmt"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/engine"
)

const maxOutcomeLines = 8

// View renders the whole screen: header, filter bar, status, the
// results table or the tag panel, the staged summary, and the footer.
func (m App) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if m.focus == focusTags {
		b.WriteString(m.renderTagPanel(width))
	} else {
		b.WriteString(m.renderResults(width))
	}

	if staged := m.renderStaged(width); staged != "" {
		b.WriteString("\n")
		b.WriteString(staged)
		b.WriteString("\n")
	}

	if len(m.outcome) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderOutcome())
	}

	b.WriteString("\n")
	if m.help.ShowAll {
		b.WriteString(m.help.View(m.keys))
		b.WriteString("\n")
	}
	b.WriteString(RenderFooterBar(m.shortcuts(), m.activeCmd))

	return b.String()
}

// ── Header ──

func (m App) renderHeader(width int) string {
	title := "tagctl"
	if m.libraryName != "" {
		title += " · " + m.libraryName
	}
	right := ""
	if m.userName != "" {
		right = StyleHelp.Render(m.userName)
	}
	gap := width - xansi.StringWidth(title) - xansi.StringWidth(right) - 2
	if gap < 1 {
		gap = 1
	}
	return " " + StyleHeader.Render(title) + strings.Repeat(" ", gap) + right
}

// ── Filter bar ──

func (m App) renderFilterBar() string {
	label := func(idx int, text string) string {
		if m.focus == focusFilters && m.filterFocus == idx {
			return StyleHighlight.Render(text)
		}
		return StyleHelp.Render(text)
	}

	opt := sortOptions[m.sortIdx]
	flags := "sort " + opt.label
	if m.excludeCollections {
		flags += " • boxsets hidden"
	}

	line1 := fmt.Sprintf("  %s %s  %s %s  %s",
		label(filterTitle, "title"), m.filters[filterTitle].View(),
		label(filterTypes, "types"), m.filters[filterTypes].View(),
		StyleHelp.Render(flags))
	line2 := fmt.Sprintf("  %s %s  %s %s",
		label(filterInclude, "with"), m.filters[filterInclude].View(),
		label(filterExclude, "without"), m.filters[filterExclude].View())
	return line1 + "\n" + line2
}

// ── Status line ──

func (m App) renderStatus() string {
	q := &m.eng.Query

	var status string
	switch {
	case q.Loading():
		status = "searching…"
	case q.Err() != "":
		status = StyleError.Render("search failed: " + q.Err())
	case q.Empty():
		status = "no matches"
	case q.Searched():
		page := q.Offset()/q.PageSize() + 1
		pages := (q.Total() + q.PageSize() - 1) / q.PageSize()
		status = fmt.Sprintf("%d matches • page %d/%d", q.Total(), page, pages)
	}

	var busy []string
	if m.eng.Applying() {
		busy = append(busy, "applying…")
	}
	if m.exporting {
		busy = append(busy, "exporting…")
	}
	if m.eng.Tags.Loading() {
		busy = append(busy, "loading tags…")
	}
	if len(busy) > 0 {
		if status != "" {
			status += " • "
		}
		status += StyleHelp.Render(strings.Join(busy, " • "))
	}

	prefix := "  "
	if q.Loading() || len(busy) > 0 {
		prefix = m.spinner.View() + " "
	}

	line := prefix + status
	if m.notice != "" {
		style := StyleAdd
		if m.noticeErr {
			style = StyleError
		}
		line += "\n  " + style.Render(m.notice)
	}
	return line
}

// ── Results table ──

// listCapacity is how many rows fit between the chrome above and below
// the table.
func (m App) listCapacity() int {
	h := m.height - 12
	if m.help.ShowAll {
		h -= 4
	}
	if h < 5 {
		h = 5
	}
	return h
}

func (m App) renderResults(width int) string {
	items := m.eng.Query.Items()
	if len(items) == 0 {
		if m.eng.Query.Empty() {
			return "\n  " + StyleHelp.Render("Nothing matches these filters.") + "\n"
		}
		return "\n"
	}

	nameW, tagW := itemColumnWidths(width - 2)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.renderTableHeader(nameW, tagW))
	b.WriteString("\n")

	capacity := m.listCapacity()
	start := 0
	if m.cursor >= capacity {
		start = m.cursor - capacity + 1
	}
	end := start + capacity
	if end > len(items) {
		end = len(items)
	}

	if start > 0 {
		b.WriteString("  " + StyleHelp.Render(fmt.Sprintf("↑ %d above", start)) + "\n")
	}
	for i := start; i < end; i++ {
		it := items[i]
		cursorOn := m.focus != focusTags && i == m.cursor
		b.WriteString(m.renderItemRow(it, cursorOn, nameW, tagW))
		b.WriteString("\n")
		if id, open := m.eng.Editor.Open(); open && id == it.ID {
			b.WriteString(m.renderEditor())
			b.WriteString("\n")
		}
	}
	if end < len(items) {
		b.WriteString("  " + StyleHelp.Render(fmt.Sprintf("↓ %d below", len(items)-end)) + "\n")
	}
	return b.String()
}

func (m App) renderTableHeader(nameW, tagW int) string {
	check := "[ ]"
	switch m.eng.PageSelection() {
	case engine.PageAll:
		check = "[x]"
	case engine.PageSome:
		check = "[~]"
	}
	name := padOrTruncate(check+" Name", nameW)
	typ := padOrTruncate("Type", typeWidth)
	year := padOrTruncate("Year", yearWidth)
	tags := padOrTruncate("Tags", tagW)
	return "  " + StyleHeader.Render(name+" "+typ+" "+year+" "+tags)
}

func (m App) renderItemRow(it dto.Item, cursorOn bool, nameW, tagW int) string {
	mark := "  "
	if cursorOn {
		mark = StyleHighlight.Render("› ")
	}

	check := "[ ] "
	if m.eng.Selection.Has(it.ID) {
		check = StyleSelected.Render("[x]") + " "
	}
	name := it.Name
	if cursorOn {
		name = StyleHighlight.Render(name)
	} else {
		name = StyleNormal.Render(name)
	}
	nameCell := padOrTruncate(check+name, nameW)

	typeCell := StyleHelp.Render(padOrTruncate(it.Type, typeWidth))

	year := ""
	if it.ProductionYear > 0 {
		year = fmt.Sprintf("%d", it.ProductionYear)
	}
	yearCell := StyleHelp.Render(padOrTruncate(year, yearWidth))

	tagCell := StyleTag.Render(padOrTruncate(strings.Join(it.Tags, "; "), tagW))

	return mark + nameCell + " " + typeCell + " " + yearCell + " " + tagCell
}

// ── Inline editor ──

func (m App) renderEditor() string {
	var b strings.Builder
	b.WriteString("    " + m.editInput.View())
	if m.eng.Editor.Saving() {
		b.WriteString(" " + m.spinner.View() + StyleHelp.Render("saving"))
	}

	add, remove := m.eng.EditorDiff()
	if len(add)+len(remove) > 0 {
		var parts []string
		for _, t := range add {
			parts = append(parts, StyleAdd.Render("+"+t))
		}
		for _, t := range remove {
			parts = append(parts, StyleRemove.Render("-"+t))
		}
		b.WriteString("\n    " + strings.Join(parts, " "))
	}
	if e := m.eng.Editor.Err(); e != "" {
		b.WriteString("\n    " + StyleError.Render(e))
	}
	return b.String()
}

// ── Tag panel ──

func (m App) renderTagPanel(width int) string {
	p := &m.eng.Tags

	var b strings.Builder
	b.WriteString("\n  ")
	title := "Tags"
	if p.Source() != "" {
		title += " · " + p.Source()
	}
	b.WriteString(StyleHeader.Render(title))

	visible := p.Visible()
	if p.Search() != "" || m.tagMode == tagSearching {
		b.WriteString(fmt.Sprintf("  %s", StyleHelp.Render(fmt.Sprintf("%d of %d", len(visible), len(p.Catalog())))))
		b.WriteString("\n  " + m.tagSearch.View())
	} else {
		b.WriteString(fmt.Sprintf("  %s", StyleHelp.Render(fmt.Sprintf("%d tags", len(p.Catalog())))))
	}
	b.WriteString("\n")

	switch {
	case p.Loading():
		b.WriteString("  " + m.spinner.View() + " " + StyleHelp.Render("loading tags…") + "\n")
	case p.Err() != "":
		b.WriteString("  " + StyleError.Render(p.Err()) + "\n")
	case p.PendingMessage() != "":
		b.WriteString("  " + StyleHelp.Render(p.PendingMessage()+" (retrying)") + "\n")
	}

	capacity := m.listCapacity()
	start := 0
	if m.tagCursor >= capacity {
		start = m.tagCursor - capacity + 1
	}
	end := start + capacity
	if end > len(visible) {
		end = len(visible)
	}

	if start > 0 {
		b.WriteString("  " + StyleHelp.Render(fmt.Sprintf("↑ %d above", start)) + "\n")
	}
	for i := start; i < end; i++ {
		b.WriteString(m.renderTagRow(visible[i], i == m.tagCursor, width))
		b.WriteString("\n")
	}
	if end < len(visible) {
		b.WriteString("  " + StyleHelp.Render(fmt.Sprintf("↓ %d below", len(visible)-end)) + "\n")
	}

	if m.tagMode == tagAddEdit {
		b.WriteString("\n  " + StyleAdd.Render("add:") + " " + m.listEdit.View() + "\n")
	}
	if m.tagMode == tagRemoveEdit {
		b.WriteString("\n  " + StyleRemove.Render("remove:") + " " + m.listEdit.View() + "\n")
	}
	return b.String()
}

func (m App) renderTagRow(tag string, cursorOn bool, width int) string {
	mark := "  "
	if cursorOn {
		mark = StyleHighlight.Render("› ")
	}

	var state string
	switch m.eng.Tags.State(tag) {
	case engine.TagAdd:
		state = StyleAdd.Render("[+]")
	case engine.TagRemove:
		state = StyleRemove.Render("[-]")
	default:
		state = StyleHelp.Render("[ ]")
	}

	name := tag
	if cursorOn {
		name = StyleHighlight.Render(name)
	}
	return padOrTruncate(mark+state+" "+name, width-2)
}

// ── Staged summary ──

func (m App) renderStaged(width int) string {
	sel := m.eng.Selection.Count()
	add := m.eng.Tags.AddList()
	remove := m.eng.Tags.RemoveList()
	if sel == 0 && len(add) == 0 && len(remove) == 0 {
		return ""
	}

	parts := []string{StyleSelected.Render(m.eng.Selection.Summary())}
	if len(add) > 0 {
		parts = append(parts, StyleAdd.Render("+"+strings.Join(add, " +")))
	}
	if len(remove) > 0 {
		parts = append(parts, StyleRemove.Render("-"+strings.Join(remove, " -")))
	}
	return padOrTruncate("  "+strings.Join(parts, "  "), width)
}

// ── Apply breakdown ──

func (m App) renderOutcome() string {
	var b strings.Builder
	shown := m.outcome
	if len(shown) > maxOutcomeLines {
		shown = shown[:maxOutcomeLines]
	}
	for _, line := range shown {
		if line.failed {
			b.WriteString("  " + StyleError.Render("✗ "+line.text) + "\n")
		} else {
			b.WriteString("  " + StyleAdd.Render("✓") + " " + line.text + "\n")
		}
	}
	if extra := len(m.outcome) - len(shown); extra > 0 {
		b.WriteString("  " + StyleHelp.Render(fmt.Sprintf("… and %d more", extra)) + "\n")
	}
	return b.String()
}

// ── Footer ──

func (m App) shortcuts() []ShortcutEntry {
	switch m.focus {
	case focusFilters:
		return []ShortcutEntry{
			{Label: "tab next field"},
			{Label: "enter search"},
			{Label: "esc cancel"},
		}
	case focusEditor:
		return []ShortcutEntry{
			{Label: "enter save"},
			{Label: "esc cancel"},
		}
	case focusTags:
		switch m.tagMode {
		case tagSearching:
			return []ShortcutEntry{
				{Label: "enter keep filter"},
				{Label: "esc clear"},
			}
		case tagAddEdit, tagRemoveEdit:
			return []ShortcutEntry{
				{Label: "enter stage list"},
				{Label: "esc cancel"},
			}
		default:
			return []ShortcutEntry{
				{Label: "space stage"},
				{Label: "+ add list"},
				{Label: "- remove list"},
				{Label: "/ filter"},
				{Key: "r", Label: "r reload"},
				{Key: "y", Label: "y apply"},
				{Label: "esc back"},
			}
		}
	default:
		return []ShortcutEntry{
			{Label: "space select"},
			{Label: "a page"},
			{Label: "enter edit"},
			{Label: "/ filters"},
			{Label: "t tags"},
			{Key: "o", Label: "o sort"},
			{Key: "c", Label: "c boxsets"},
			{Key: "r", Label: "r tags"},
			{Key: "y", Label: "y apply"},
			{Key: "x", Label: "x export"},
			{Label: "? help"},
			{Label: "q quit"},
		}
	}
}
