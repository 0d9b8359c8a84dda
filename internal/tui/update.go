package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"worldkit/internal/autosave"
	"worldkit/internal/config"
	"worldkit/internal/element"
	"worldkit/internal/relation"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case worldLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.world = msg.world
		m.counts = msg.counts
		m.errMsg = ""
		return m, nil

	case elementsLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		return m.setElements(msg)

	case saveStatusMsg:
		return m.handleSaveStatus(autosave.Status(msg))

	case filterTickMsg:
		if m.mode != modePicker || msg.seq != m.pickerSeq {
			return m, nil
		}
		return m, m.searchCandidates(msg.seq, m.pickerInput.Value())

	case candidatesMsg:
		if m.mode != modePicker || msg.seq != m.pickerSeq {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.candidates = msg.candidates
		if m.pickerIdx >= len(m.candidates) {
			m.pickerIdx = 0
		}
		return m, nil

	case tagsResolvedMsg:
		if m.el == nil || m.el.ID != msg.id {
			return m, nil
		}
		m.tags = msg.tags
		return m, nil

	case typingLoadedMsg:
		if msg.err == nil {
			m.typing = msg.vocab
			m.typingType = msg.typ
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quit()
		return m, tea.Quit
	}

	switch m.mode {
	case modeCategories:
		return m.handleCategoriesKey(msg)
	case modeList:
		return m.handleListKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	case modePicker:
		return m.handlePickerKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m *Model) handleCategoriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	types := element.Types()
	switch msg.String() {
	case "q", "esc":
		m.quit()
		return m, tea.Quit
	case "up", "k":
		if m.catIndex > 0 {
			m.catIndex--
		}
	case "down", "j":
		if m.catIndex < len(types)-1 {
			m.catIndex++
		}
	case "t":
		m.toggleTheme()
	case "r":
		return m, m.loadWorld()
	case "enter":
		m.curType = types[m.catIndex]
		return m, m.loadElements(m.curType)
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the list's fuzzy filter is active, it owns the keyboard.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.mode = modeCategories
		return m, nil
	case "enter":
		item, ok := m.list.SelectedItem().(elementItem)
		if !ok {
			return m, nil
		}
		el := item.el.Clone()
		m.mode = modeDetail
		return m, m.openDetail(el)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "esc", "q":
		m.leaveDetail()
		m.mode = modeList
		return m, m.loadElements(m.curType)
	case "up", "k":
		if m.fieldIdx > 0 {
			m.fieldIdx--
		}
	case "down", "j":
		if m.fieldIdx < len(m.fields)-1 {
			m.fieldIdx++
		}
	case "enter":
		row := m.fields[m.fieldIdx]
		if row.desc.IsLink() {
			return m.openPicker(m.fieldIdx)
		}
		m.editing = true
		m.input.SetValue(displayValue(row.value))
		m.input.CursorEnd()
		cmds := []tea.Cmd{m.input.Focus()}
		if (row.name == "supertype" || row.name == "subtype") && m.typingType != m.curType {
			cmds = append(cmds, m.loadTyping(m.curType))
		}
		return m, tea.Batch(cmds...)
	case "x":
		return m.removeLink()
	case "u":
		m.revertField()
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.editing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	row := &m.fields[m.fieldIdx]
	value := coerce(row.desc, m.input.Value())
	row.value = value
	m.el.SetField(row.name, value)
	m.session.SetField(row.name, value)
	return m, cmd
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeDetail
		return m, nil
	case "up":
		if m.pickerIdx > 0 {
			m.pickerIdx--
		}
		return m, nil
	case "down":
		if m.pickerIdx < len(m.candidates)-1 {
			m.pickerIdx++
		}
		return m, nil
	case "enter":
		if m.pickerIdx >= len(m.candidates) {
			return m, nil
		}
		return m.selectCandidate(m.candidates[m.pickerIdx])
	}

	var cmd tea.Cmd
	m.pickerInput, cmd = m.pickerInput.Update(msg)
	m.pickerSeq++
	seq := m.pickerSeq
	return m, tea.Batch(cmd, tea.Tick(FilterDelay, func(time.Time) tea.Msg {
		return filterTickMsg{seq: seq}
	}))
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.applyCandidate(m.pending)
		m.warning = nil
		m.mode = modeDetail
		return m, m.resolveTags()
	case "n", "esc":
		m.warning = nil
		m.mode = modePicker
	}
	return m, nil
}

func (m *Model) setElements(msg elementsLoadedMsg) (tea.Model, tea.Cmd) {
	m.counts[msg.typ] = len(msg.elements)
	items := make([]list.Item, len(msg.elements))
	for i, el := range msg.elements {
		items[i] = elementItem{el: el}
	}
	cmd := m.list.SetItems(items)
	m.list.Title = element.Capitalize(msg.typ)
	m.list.ResetSelected()
	if m.mode == modeCategories {
		m.mode = modeList
	}
	return m, cmd
}

func (m *Model) handleSaveStatus(st autosave.Status) (tea.Model, tea.Cmd) {
	if m.statusCh == nil {
		return m, nil
	}
	m.status = st
	if st.State == autosave.StateIdle && len(st.Dirty) == 0 && st.Err == nil {
		m.saved = true
	}
	if st.Err != nil {
		m.errMsg = st.Err.Error()
	} else {
		m.errMsg = ""
	}
	return m, waitForStatus(m.statusCh)
}

// openPicker readies the candidate picker for one link field. The first
// candidate page loads immediately; keystrokes refilter after FilterDelay.
func (m *Model) openPicker(fieldIdx int) (tea.Model, tea.Cmd) {
	row := m.fields[fieldIdx]
	m.pickerField = fieldIdx
	m.picker = relation.NewPicker(m.client, row.desc.Target)
	m.pickerInput.SetValue("")
	m.pickerIdx = 0
	m.candidates = nil
	m.pickerSeq++
	m.mode = modePicker
	return m, tea.Batch(m.pickerInput.Focus(), m.searchCandidates(m.pickerSeq, ""))
}

func (m *Model) searchCandidates(seq int, query string) tea.Cmd {
	picker := m.picker
	return func() tea.Msg {
		candidates, err := picker.Search(context.Background(), query)
		return candidatesMsg{seq: seq, candidates: candidates, err: err}
	}
}

// selectCandidate applies the picked target, or raises the cross-world
// confirm overlay when the target lives in a different world.
func (m *Model) selectCandidate(cand relation.Candidate) (tea.Model, tea.Cmd) {
	target := &element.Element{ID: cand.ID, Name: cand.Name, World: cand.World}
	if w := relation.CheckWorlds(m.el, target); w != nil {
		m.warning = w
		m.pending = cand
		m.mode = modeConfirm
		return m, nil
	}
	m.applyCandidate(cand)
	m.mode = modeDetail
	return m, m.resolveTags()
}

func (m *Model) applyCandidate(cand relation.Candidate) {
	row := &m.fields[m.pickerField]
	switch row.desc.Kind {
	case element.KindLinkList:
		values := relation.Add(element.RefIDs(row.value), cand.ID)
		row.value = values
		m.el.SetField(row.name, values)
		m.session.SetField(row.name, values)
	case element.KindLink:
		row.value = cand.ID
		m.el.SetField(row.name, cand.ID)
		m.session.SetField(row.name, cand.ID)
	}
}

// removeLink clears a single-valued link, or drops the last value of a
// multi-valued one.
func (m *Model) removeLink() (tea.Model, tea.Cmd) {
	row := &m.fields[m.fieldIdx]
	switch row.desc.Kind {
	case element.KindLink:
		if element.RefID(row.value) == "" {
			return m, nil
		}
		row.value = ""
		m.el.SetField(row.name, "")
		m.session.SetField(row.name, "")
	case element.KindLinkList:
		values := element.RefIDs(row.value)
		if len(values) == 0 {
			return m, nil
		}
		values = relation.Remove(values, values[len(values)-1])
		row.value = values
		m.el.SetField(row.name, values)
		m.session.SetField(row.name, values)
	default:
		return m, nil
	}
	return m, m.resolveTags()
}

func (m *Model) revertField() {
	row := &m.fields[m.fieldIdx]
	if orig, ok := m.session.Revert(row.name); ok {
		row.value = orig
		m.el.SetField(row.name, orig)
	}
}

func (m *Model) toggleTheme() {
	if m.styles.Theme.IsDark {
		m.cfg.Theme = "light"
	} else {
		m.cfg.Theme = "dark"
	}
	m.styles = NewStyles(ThemeByName(m.cfg.Theme))
	if err := config.Save(m.cfgPath, m.cfg); err != nil {
		m.errMsg = fmt.Sprintf("save theme: %v", err)
	}
}

// leaveDetail flushes pending edits before the session is discarded.
func (m *Model) leaveDetail() {
	if m.session != nil {
		if err := m.session.Flush(context.Background()); err != nil {
			m.errMsg = err.Error()
		}
	}
	m.closeDetail()
}

func (m *Model) quit() {
	if m.mode == modeDetail || m.mode == modePicker || m.mode == modeConfirm {
		m.leaveDetail()
	}
}
