package tui

import (
	"fmt"
	"sort"
	"strings"

	"worldkit/internal/autosave"
	"worldkit/internal/element"
)

func (m *Model) View() string {
	var body string
	switch m.mode {
	case modeCategories:
		body = m.viewCategories()
	case modeList:
		body = m.list.View()
	case modeDetail:
		body = m.viewDetail()
	case modePicker:
		body = m.viewPicker()
	case modeConfirm:
		body = m.viewConfirm()
	}
	return body + "\n" + m.statusLine()
}

func (m *Model) viewCategories() string {
	var sb strings.Builder

	title := "World"
	if m.world != nil {
		title = m.world.Name
	}
	sb.WriteString(m.styles.Title.Render(title) + "\n\n")

	for i, typ := range element.Types() {
		line := fmt.Sprintf("%-14s %4d", element.Capitalize(typ), m.counts[typ])
		if i == m.catIndex {
			sb.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			sb.WriteString(m.styles.Body.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n" + m.styles.Muted.Render("enter open · t theme · r reload · q quit"))
	return sb.String()
}

func (m *Model) viewDetail() string {
	var sb strings.Builder

	name := ""
	if m.el != nil {
		name = m.el.Name
	}
	sb.WriteString(m.styles.Header.Render(element.Capitalize(m.curType)+" · "+name) + "\n\n")

	dirty := make(map[string]bool)
	if m.session != nil {
		for _, f := range m.session.Dirty() {
			dirty[f] = true
		}
	}

	for i, row := range m.fields {
		cursor := " "
		if i == m.fieldIdx && !m.editing {
			cursor = m.styles.Selected.Render(">")
		}
		marker := " "
		if dirty[row.name] {
			marker = m.styles.Dirty.Render("*")
		}
		label := m.styles.FieldName.Render(fmt.Sprintf("%-20s", row.name))

		var value string
		switch {
		case m.editing && i == m.fieldIdx:
			value = m.input.View()
		case row.desc.IsLink():
			value = m.styles.Muted.Render(m.linkText(row))
		default:
			value = displayValue(row.value)
		}

		sb.WriteString(cursor + marker + label + " " + value + "\n")

		if m.editing && i == m.fieldIdx {
			if hint := m.typingHint(row.name); hint != "" {
				sb.WriteString("   " + m.styles.Muted.Render("options: "+hint) + "\n")
			}
		}
	}

	sb.WriteString("\n" + m.styles.Muted.Render("enter edit/pick · x remove link · u revert · esc back"))
	return sb.String()
}

// linkText renders a link field as resolved display names once the tags have
// arrived; before that, the bare ids.
func (m *Model) linkText(row fieldRow) string {
	tags, ok := m.tags[row.name]
	if !ok {
		return displayValue(row.value)
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return strings.Join(names, ", ")
}

// typingHint lists the world's supertype or subtype vocabulary for the
// element type being edited.
func (m *Model) typingHint(fieldName string) string {
	if m.typing == nil || m.typingType != m.curType {
		return ""
	}
	switch fieldName {
	case "supertype":
		names := make([]string, 0, len(m.typing))
		for name := range m.typing {
			names = append(names, name)
		}
		sort.Strings(names)
		return strings.Join(names, ", ")
	case "subtype":
		if m.el == nil {
			return ""
		}
		return strings.Join(m.typing[m.el.Supertype], ", ")
	}
	return ""
}

func (m *Model) viewPicker() string {
	var sb strings.Builder

	field := ""
	if m.pickerField < len(m.fields) {
		field = m.fields[m.pickerField].name
	}
	sb.WriteString(m.styles.Header.Render("Link "+field) + "\n\n")
	sb.WriteString(m.pickerInput.View() + "\n\n")

	if len(m.candidates) == 0 {
		sb.WriteString(m.styles.Muted.Render("no matches") + "\n")
	}
	for i, cand := range m.candidates {
		line := cand.Name
		if cand.World != "" && m.el != nil && m.el.World != "" && cand.World != m.el.World {
			line += " " + m.styles.Warning.Render("(other world)")
		}
		if i == m.pickerIdx {
			sb.WriteString(m.styles.Selected.Render("> "+line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	sb.WriteString("\n" + m.styles.Muted.Render("type to filter · enter link · esc cancel"))
	return sb.String()
}

func (m *Model) viewConfirm() string {
	if m.warning == nil {
		return ""
	}
	body := m.styles.Warning.Render(m.warning.Message()) +
		"\n\nLink \"" + m.pending.Name + "\" anyway? (y/n)"
	return m.styles.Overlay.Render(body)
}

// statusLine is the single-line save indicator shown under every view.
func (m *Model) statusLine() string {
	if m.errMsg != "" {
		return m.styles.StatusBar.Render(m.styles.Error.Render("error: " + m.errMsg))
	}

	var text string
	switch m.status.State {
	case autosave.StateEditing:
		text = fmt.Sprintf("editing… (%d dirty)", len(m.status.Dirty))
	case autosave.StateSaving:
		text = "saving…"
	case autosave.StateError:
		text = m.styles.Error.Render("save failed")
	default:
		if m.saved {
			text = m.styles.Success.Render("saved")
		} else if m.world != nil {
			text = m.world.Name
		} else {
			text = "connecting…"
		}
	}
	return m.styles.StatusBar.Render(text)
}

// displayValue renders a field value for the read-only row. Link values fall
// back to bare ids until resolveTags delivers their display names.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return fmt.Sprintf("%v", val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if id := element.RefID(item); id != "" {
				parts = append(parts, id)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}
