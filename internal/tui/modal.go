package tui

import (
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// modalKind identifies one dialog overlay.
type modalKind int

// modal kinds in render order.
const (
	modalCreateProject modalKind = iota + 1
	modalAddBacklog
	modalAddTodo
	modalDeleteProject
)

// escapeClosable lists the modals Escape closes. Create-project only closes via the close key.
var escapeClosable = []modalKind{modalAddBacklog, modalAddTodo, modalDeleteProject}

// pickerFocus is the focused region inside the add to-do dialog.
type pickerFocus int

const (
	focusTodoName pickerFocus = iota
	focusAvailable
	focusSelected
)

// modals tracks open dialogs and their inputs.
type modals struct {
	// open lists dialogs in opening order; the last one receives keys.
	open []modalKind

	projectInput textinput.Model
	backlogInput textinput.Model
	todoInput    textinput.Model
	deleteInput  textinput.Model

	focus  pickerFocus
	cursor int
}

// newModals builds the closed controller with empty inputs.
func newModals() modals {
	return modals{
		projectInput: newModalInput("name: ", "project name", 120),
		backlogInput: newModalInput("backlog: ", "one word: letters, numbers, _ or -", 80),
		todoInput:    newModalInput("to do: ", "one word: letters, numbers, _ or -", 80),
		deleteInput:  newModalInput("confirm: ", "type the project name", 120),
	}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func (c *modals) isOpen(kind modalKind) bool {
	return slices.Contains(c.open, kind)
}

// active returns the dialog receiving keys.
func (c *modals) active() (modalKind, bool) {
	if len(c.open) == 0 {
		return 0, false
	}
	return c.open[len(c.open)-1], true
}

// dimmed reports whether the board renders behind an overlay.
func (c *modals) dimmed() bool {
	return len(c.open) > 0
}

// input returns the text input owned by kind.
func (c *modals) input(kind modalKind) *textinput.Model {
	switch kind {
	case modalCreateProject:
		return &c.projectInput
	case modalAddBacklog:
		return &c.backlogInput
	case modalAddTodo:
		return &c.todoInput
	case modalDeleteProject:
		return &c.deleteInput
	default:
		return nil
	}
}

// resetInputs empties and blurs every dialog input.
func (c *modals) resetInputs() {
	for _, in := range []*textinput.Model{&c.projectInput, &c.backlogInput, &c.todoInput, &c.deleteInput} {
		in.SetValue("")
		in.Blur()
	}
	c.focus = focusTodoName
	c.cursor = 0
}

// openModal records the target project and shows kind. Reopening an open dialog keeps its position.
func (m *Model) openModal(kind modalKind, project string) tea.Cmd {
	switch kind {
	case modalAddTodo:
		m.state.SeedPicker(project)
	case modalDeleteProject:
		m.state.modalProject = project
		m.state.deleteTarget = project
		m.modals.deleteInput.SetValue("")
	default:
		m.state.modalProject = project
	}
	if !m.modals.isOpen(kind) {
		m.modals.open = append(m.modals.open, kind)
	}
	m.modals.focus = focusTodoName
	m.modals.cursor = 0
	return m.focusModalInput(kind)
}

// closeModal hides kind and clears all transient selection and input state.
func (m *Model) closeModal(kind modalKind) {
	m.modals.open = slices.DeleteFunc(m.modals.open, func(k modalKind) bool {
		return k == kind
	})
	m.state.modalProject = ""
	m.state.selectedBacklogs = nil
	if kind == modalDeleteProject {
		m.state.deleteTarget = ""
	}
	m.modals.resetInputs()
	if top, ok := m.modals.active(); ok {
		_ = m.focusModalInput(top)
	}
}

// closeOnEscape closes every open dialog that Escape may close.
func (m *Model) closeOnEscape() {
	for _, kind := range escapeClosable {
		if m.modals.isOpen(kind) {
			m.closeModal(kind)
		}
	}
}

func (m *Model) focusModalInput(kind modalKind) tea.Cmd {
	in := m.modals.input(kind)
	if in == nil {
		return nil
	}
	return in.Focus()
}

// deleteConfirmEnabled reports whether the typed confirmation matches the pending project.
func (m Model) deleteConfirmEnabled() bool {
	target := m.state.deleteTarget
	return target != "" && strings.TrimSpace(m.modals.deleteInput.Value()) == target
}

// pickerEntries returns the pills in the focused picker list.
func (m Model) pickerEntries() []string {
	switch m.modals.focus {
	case focusAvailable:
		return m.state.AvailableBacklogs()
	case focusSelected:
		return m.state.SelectedBacklogs()
	default:
		return nil
	}
}

// cyclePickerFocus moves between the name input and the two pill lists.
func (m *Model) cyclePickerFocus(delta int) tea.Cmd {
	next := (int(m.modals.focus) + delta + 3) % 3
	m.modals.focus = pickerFocus(next)
	m.modals.cursor = 0
	if m.modals.focus == focusTodoName {
		return m.modals.todoInput.Focus()
	}
	m.modals.todoInput.Blur()
	return nil
}

// togglePickerCursor moves the pill under the cursor to the other list.
func (m *Model) togglePickerCursor() {
	entries := m.pickerEntries()
	if len(entries) == 0 {
		return
	}
	m.modals.cursor = clamp(m.modals.cursor, 0, len(entries)-1)
	m.state.ToggleBacklog(entries[m.modals.cursor])
	m.modals.cursor = clamp(m.modals.cursor, 0, max(0, len(m.pickerEntries())-1))
}
