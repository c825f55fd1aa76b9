package tui

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/tally/internal/domain"
)

// rowKind identifies what a focusable board row points at.
type rowKind int

const (
	rowProject rowKind = iota
	rowBacklog
	rowTodo
	rowProcess
)

// target is the entity a board row or action refers to.
type target struct {
	kind    rowKind
	project string
	backlog string
	todoID  string
}

// action is a dispatch tag resolved from one key press on the focused row.
type action string

// action tags handled by dispatchTable.
const (
	actionToggleProject  action = "toggle-project"
	actionToggleTodo     action = "toggle-todo"
	actionCreateProject  action = "open-create-project"
	actionAddBacklog     action = "add-backlog"
	actionAddTodo        action = "add-todo"
	actionRemoveBacklog  action = "remove-backlog"
	actionDeleteProject  action = "delete-project"
	actionProgressDown   action = "progress-down"
	actionProgressUp     action = "progress-up"
	actionProgressCommit action = "progress-commit"
	actionProgressEdit   action = "progress-edit"
	actionCopyName       action = "copy-name"
	actionReload         action = "reload"
)

// actionHandler applies one action to the model and returns any follow-up command.
type actionHandler func(m *Model, t target) tea.Cmd

// dispatchTable maps action tags to their handlers.
var dispatchTable = map[action]actionHandler{
	actionToggleProject: func(m *Model, t target) tea.Cmd {
		m.state.ToggleProject(t.project)
		return nil
	},
	actionToggleTodo: func(m *Model, t target) tea.Cmd {
		m.state.ToggleTodo(t.todoID)
		return nil
	},
	actionCreateProject: func(m *Model, _ target) tea.Cmd {
		return m.openModal(modalCreateProject, "")
	},
	actionAddBacklog: func(m *Model, t target) tea.Cmd {
		return m.openModal(modalAddBacklog, t.project)
	},
	actionAddTodo: func(m *Model, t target) tea.Cmd {
		m.state.selectedBacklogs = []string{}
		p, ok := m.state.Project(t.project)
		if !ok || len(p.Backlogs) == 0 {
			return m.showToast(m.printer.Sprintf(msgNoFreeBacklogs), true)
		}
		return m.openModal(modalAddTodo, t.project)
	},
	actionRemoveBacklog: func(m *Model, t target) tea.Cmd {
		return m.removeBacklogCmd(t.project, t.backlog)
	},
	actionDeleteProject: func(m *Model, t target) tea.Cmd {
		return m.openModal(modalDeleteProject, t.project)
	},
	actionProgressDown: func(m *Model, t target) tea.Cmd {
		m.nudgeDraft(t, -m.progressStep)
		return nil
	},
	actionProgressUp: func(m *Model, t target) tea.Cmd {
		m.nudgeDraft(t, m.progressStep)
		return nil
	},
	actionProgressCommit: func(m *Model, t target) tea.Cmd {
		return m.updateProgressCmd(t, m.currentProcessValue(t))
	},
	actionProgressEdit: func(m *Model, t target) tea.Cmd {
		m.editing = &t
		m.progressInput.SetValue(formatPercent(m.currentProcessValue(t)))
		m.progressInput.CursorEnd()
		return m.progressInput.Focus()
	},
	actionCopyName: func(m *Model, t target) tea.Cmd {
		if err := clipboard.WriteAll(t.project); err != nil {
			return m.showToast(err.Error(), true)
		}
		return m.showToast(m.printer.Sprintf(msgCopied, t.project), false)
	},
	actionReload: func(m *Model, _ target) tea.Cmd {
		return m.loadProjects
	},
}

// keyAction pairs one binding with the row kinds it applies to.
type keyAction struct {
	binding func(keyMap) key.Binding
	kinds   []rowKind
	tag     action
}

// boardKeyActions resolves board keys in priority order. Nil kinds match without a focused row.
var boardKeyActions = []keyAction{
	{binding: func(k keyMap) key.Binding { return k.newProject }, tag: actionCreateProject},
	{binding: func(k keyMap) key.Binding { return k.reload }, tag: actionReload},
	{binding: func(k keyMap) key.Binding { return k.toggle }, kinds: []rowKind{rowProject}, tag: actionToggleProject},
	{binding: func(k keyMap) key.Binding { return k.toggle }, kinds: []rowKind{rowTodo}, tag: actionToggleTodo},
	{binding: func(k keyMap) key.Binding { return k.toggle }, kinds: []rowKind{rowProcess}, tag: actionProgressCommit},
	{binding: func(k keyMap) key.Binding { return k.addBacklog }, kinds: anyRow, tag: actionAddBacklog},
	{binding: func(k keyMap) key.Binding { return k.addTodo }, kinds: anyRow, tag: actionAddTodo},
	{binding: func(k keyMap) key.Binding { return k.removeBacklog }, kinds: []rowKind{rowBacklog}, tag: actionRemoveBacklog},
	{binding: func(k keyMap) key.Binding { return k.deleteProject }, kinds: anyRow, tag: actionDeleteProject},
	{binding: func(k keyMap) key.Binding { return k.progressDown }, kinds: []rowKind{rowProcess}, tag: actionProgressDown},
	{binding: func(k keyMap) key.Binding { return k.progressUp }, kinds: []rowKind{rowProcess}, tag: actionProgressUp},
	{binding: func(k keyMap) key.Binding { return k.editProgress }, kinds: []rowKind{rowProcess}, tag: actionProgressEdit},
	{binding: func(k keyMap) key.Binding { return k.copyName }, kinds: anyRow, tag: actionCopyName},
}

var anyRow = []rowKind{rowProject, rowBacklog, rowTodo, rowProcess}

// resolveAction maps a key press on the focused row to an action tag and target.
func (m Model) resolveAction(msg tea.KeyPressMsg) (action, target, bool) {
	focused, hasRow := m.focusedRow()
	for _, ka := range boardKeyActions {
		if !key.Matches(msg, ka.binding(m.keys)) {
			continue
		}
		if ka.kinds == nil {
			return ka.tag, focused, true
		}
		if !hasRow {
			continue
		}
		for _, kind := range ka.kinds {
			if kind == focused.kind {
				return ka.tag, focused, true
			}
		}
	}
	return "", target{}, false
}

// dispatch runs the handler registered for tag.
func (m *Model) dispatch(tag action, t target) tea.Cmd {
	handler, ok := dispatchTable[tag]
	if !ok {
		return nil
	}
	return handler(m, t)
}

// boardRows flattens the visible board into focusable rows.
func (m Model) boardRows() []target {
	rows := make([]target, 0, len(m.state.Projects())*2)
	for _, p := range m.state.Projects() {
		rows = append(rows, target{kind: rowProject, project: p.Name})
		if !m.state.ProjectExpanded(p.Name) {
			continue
		}
		for _, b := range p.Backlogs {
			rows = append(rows, target{kind: rowBacklog, project: p.Name, backlog: b})
		}
		for _, t := range p.Todos {
			rows = append(rows, target{kind: rowTodo, project: p.Name, todoID: t.ID})
			if !m.state.TodoExpanded(t.ID) {
				continue
			}
			for _, proc := range t.Processes {
				rows = append(rows, target{kind: rowProcess, project: p.Name, todoID: t.ID, backlog: proc.Name})
			}
		}
	}
	return rows
}

// focusedRow returns the row under the cursor.
func (m Model) focusedRow() (target, bool) {
	rows := m.boardRows()
	if len(rows) == 0 {
		return target{}, false
	}
	return rows[clamp(m.cursor, 0, len(rows)-1)], true
}

// moveCursor shifts focus by delta rows.
func (m *Model) moveCursor(delta int) {
	rows := m.boardRows()
	if len(rows) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(rows)-1)
}

// keepCursorOn re-finds t after the rows changed shape.
func (m *Model) keepCursorOn(t target) {
	rows := m.boardRows()
	for idx, row := range rows {
		if row == t {
			m.cursor = idx
			return
		}
	}
	m.cursor = clamp(m.cursor, 0, max(0, len(rows)-1))
}

// processFor finds the cached process t points at.
func (m Model) processFor(t target) (domain.Process, bool) {
	p, ok := m.state.Project(t.project)
	if !ok {
		return domain.Process{}, false
	}
	todo := p.Todo(t.todoID)
	if todo == nil {
		return domain.Process{}, false
	}
	proc := todo.Process(t.backlog)
	if proc == nil {
		return domain.Process{}, false
	}
	return *proc, true
}

// currentProcessValue returns the slider value shown for t.
func (m Model) currentProcessValue(t target) float64 {
	proc, ok := m.processFor(t)
	if !ok {
		return 0
	}
	return m.state.ProcessValue(t.todoID, proc)
}

// nudgeDraft moves the slider for t by delta without sending anything.
func (m *Model) nudgeDraft(t target, delta float64) {
	if _, ok := m.processFor(t); !ok {
		return
	}
	m.state.SetDraft(t.todoID, t.backlog, m.currentProcessValue(t)+delta)
}

// parseProgressInput reads the numeric field. Blank or non-numeric text is rejected.
func parseProgressInput(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return domain.ClampProgress(v), true
}

// formatPercent renders a progress value without trailing zeros.
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
