package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/tally/internal/domain"
	"golang.org/x/text/message"
)

// Service is the API surface the client drives.
type Service interface {
	ListProjects(context.Context) ([]domain.Project, error)
	CreateProject(context.Context, string) (domain.Project, error)
	DeleteProject(ctx context.Context, name, confirmName string) error
	AddBacklog(ctx context.Context, project, name string) (domain.Project, error)
	RemoveBacklog(ctx context.Context, project, backlog string) (domain.Project, error)
	AddTodo(ctx context.Context, project, name string, backlogs []string) (domain.Project, error)
	UpdateProgress(ctx context.Context, project, todoID, backlog string, progress float64) (domain.Project, error)
}

// defaultProgressStep is how far one slider key press moves the value.
const defaultProgressStep = 5

// mutation identifies which project-returning call produced a projectSavedMsg.
type mutation int

const (
	mutationCreateProject mutation = iota
	mutationAddBacklog
	mutationAddTodo
	mutationRemoveBacklog
)

// mutationOutcomes names each mutation, the dialog it closes and its confirmation text.
var mutationOutcomes = map[mutation]struct {
	name  string
	modal modalKind
	text  string
}{
	mutationCreateProject: {name: "create project", modal: modalCreateProject, text: msgProjectCreated},
	mutationAddBacklog:    {name: "add backlog", modal: modalAddBacklog, text: msgBacklogAdded},
	mutationAddTodo:       {name: "add to do", modal: modalAddTodo, text: msgTodoCreated},
	mutationRemoveBacklog: {name: "remove backlog", text: msgBacklogRemoved},
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	status string

	help     help.Model
	keys     keyMap
	printer  *message.Printer
	markdown *markdownRenderer
	showHelp bool
	logger   Logger

	state  *State
	modals modals
	cursor int

	// editing is the process whose numeric field is open.
	editing       *target
	progressInput textinput.Model
	progressStep  float64
	// progressCounter numbers every progress request in issue order.
	progressCounter int
	// progressSeq is the newest progress request issued per process.
	progressSeq map[string]int
	// progressApplied is the newest progress payload merged per project.
	progressApplied map[string]int

	toast         toast
	toastSeq      int
	toastDuration time.Duration
}

// projectsLoadedMsg carries the full project list.
type projectsLoadedMsg struct {
	projects []domain.Project
	err      error
}

// projectSavedMsg carries the project returned by one mutating call.
type projectSavedMsg struct {
	op      mutation
	project domain.Project
	err     error
}

// projectDeletedMsg reports one delete outcome.
type projectDeletedMsg struct {
	name string
	err  error
}

// progressUpdatedMsg carries one progress response tagged with its request sequence.
type progressUpdatedMsg struct {
	target  target
	seq     int
	project domain.Project
	err     error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	progressInput := textinput.New()
	progressInput.Prompt = ""
	progressInput.Placeholder = "0-100"
	progressInput.CharLimit = 8
	m := Model{
		svc:             svc,
		help:            h,
		keys:            newKeyMap(),
		printer:         newPrinter("en"),
		markdown:        &markdownRenderer{},
		state:           NewState(),
		modals:          newModals(),
		progressInput:   progressInput,
		progressStep:    defaultProgressStep,
		progressSeq:     map[string]int{},
		progressApplied: map[string]int{},
		toastDuration:   defaultToastDuration,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.status = m.printer.Sprintf(msgLoading)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadProjects
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		if msg.err != nil {
			m.status = ""
			return m, m.failToast("load", msg.err)
		}
		focused, hadFocus := m.focusedRow()
		m.state.SetProjects(msg.projects)
		if hadFocus {
			m.keepCursorOn(focused)
		}
		m.status = ""
		return m, nil

	case projectSavedMsg:
		return m.applyProjectSaved(msg)

	case projectDeletedMsg:
		if msg.err != nil {
			return m, m.failToast("delete project", msg.err)
		}
		m.state.RemoveProject(msg.name)
		m.closeModal(modalDeleteProject)
		m.moveCursor(0)
		return m, m.showToast(m.printer.Sprintf(msgProjectDeleted), false)

	case progressUpdatedMsg:
		return m.applyProgressUpdated(msg)

	case toastExpiredMsg:
		m.expireToast(msg.id)
		return m, nil

	case tea.KeyPressMsg:
		if m.editing != nil {
			return m.handleProgressEditKey(msg)
		}
		if kind, ok := m.modals.active(); ok {
			return m.handleModalKey(kind, msg)
		}
		if m.showHelp {
			return m.handleHelpKey(msg)
		}
		return m.handleBoardKey(msg)

	default:
		return m, nil
	}
}

// applyProjectSaved merges one returned project, closes its dialog and confirms.
func (m Model) applyProjectSaved(msg projectSavedMsg) (tea.Model, tea.Cmd) {
	op := mutationOutcomes[msg.op]
	if msg.err != nil {
		return m, m.failToast(op.name, msg.err)
	}
	focused, hadFocus := m.focusedRow()
	m.state.ReplaceProject(msg.project)
	if op.modal != 0 {
		m.closeModal(op.modal)
	}
	if hadFocus {
		m.keepCursorOn(focused)
	}
	return m, m.showToast(m.printer.Sprintf(op.text), false)
}

// applyProgressUpdated reports every failure and merges only the newest progress payload.
// A success that lands after a newer payload of the same project was merged triggers a reload.
func (m Model) applyProgressUpdated(msg progressUpdatedMsg) (tea.Model, tea.Cmd) {
	t := msg.target
	newest := msg.seq >= m.progressSeq[processKey(t.todoID, t.backlog)]
	if newest {
		m.state.ClearDraft(t.todoID, t.backlog)
	}
	if msg.err != nil {
		return m, m.failToast("update progress", msg.err)
	}
	if !newest {
		return m, nil
	}
	if msg.seq < m.progressApplied[t.project] {
		return m, m.loadProjects
	}
	m.progressApplied[t.project] = msg.seq
	focused, hadFocus := m.focusedRow()
	m.state.ReplaceProject(msg.project)
	if hadFocus {
		m.keepCursorOn(focused)
	}
	return m, nil
}

// handleBoardKey handles board navigation and resolves everything else through the dispatch table.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.moveCursor(1)
		return m, nil
	}
	tag, t, ok := m.resolveAction(msg)
	if !ok {
		return m, nil
	}
	cmd := m.dispatch(tag, t)
	m.moveCursor(0)
	return m, cmd
}

// handleHelpKey closes the help overlay.
func (m Model) handleHelpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp), msg.String() == "esc":
		m.showHelp = false
	}
	return m, nil
}

// handleModalKey routes keys to the active dialog.
func (m Model) handleModalKey(kind modalKind, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.closeModal):
		m.closeModal(kind)
		return m, nil
	case msg.String() == "esc":
		m.closeOnEscape()
		return m, nil
	case msg.String() == "enter":
		return m.submitModal(kind)
	}

	if kind == modalAddTodo {
		if key.Matches(msg, m.keys.pickerFocus) {
			delta := 1
			if msg.String() == "shift+tab" {
				delta = -1
			}
			return m, m.cyclePickerFocus(delta)
		}
		if m.modals.focus != focusTodoName {
			switch {
			case key.Matches(msg, m.keys.pickerToggle):
				m.togglePickerCursor()
			case key.Matches(msg, m.keys.progressDown):
				m.modals.cursor = max(0, m.modals.cursor-1)
			case key.Matches(msg, m.keys.progressUp):
				m.modals.cursor = clamp(m.modals.cursor+1, 0, max(0, len(m.pickerEntries())-1))
			}
			return m, nil
		}
	}

	in := m.modals.input(kind)
	if in == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return m, cmd
}

// submitModal validates local input and issues the dialog's request.
func (m Model) submitModal(kind modalKind) (tea.Model, tea.Cmd) {
	switch kind {
	case modalCreateProject:
		name := strings.TrimSpace(m.modals.projectInput.Value())
		if name == "" {
			return m, m.showToast(m.printer.Sprintf(msgEnterProjectName), true)
		}
		svc := m.svc
		return m, func() tea.Msg {
			p, err := svc.CreateProject(context.Background(), name)
			return projectSavedMsg{op: mutationCreateProject, project: p, err: err}
		}

	case modalAddBacklog:
		name := strings.TrimSpace(m.modals.backlogInput.Value())
		if name == "" {
			return m, m.showToast(m.printer.Sprintf(msgEnterBacklogName), true)
		}
		project := m.state.modalProject
		svc := m.svc
		return m, func() tea.Msg {
			p, err := svc.AddBacklog(context.Background(), project, name)
			return projectSavedMsg{op: mutationAddBacklog, project: p, err: err}
		}

	case modalAddTodo:
		name := strings.TrimSpace(m.modals.todoInput.Value())
		selected := m.state.SelectedBacklogs()
		if name == "" || len(selected) == 0 {
			return m, m.showToast(m.printer.Sprintf(msgEnterTodoFields), true)
		}
		project := m.state.modalProject
		svc := m.svc
		return m, func() tea.Msg {
			p, err := svc.AddTodo(context.Background(), project, name, selected)
			return projectSavedMsg{op: mutationAddTodo, project: p, err: err}
		}

	case modalDeleteProject:
		if !m.deleteConfirmEnabled() {
			return m, nil
		}
		name := m.state.deleteTarget
		confirm := strings.TrimSpace(m.modals.deleteInput.Value())
		svc := m.svc
		return m, func() tea.Msg {
			err := svc.DeleteProject(context.Background(), name, confirm)
			return projectDeletedMsg{name: name, err: err}
		}
	}
	return m, nil
}

// handleProgressEditKey handles keys while the numeric progress field is open.
func (m Model) handleProgressEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopProgressEdit()
		return m, nil
	case "enter":
		t := *m.editing
		value, ok := parseProgressInput(m.progressInput.Value())
		if !ok {
			return m, m.showToast(m.printer.Sprintf(msgProgressNotNumber), true)
		}
		m.stopProgressEdit()
		return m, m.updateProgressCmd(t, value)
	}
	var cmd tea.Cmd
	m.progressInput, cmd = m.progressInput.Update(msg)
	return m, cmd
}

func (m *Model) stopProgressEdit() {
	m.editing = nil
	m.progressInput.SetValue("")
	m.progressInput.Blur()
}

// loadProjects loads required data for the current operation.
func (m Model) loadProjects() tea.Msg {
	projects, err := m.svc.ListProjects(context.Background())
	return projectsLoadedMsg{projects: projects, err: err}
}

// removeBacklogCmd removes one free backlog.
func (m *Model) removeBacklogCmd(project, backlog string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		p, err := svc.RemoveBacklog(context.Background(), project, backlog)
		return projectSavedMsg{op: mutationRemoveBacklog, project: p, err: err}
	}
}

// updateProgressCmd clamps value, shows it locally as a draft and sends it with the next sequence number.
func (m *Model) updateProgressCmd(t target, value float64) tea.Cmd {
	value = domain.ClampProgress(value)
	m.state.SetDraft(t.todoID, t.backlog, value)
	m.progressCounter++
	seq := m.progressCounter
	m.progressSeq[processKey(t.todoID, t.backlog)] = seq
	svc := m.svc
	return func() tea.Msg {
		p, err := svc.UpdateProgress(context.Background(), t.project, t.todoID, t.backlog, value)
		return progressUpdatedMsg{target: t, seq: seq, project: p, err: err}
	}
}

// View handles view.
func (m Model) View() tea.View {
	view := tea.NewView(m.viewContent())
	view.AltScreen = true
	return view
}

// viewContent renders the full screen as text.
func (m Model) viewContent() string {
	if !m.ready {
		return m.printer.Sprintf(msgLoading)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render("tally")
	if count := len(m.state.Projects()); count > 0 {
		header += statusStyle.Render("  " + pluralProjects(count))
	}
	if strings.TrimSpace(m.status) != "" {
		header += statusStyle.Render("  " + m.status)
	}

	var body string
	if len(m.state.Projects()) == 0 {
		body = renderEmptyBoard(m.printer)
	} else {
		focus, hasFocus := m.focusedRow()
		lines, focusLine := renderBoard(boardView{
			state:     m.state,
			printer:   m.printer,
			focus:     focus,
			hasFocus:  hasFocus,
			editing:   m.editing,
			editInput: m.progressInput.View(),
			dimmed:    m.modals.dimmed(),
		})
		body = strings.Join(scrollWindow(lines, focusLine, m.boardHeight()), "\n")
	}

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	sections := []string{header, "", body}
	if toastLine := m.renderToast(); toastLine != "" {
		sections = append(sections, "", toastLine)
	}
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := ""
	if kind, ok := m.modals.active(); ok {
		overlay = m.renderModal(kind, m.width-8)
	} else if m.showHelp {
		overlay = m.renderHelpOverlay(m.width - 8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// renderHelpOverlay renders the markdown key reference.
func (m Model) renderHelpOverlay(maxWidth int) string {
	width := clamp(maxWidth, 48, 90)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width).
		Render(m.markdown.render(helpMarkdown(m.keys), width-4))
}

// boardHeight returns the rows available to the board body.
func (m Model) boardHeight() int {
	if m.height <= 0 {
		return 0
	}
	// header, spacer, toast block and the bordered help line.
	return max(1, m.height-7)
}

func pluralProjects(n int) string {
	if n == 1 {
		return "1 project"
	}
	return fmt.Sprintf("%d projects", n)
}

// scrollWindow keeps the focused line visible inside height rows. Zero height disables windowing.
func scrollWindow(lines []string, focusLine, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	top := 0
	if focusLine >= height {
		top = focusLine - height + 1
	}
	top = clamp(top, 0, len(lines)-height)
	return lines[top : top+height]
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base using lipgloss layers.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
