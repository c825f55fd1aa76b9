package tui

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/evanschultz/tally/internal/domain"
	"golang.org/x/text/message"
)

// sliderWidth is the cell count of one progress slider.
const sliderWidth = 20

// palette colors shared by board and dialogs.
var (
	accentColor  color.Color = lipgloss.Color("62")
	mutedColor   color.Color = lipgloss.Color("241")
	dimColor     color.Color = lipgloss.Color("239")
	focusColor   color.Color = lipgloss.Color("212")
	doneColor    color.Color = lipgloss.Color("114")
	pendingColor color.Color = lipgloss.Color("179")
)

// boardView is everything the board renderer reads.
type boardView struct {
	state    *State
	printer  *message.Printer
	focus    target
	hasFocus bool
	// editing is the process whose numeric field is open, with its rendered input.
	editing   *target
	editInput string
	dimmed    bool
}

// renderBoard projects the store into lines and reports which line holds the focused row.
func renderBoard(v boardView) ([]string, int) {
	projects := v.state.Projects()
	lines := make([]string, 0, len(projects)*4)
	focusLine := -1

	title := lipgloss.NewStyle().Bold(true)
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	section := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	focused := lipgloss.NewStyle().Foreground(focusColor).Bold(true)
	if v.dimmed {
		title = title.Faint(true)
		muted = muted.Faint(true)
		section = section.Faint(true)
		focused = focused.Faint(true)
	}

	emit := func(row target, text string) {
		if v.hasFocus && row == v.focus {
			focusLine = len(lines)
			lines = append(lines, "│ "+focused.Render(text))
			return
		}
		lines = append(lines, "  "+text)
	}

	for idx, p := range projects {
		if idx > 0 {
			lines = append(lines, "")
		}
		expanded := v.state.ProjectExpanded(p.Name)
		chevron := "▸"
		if expanded {
			chevron = "▾"
		}
		header := fmt.Sprintf("%s %s  %s", chevron, title.Render(p.Name), muted.Render(projectSummary(v.printer, p)))
		emit(target{kind: rowProject, project: p.Name}, header)
		if !expanded {
			continue
		}

		lines = append(lines, "    "+section.Render(v.printer.Sprintf(msgSectionBacklog)))
		if len(p.Backlogs) == 0 {
			lines = append(lines, "      "+muted.Render(v.printer.Sprintf(msgEmptyBacklogs)))
		}
		for _, b := range p.Backlogs {
			emit(target{kind: rowBacklog, project: p.Name, backlog: b}, "    ● "+b)
		}

		lines = append(lines, "    "+section.Render(v.printer.Sprintf(msgSectionTodo)))
		if len(p.Todos) == 0 {
			lines = append(lines, "      "+muted.Render(v.printer.Sprintf(msgEmptyTodos)))
		}
		for _, t := range p.Todos {
			todoOpen := v.state.TodoExpanded(t.ID)
			marker := "▸"
			if todoOpen {
				marker = "▾"
			}
			emit(target{kind: rowTodo, project: p.Name, todoID: t.ID}, fmt.Sprintf("    %s %s  %s", marker, t.Name, todoBadge(v.printer, t)))
			if !todoOpen {
				continue
			}
			for _, proc := range t.Processes {
				row := target{kind: rowProcess, project: p.Name, todoID: t.ID, backlog: proc.Name}
				value := v.state.ProcessValue(t.ID, proc)
				number := fmt.Sprintf("%6s", formatPercent(value))
				if v.editing != nil && *v.editing == row {
					number = v.editInput
				}
				emit(row, fmt.Sprintf("        %-14s %s %s", truncate(proc.Name, 14), renderSlider(value, sliderWidth), number))
			}
		}
	}
	return lines, focusLine
}

// projectSummary renders the collapsed header summary.
func projectSummary(p *message.Printer, project domain.Project) string {
	return p.Sprintf(msgSummary, len(project.Todos), len(project.Backlogs))
}

// todoBadge renders the status badge. Completion comes only from the server status.
func todoBadge(p *message.Printer, t domain.Todo) string {
	if t.Status == domain.TodoCompleted {
		return lipgloss.NewStyle().Foreground(doneColor).Render("[" + p.Sprintf(msgCompleted) + "]")
	}
	return lipgloss.NewStyle().Foreground(pendingColor).Render("[" + formatPercent(t.Progress) + "%]")
}

// renderSlider draws a fixed-width bar for a 0..100 value.
func renderSlider(v float64, width int) string {
	if width <= 0 {
		return ""
	}
	v = domain.ClampProgress(v)
	filled := int(math.Round(v / 100 * float64(width)))
	filled = clamp(filled, 0, width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// renderEmptyBoard renders the no-projects state.
func renderEmptyBoard(p *message.Printer) string {
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	return strings.Join([]string{
		p.Sprintf(msgNoProjects),
		muted.Render(p.Sprintf(msgNoProjectsHint)),
	}, "\n")
}

// renderModal draws the dialog for kind.
func (m Model) renderModal(kind modalKind, maxWidth int) string {
	p := m.printer
	width := clamp(maxWidth, 40, 72)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	hint := lipgloss.NewStyle().Foreground(mutedColor)

	var lines []string
	switch kind {
	case modalCreateProject:
		lines = []string{
			titleStyle.Render(p.Sprintf(msgNewProjectTitle)),
			"",
			m.modals.projectInput.View(),
			"",
			hint.Render(p.Sprintf(msgCreateProjectKeys)),
		}
	case modalAddBacklog:
		lines = []string{
			titleStyle.Render(p.Sprintf(msgAddBacklogTitle, m.state.modalProject)),
			"",
			m.modals.backlogInput.View(),
			"",
			hint.Render(p.Sprintf(msgAddBacklogKeys)),
		}
	case modalAddTodo:
		lines = []string{
			titleStyle.Render(p.Sprintf(msgNewTodoTitle, m.state.modalProject)),
			"",
			m.modals.todoInput.View(),
			"",
			p.Sprintf(msgAvailable) + m.renderPills(m.state.AvailableBacklogs(), focusAvailable),
			p.Sprintf(msgSelected) + m.renderPills(m.state.SelectedBacklogs(), focusSelected),
			"",
			hint.Render(p.Sprintf(msgAddTodoKeys)),
		}
	case modalDeleteProject:
		button := lipgloss.NewStyle().Padding(0, 1).Foreground(dimColor).Render(p.Sprintf(msgDeleteButton))
		if m.deleteConfirmEnabled() {
			button = lipgloss.NewStyle().Padding(0, 1).Bold(true).
				Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Render(p.Sprintf(msgDeleteButton))
		}
		lines = []string{
			titleStyle.Render(p.Sprintf(msgDeleteTitle, m.state.deleteTarget)),
			hint.Render(p.Sprintf(msgDeleteHint)),
			"",
			m.modals.deleteInput.View(),
			"",
			button,
			"",
			hint.Render(p.Sprintf(msgDeleteKeys)),
		}
	default:
		return ""
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderPills draws one picker list, highlighting the cursor when the list has focus.
func (m Model) renderPills(names []string, list pickerFocus) string {
	if len(names) == 0 {
		return lipgloss.NewStyle().Foreground(dimColor).Render(m.printer.Sprintf(msgNoPills))
	}
	pill := lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("237"))
	cursor := pill.Foreground(focusColor).Bold(true).Underline(true)
	out := make([]string, 0, len(names))
	for idx, name := range names {
		if m.modals.focus == list && idx == m.modals.cursor {
			out = append(out, cursor.Render(name))
			continue
		}
		out = append(out, pill.Render(name))
	}
	return strings.Join(out, " ")
}
