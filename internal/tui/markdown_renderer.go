package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// helpMarkdown documents the current bindings as a markdown reference.
func helpMarkdown(k keyMap) string {
	var b strings.Builder
	b.WriteString("# tally\n\n")
	b.WriteString("Projects hold free backlogs. A to do consumes the backlogs picked for it and tracks one progress value per backlog.\n\n")
	groups := []struct {
		title    string
		bindings []key.Binding
	}{
		{title: "Board", bindings: []key.Binding{k.moveUp, k.moveDown, k.toggle, k.reload, k.copyName}},
		{title: "Projects and backlogs", bindings: []key.Binding{k.newProject, k.addBacklog, k.removeBacklog, k.deleteProject}},
		{title: "To do and progress", bindings: []key.Binding{k.addTodo, k.progressDown, k.progressUp, k.editProgress}},
		{title: "Dialogs", bindings: []key.Binding{k.pickerFocus, k.pickerToggle, k.closeModal}},
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "## %s\n\n", g.title)
		for _, binding := range g.bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "- `%s` %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Progress is sent when the slider is committed with `enter` or the typed value is confirmed. Values outside 0..100 are clamped first.\n\n")
	b.WriteString("Press `?` or `esc` to close.\n")
	return b.String()
}
