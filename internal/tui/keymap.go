package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	toggle        key.Binding
	newProject    key.Binding
	addBacklog    key.Binding
	addTodo       key.Binding
	removeBacklog key.Binding
	deleteProject key.Binding
	progressDown  key.Binding
	progressUp    key.Binding
	editProgress  key.Binding
	copyName      key.Binding
	closeModal    key.Binding
	pickerFocus   key.Binding
	pickerToggle  key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		toggle:        key.NewBinding(key.WithKeys("enter", " ", "space"), key.WithHelp("enter", "open/close • commit")),
		newProject:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new project")),
		addBacklog:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "add backlog")),
		addTodo:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "add to do")),
		removeBacklog: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove backlog")),
		deleteProject: key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "delete project")),
		progressDown:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "slider down")),
		progressUp:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "slider up")),
		editProgress:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "type progress")),
		copyName:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy project name")),
		closeModal:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "close dialog")),
		pickerFocus:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch list")),
		pickerToggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pick backlog")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.toggle, k.newProject, k.addBacklog, k.addTodo, k.deleteProject, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.toggle, k.reload, k.toggleHelp, k.quit},
		{k.newProject, k.addBacklog, k.addTodo, k.removeBacklog, k.deleteProject, k.copyName},
		{k.progressDown, k.progressUp, k.editProgress, k.pickerFocus, k.pickerToggle, k.closeModal},
	}
}

// KeyConfig overrides action keys. Blank fields keep the defaults.
type KeyConfig struct {
	NewProject    string
	AddBacklog    string
	AddTodo       string
	RemoveBacklog string
	DeleteProject string
	CopyName      string
}

// applyConfig rebinds the configurable actions.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.newProject, cfg.NewProject, "N", "new project")
	configureBinding(&k.addBacklog, cfg.AddBacklog, "b", "add backlog")
	configureBinding(&k.addTodo, cfg.AddTodo, "t", "add to do")
	configureBinding(&k.removeBacklog, cfg.RemoveBacklog, "x", "remove backlog")
	configureBinding(&k.deleteProject, cfg.DeleteProject, "D", "delete project")
	configureBinding(&k.copyName, cfg.CopyName, "y", "copy project name")
}

// configureBinding replaces one binding's keys and help text.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns one configured key into matcher keys plus its help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}
