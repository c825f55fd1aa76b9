package tui

import "slices"

// SeedPicker targets project and clears any previous selection.
func (s *State) SeedPicker(project string) {
	s.modalProject = project
	s.selectedBacklogs = []string{}
}

// SelectBacklog moves an available backlog into the selection. Selecting twice is a no-op.
func (s *State) SelectBacklog(name string) {
	if slices.Contains(s.selectedBacklogs, name) {
		return
	}
	if !slices.Contains(s.projectBacklogs(), name) {
		return
	}
	s.selectedBacklogs = append(s.selectedBacklogs, name)
}

// DeselectBacklog returns a selected backlog to the available list.
func (s *State) DeselectBacklog(name string) {
	s.selectedBacklogs = slices.DeleteFunc(s.selectedBacklogs, func(v string) bool {
		return v == name
	})
}

// ToggleBacklog selects an available backlog or deselects a selected one.
func (s *State) ToggleBacklog(name string) {
	if slices.Contains(s.selectedBacklogs, name) {
		s.DeselectBacklog(name)
		return
	}
	s.SelectBacklog(name)
}

// SelectedBacklogs returns the selection in pick order.
func (s *State) SelectedBacklogs() []string {
	return slices.Clone(s.selectedBacklogs)
}

// AvailableBacklogs returns the modal project's backlogs minus the selection, in project order.
func (s *State) AvailableBacklogs() []string {
	all := s.projectBacklogs()
	out := make([]string, 0, len(all))
	for _, name := range all {
		if !slices.Contains(s.selectedBacklogs, name) {
			out = append(out, name)
		}
	}
	return out
}

func (s *State) projectBacklogs() []string {
	p, ok := s.Project(s.modalProject)
	if !ok {
		return nil
	}
	return p.Backlogs
}
