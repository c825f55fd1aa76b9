package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// defaultToastDuration is how long a notification stays visible.
const defaultToastDuration = 2400 * time.Millisecond

// toast is one transient notification.
type toast struct {
	id      int
	text    string
	isError bool
}

// toastExpiredMsg hides the toast with the matching id.
type toastExpiredMsg struct {
	id int
}

// showToast replaces the visible notification and schedules its expiry.
// A non-positive duration keeps the toast until the next one replaces it.
func (m *Model) showToast(text string, isError bool) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toast = toast{id: id, text: text, isError: isError}
	if m.toastDuration <= 0 {
		return nil
	}
	return tea.Tick(m.toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// failToast shows err as an error notification and logs it at debug level.
func (m *Model) failToast(op string, err error) tea.Cmd {
	if m.logger != nil {
		m.logger.Debug("request failed", "op", op, "err", err)
	}
	return m.showToast(err.Error(), true)
}

// expireToast hides the toast only when id is still the visible one.
func (m *Model) expireToast(id int) {
	if m.toast.id == id {
		m.toast = toast{}
	}
}

// renderToast renders the visible notification, or an empty string.
func (m Model) renderToast() string {
	if m.toast.text == "" {
		return ""
	}
	style := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	if m.toast.isError {
		style = style.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160"))
	} else {
		style = style.Foreground(lipgloss.Color("16")).Background(lipgloss.Color("114"))
	}
	return style.Render(m.toast.text)
}
