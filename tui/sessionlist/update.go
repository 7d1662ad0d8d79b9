package sessionlist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/runner/pkg/models"
)

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case snapshotMsg:
		m.setSnapshot(models.Snapshot(msg))
		return m, waitForSnapshot(m.opts.Snapshots)

	case streamClosedMsg:
		m.disconnected = true
		m.status = "daemon connection closed"
		return m, nil

	case alertMsg:
		alert := models.Alert(msg)
		m.alert = &alert
		return m, waitForAlert(m.opts.Alerts)

	case focusDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("focus %s: %v", msg.id, msg.err)
		} else {
			m.status = ""
		}
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("reload: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Entries)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.Bottom):
		if n := len(m.snap.Entries); n > 0 {
			m.cursor = n - 1
			m.ensureCursorVisible()
		}

	case key.Matches(msg, m.keys.Focus):
		entry, ok := m.Selected()
		if !ok || m.opts.Focus == nil {
			return m, nil
		}
		m.status = "focusing " + entry.ProjectName() + "…"
		return m, focusCmd(m.opts.Focus, entry.ID)

	case key.Matches(msg, m.keys.Reload):
		if m.opts.Reload == nil {
			return m, nil
		}
		return m, reloadCmd(m.opts.Reload)
	}
	return m, nil
}

// setSnapshot replaces the displayed snapshot, keeping the cursor on the
// same session when it is still present.
func (m *Model) setSnapshot(snap models.Snapshot) {
	selected, hadSelection := m.Selected()
	m.snap = snap
	m.disconnected = false

	if hadSelection {
		for i, e := range snap.Entries {
			if e.ID == selected.ID {
				m.cursor = i
				m.ensureCursorVisible()
				return
			}
		}
	}
	if m.cursor >= len(snap.Entries) {
		m.cursor = len(snap.Entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// listHeight is the number of rows available for sessions.
func (m *Model) listHeight() int {
	const chrome = 6
	if m.height <= chrome {
		return len(m.snap.Entries)
	}
	return m.height - chrome
}

// ensureCursorVisible adjusts the scroll offset to ensure the cursor is visible
func (m *Model) ensureCursorVisible() {
	rows := m.listHeight()
	if rows <= 0 {
		return
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+rows {
		m.scrollOffset = m.cursor - rows + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}
