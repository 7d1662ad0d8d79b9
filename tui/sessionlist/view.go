package sessionlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/runner/pkg/models"
)

// View renders the header, the session rows, the latest alert and help.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderRows())

	if m.alert != nil {
		b.WriteString("\n")
		b.WriteString(m.theme.Warning.Render("! " + m.alert.Title))
		if m.alert.Body != "" {
			b.WriteString(m.theme.Muted.Render("  " + m.alert.Body))
		}
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Muted.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.theme.Header.Render("RUNNER")
	counts := m.snap.Counts
	if counts.Total() == 0 {
		return title + "  " + m.theme.Muted.Render("no active sessions")
	}

	parts := make([]string, 0, len(models.AllStates))
	for _, s := range models.AllStates {
		if n := counts.Of(s); n > 0 {
			parts = append(parts, m.theme.StateStyle(s).Render(fmt.Sprintf("%d %s", n, strings.ToLower(s.Label()))))
		}
	}

	header := title
	if dom, ok := counts.Dominant(); ok {
		header += " " + m.theme.StateGlyph(dom)
	}
	header += "  " + strings.Join(parts, m.theme.Muted.Render(" · "))
	if m.disconnected {
		header += "  " + m.theme.Error.Render("(disconnected)")
	}
	return header
}

func (m *Model) renderRows() string {
	entries := m.snap.Entries
	if len(entries) == 0 {
		return m.theme.Muted.Render("  Sessions appear here when a hook writes to the sessions directory.") + "\n"
	}

	nameWidth := 0
	for _, e := range entries {
		if n := lipgloss.Width(e.ProjectName()); n > nameWidth {
			nameWidth = n
		}
	}

	start := m.scrollOffset
	end := start + m.listHeight()
	if end > len(entries) {
		end = len(entries)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		e := entries[i]
		name := e.ProjectName()
		name += strings.Repeat(" ", nameWidth-lipgloss.Width(name))
		path := e.FormattedPath(m.opts.DisplayFormat, m.opts.Home)
		elapsed := e.ElapsedText(m.now)

		row := fmt.Sprintf("%s %s  %s  %s", m.theme.StateGlyph(e.State), name,
			m.theme.Muted.Render(path), m.theme.Muted.Render(elapsed))
		if i == m.cursor {
			b.WriteString(m.theme.Accent.Render("> ") + m.theme.Selected.Render(row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}
	if len(entries) > end-start {
		b.WriteString(m.theme.Muted.Render(fmt.Sprintf("  %d-%d of %d sessions", start+1, end, len(entries))))
		b.WriteString("\n")
	}
	return b.String()
}
