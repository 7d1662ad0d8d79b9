package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/tui/theme"
)

// List output formats.
const (
	formatTable = "table"
	formatTSV   = "tsv"
	formatJSON  = "json"
)

// listView carries what the list writers need besides the entries.
type listView struct {
	DisplayFormat models.DisplayFormat
	Home          string
	Now           time.Time
	Header        bool
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeEntries writes entries to w in the requested format.
func writeEntries(w io.Writer, entries []models.SessionEntry, format string, view listView) error {
	switch format {
	case formatTable:
		return writeEntriesTable(w, entries, view)
	case formatTSV:
		return writeEntriesTSV(w, entries, view)
	case formatJSON:
		if entries == nil {
			entries = []models.SessionEntry{}
		}
		return writeJSON(w, entries)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeEntriesTSV(w io.Writer, entries []models.SessionEntry, view listView) error {
	if view.Header {
		if _, err := fmt.Fprintln(w, "session_id\tstate\tproject\tpath\telapsed\tupdated_at"); err != nil {
			return err
		}
	}
	for _, e := range entries {
		line := strings.Join([]string{
			e.ID,
			string(e.State),
			escapeTabs(e.ProjectName()),
			escapeTabs(e.FormattedPath(view.DisplayFormat, view.Home)),
			e.ElapsedText(view.Now),
			e.UpdatedAt.Format(time.RFC3339),
		}, "\t")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeEntriesTable(w io.Writer, entries []models.SessionEntry, view listView) error {
	t := theme.DefaultTheme
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, t.Muted.Render("No active sessions."))
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			t.StateGlyph(e.State),
			e.ProjectName(),
			e.State.Label(),
			e.FormattedPath(view.DisplayFormat, view.Home),
			e.ElapsedText(view.Now),
		})
	}

	table := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border)).
		Headers("", "PROJECT", "STATE", "PATH", "ELAPSED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return t.Bold.Padding(0, 1)
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 3 {
				return style.Inherit(t.Muted)
			}
			return style
		})

	_, err := fmt.Fprintln(w, table.Render())
	return err
}

// writeCounts writes the one-line summary used by `runner status`.
func writeCounts(w io.Writer, counts models.StateCounts) error {
	t := theme.DefaultTheme
	dom, ok := counts.Dominant()
	if !ok {
		_, err := fmt.Fprintln(w, t.Muted.Render("No active sessions"))
		return err
	}

	parts := make([]string, 0, len(models.AllStates))
	for _, s := range models.AllStates {
		parts = append(parts, fmt.Sprintf("%s %d %s", t.StateGlyph(s), counts.Of(s), strings.ToLower(s.Label())))
	}
	_, err := fmt.Fprintf(w, "%s  %s\n", t.StateStyle(dom).Bold(true).Render(dom.Label()), strings.Join(parts, "  "))
	return err
}

func escapeTabs(text string) string {
	return strings.NewReplacer("\t", "\\t", "\n", "\\n").Replace(text)
}
