// Package sessionlist is the live terminal view behind `runner watch`.
package sessionlist

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/tui/keymap"
	"github.com/grovetools/runner/tui/theme"
)

// Options wires the model to its data sources. Snapshots is required; the
// others are optional.
type Options struct {
	Initial   models.Snapshot
	Snapshots <-chan models.Snapshot
	Alerts    <-chan models.Alert
	// Focus brings a session's terminal to the front.
	Focus func(ctx context.Context, id string) error
	// Reload asks for a fresh snapshot; the result arrives on Snapshots.
	Reload func(ctx context.Context) error

	DisplayFormat models.DisplayFormat
	Home          string
	Now           func() time.Time
	Theme         *theme.Theme
	// KeyOverrides rebinds keys by snake_case name, e.g. "focus".
	KeyOverrides keymap.Overrides
}

// Model represents the state of the session list TUI.
type Model struct {
	opts   Options
	keys   KeyMap
	help   help.Model
	theme  *theme.Theme
	snap   models.Snapshot
	alert  *models.Alert
	status string
	now    time.Time

	cursor       int
	scrollOffset int
	width        int
	height       int
	disconnected bool
}

// New creates the model.
func New(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Theme == nil {
		opts.Theme = theme.DefaultTheme
	}
	if opts.DisplayFormat == "" {
		opts.DisplayFormat = models.DisplayFullPath
	}
	keys := DefaultKeyMap
	keymap.ApplyOverrides(&keys, opts.KeyOverrides)
	h := help.New()
	h.Styles.ShortKey = opts.Theme.Accent
	h.Styles.FullKey = opts.Theme.Accent
	return &Model{
		opts:  opts,
		keys:  keys,
		help:  h,
		theme: opts.Theme,
		snap:  opts.Initial,
		now:   opts.Now(),
	}
}

// Init starts the clock and the stream readers.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.opts.Snapshots != nil {
		cmds = append(cmds, waitForSnapshot(m.opts.Snapshots))
	}
	if m.opts.Alerts != nil {
		cmds = append(cmds, waitForAlert(m.opts.Alerts))
	}
	return tea.Batch(cmds...)
}

// Snapshot is the snapshot currently displayed.
func (m *Model) Snapshot() models.Snapshot {
	return m.snap
}

// Selected returns the entry under the cursor.
func (m *Model) Selected() (models.SessionEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Entries) {
		return models.SessionEntry{}, false
	}
	return m.snap.Entries[m.cursor], true
}
