package sessionlist

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/runner/pkg/models"
)

const (
	tickInterval  = time.Second
	actionTimeout = 5 * time.Second
)

type snapshotMsg models.Snapshot

type alertMsg models.Alert

// streamClosedMsg reports that the snapshot stream ended, usually because
// the daemon stopped.
type streamClosedMsg struct{}

type tickMsg time.Time

type focusDoneMsg struct {
	id  string
	err error
}

type reloadDoneMsg struct {
	err error
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForSnapshot(ch <-chan models.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// waitForAlert returns nil once the channel closes so the reader stops.
func waitForAlert(ch <-chan models.Alert) tea.Cmd {
	return func() tea.Msg {
		alert, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg(alert)
	}
}

func focusCmd(focus func(context.Context, string) error, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return focusDoneMsg{id: id, err: focus(ctx, id)}
	}
}

func reloadCmd(reload func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return reloadDoneMsg{err: reload(ctx)}
	}
}
