// Package notifier turns count transitions into user facing alerts.
package notifier

import (
	"fmt"

	"github.com/grovetools/runner/pkg/models"
)

const (
	TitleNeedsApproval   = "Needs Approval"
	TitleWaitingForInput = "Waiting for Input"
)

// Evaluate decides whether moving from old to new counts warrants an alert.
// Only a count leaving zero raises one, and permission takes precedence over
// waiting. sessions supplies the correlated session id. It holds no state;
// callers keep the previous counts.
func Evaluate(old, new models.StateCounts, sessions []models.SessionEntry) (models.Alert, bool) {
	if old == new {
		return models.Alert{}, false
	}

	if old.Permission == 0 && new.Permission > 0 {
		body := "1 session needs approval"
		if new.Permission > 1 {
			body = fmt.Sprintf("%d sessions need approval", new.Permission)
		}
		return models.NewAlert(models.AlertNeedsApproval, TitleNeedsApproval, body,
			correlate(sessions, models.StatePermission), new), true
	}

	if old.Waiting == 0 && new.Waiting > 0 {
		body := "1 session is waiting for input"
		if new.Waiting > 1 {
			body = fmt.Sprintf("%d sessions waiting for input", new.Waiting)
		}
		return models.NewAlert(models.AlertWaitingForInput, TitleWaitingForInput, body,
			correlate(sessions, models.StateWaiting), new), true
	}

	return models.Alert{}, false
}

func correlate(sessions []models.SessionEntry, state models.SessionState) string {
	if e, ok := models.FirstInState(sessions, state); ok {
		return e.ID
	}
	return ""
}
