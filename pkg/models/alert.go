package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind identifies which transition raised an alert.
type AlertKind string

const (
	AlertNeedsApproval   AlertKind = "needs_approval"
	AlertWaitingForInput AlertKind = "waiting_for_input"
)

// Alert is a user facing notification raised on a state transition.
type Alert struct {
	ID        string      `json:"id"`
	Kind      AlertKind   `json:"kind"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	SessionID string      `json:"session_id,omitempty"`
	Counts    StateCounts `json:"counts"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewAlert stamps an alert with a fresh id and creation time.
func NewAlert(kind AlertKind, title, body, sessionID string, counts StateCounts) Alert {
	return Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Body:      body,
		SessionID: sessionID,
		Counts:    counts,
		CreatedAt: time.Now(),
	}
}
