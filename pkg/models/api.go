package models

import (
	"fmt"
	"time"
)

// StateResponse is the body of GET /api/state and of every stream message
// carrying a snapshot.
type StateResponse struct {
	Sessions    []SessionEntry `json:"sessions"`
	Counts      StateCounts    `json:"counts"`
	Total       int            `json:"total"`
	Dominant    SessionState   `json:"dominant,omitempty"`
	Sequence    uint64         `json:"sequence"`
	Digest      string         `json:"digest"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// NewStateResponse renders a snapshot for the API.
func NewStateResponse(s Snapshot) StateResponse {
	resp := StateResponse{
		Sessions:    s.Entries,
		Counts:      s.Counts,
		Total:       s.Counts.Total(),
		Sequence:    s.Sequence,
		Digest:      fmt.Sprintf("%016x", s.Digest),
		GeneratedAt: s.GeneratedAt,
	}
	if resp.Sessions == nil {
		resp.Sessions = []SessionEntry{}
	}
	if dom, ok := s.Counts.Dominant(); ok {
		resp.Dominant = dom
	}
	return resp
}

// Snapshot converts the response back into a Snapshot. The digest is
// recomputed from the entries.
func (r StateResponse) Snapshot() Snapshot {
	entries := r.Sessions
	if entries == nil {
		entries = []SessionEntry{}
	}
	return Snapshot{
		Entries:     entries,
		Counts:      r.Counts,
		Sequence:    r.Sequence,
		GeneratedAt: r.GeneratedAt,
		Digest:      DigestOf(entries),
	}
}

// MessageType tags websocket messages.
type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgAlert    MessageType = "alert"
)

// StreamMessage is one websocket frame.
type StreamMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// RunningConfig is the active daemon configuration exposed at /api/config.
type RunningConfig struct {
	PID                 int           `json:"pid"`
	SessionsDir         string        `json:"sessions_dir"`
	StaleTimeout        time.Duration `json:"stale_timeout"`
	Debounce            time.Duration `json:"debounce"`
	PollInterval        time.Duration `json:"poll_interval"`
	SweepInterval       time.Duration `json:"sweep_interval"`
	WatcherMode         string        `json:"watcher_mode"`
	NotifyOnStateChange bool          `json:"notify_on_state_change"`
	DisplayFormat       DisplayFormat `json:"display_format"`
	StartedAt           time.Time     `json:"started_at"`
}
