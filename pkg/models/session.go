package models

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SessionState is the state an external hook reports for a session.
type SessionState string

const (
	StateActive     SessionState = "active"
	StateWaiting    SessionState = "waiting"
	StatePermission SessionState = "permission"
)

// AllStates lists the states from most to least urgent.
var AllStates = []SessionState{StatePermission, StateWaiting, StateActive}

// ParseSessionState converts a raw string into a SessionState.
// Unknown values are an error; there is no default state.
func ParseSessionState(s string) (SessionState, error) {
	switch SessionState(s) {
	case StateActive, StateWaiting, StatePermission:
		return SessionState(s), nil
	}
	return "", fmt.Errorf("unknown session state %q", s)
}

// Priority orders states: active < waiting < permission.
func (s SessionState) Priority() int {
	switch s {
	case StatePermission:
		return 3
	case StateWaiting:
		return 2
	case StateActive:
		return 1
	}
	return 0
}

func (s SessionState) String() string {
	return string(s)
}

// Label is the human readable name used in lists and notifications.
func (s SessionState) Label() string {
	switch s {
	case StatePermission:
		return "Needs Approval"
	case StateWaiting:
		return "Waiting"
	case StateActive:
		return "Running"
	}
	return "Unknown"
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	if s.Priority() == 0 {
		return nil, fmt.Errorf("unknown session state %q", string(s))
	}
	return json.Marshal(string(s))
}

func (s *SessionState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSessionState(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DisplayFormat selects how a session's working directory is rendered.
type DisplayFormat string

const (
	DisplayFullPath      DisplayFormat = "full_path"
	DisplayDirectoryOnly DisplayFormat = "directory_only"
	DisplayLastTwoDirs   DisplayFormat = "last_two_dirs"
)

// Valid reports whether f is one of the known display formats.
func (f DisplayFormat) Valid() bool {
	switch f {
	case DisplayFullPath, DisplayDirectoryOnly, DisplayLastTwoDirs:
		return true
	}
	return false
}

// SessionEntry is one externally managed session, rebuilt from its file on every
// reload. Entries are values; a rewritten file produces a new entry with the same ID.
type SessionEntry struct {
	ID               string       `json:"session_id"`
	Cwd              string       `json:"cwd"`
	State            SessionState `json:"state"`
	UpdatedAt        time.Time    `json:"updated_at"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	TerminalBundleID string       `json:"terminal_bundle_id,omitempty"`
	TTY              string       `json:"tty,omitempty"`
}

// ProjectName is the last path component of the working directory.
func (e SessionEntry) ProjectName() string {
	trimmed := strings.TrimRight(e.Cwd, "/")
	if trimmed == "" {
		return e.Cwd
	}
	return filepath.Base(trimmed)
}

// ReferenceTime is the session start time when the hook recorded one,
// otherwise the time of the last update.
func (e SessionEntry) ReferenceTime() time.Time {
	if e.StartedAt != nil {
		return *e.StartedAt
	}
	return e.UpdatedAt
}

// Elapsed is the time since ReferenceTime, never negative.
func (e SessionEntry) Elapsed(now time.Time) time.Duration {
	d := now.Sub(e.ReferenceTime())
	if d < 0 {
		return 0
	}
	return d
}

// Age is the time since the last update, used for staleness.
func (e SessionEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.UpdatedAt)
}

// ElapsedText renders Elapsed as "< 1m", "Nm", "Nh" or "Nh Mm".
func (e SessionEntry) ElapsedText(now time.Time) string {
	return FormatElapsed(e.Elapsed(now))
}

// FormatElapsed renders a duration the way the session list shows it.
func FormatElapsed(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 1 {
		return "< 1m"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// FormattedPath renders Cwd according to format. home, when non-empty, is
// abbreviated to "~" in full_path mode.
func (e SessionEntry) FormattedPath(format DisplayFormat, home string) string {
	switch format {
	case DisplayDirectoryOnly:
		return e.ProjectName()
	case DisplayLastTwoDirs:
		parts := strings.Split(strings.Trim(e.Cwd, "/"), "/")
		if len(parts) >= 2 {
			return strings.Join(parts[len(parts)-2:], "/")
		}
		return e.ProjectName()
	default:
		home = strings.TrimRight(home, "/")
		if home != "" && (e.Cwd == home || strings.HasPrefix(e.Cwd, home+"/")) {
			return "~" + strings.TrimPrefix(e.Cwd, home)
		}
		return e.Cwd
	}
}

// Less reports whether a sorts before b: higher priority first, then the more
// recently updated one.
func Less(a, b SessionEntry) bool {
	pa, pb := a.State.Priority(), b.State.Priority()
	if pa != pb {
		return pa > pb
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

// SortEntries orders entries in place by Less.
func SortEntries(entries []SessionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// FindByID returns the entry with the given id.
func FindByID(entries []SessionEntry, id string) (SessionEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return SessionEntry{}, false
}

// FirstInState returns the first entry in the given state.
func FirstInState(entries []SessionEntry, state SessionState) (SessionEntry, bool) {
	for _, e := range entries {
		if e.State == state {
			return e, true
		}
	}
	return SessionEntry{}, false
}
