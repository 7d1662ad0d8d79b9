// Package sessions reads the session files hook processes write to the
// sessions directory.
package sessions

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/pkg/models"
)

// Extension is the suffix every session file carries.
const Extension = ".json"

// File is the on-disk shape of a session file. The optional fields may be
// null, which reads the same as absent.
type File struct {
	SessionID        string  `json:"session_id" jsonschema:"required,minLength=1,description=Unique session identifier; must equal the file base name"`
	Cwd              string  `json:"cwd" jsonschema:"required,minLength=1,description=Working directory of the session"`
	State            string  `json:"state" jsonschema:"required,enum=active,enum=waiting,enum=permission,description=Current session state"`
	UpdatedAt        string  `json:"updated_at" jsonschema:"required,format=date-time,description=Time of the last write"`
	StartedAt        *string `json:"started_at,omitempty" jsonschema:"nullable,format=date-time,description=Time the session started"`
	TerminalBundleID string  `json:"terminal_bundle_id,omitempty" jsonschema:"nullable,description=Identifier of the terminal application hosting the session"`
	TTY              string  `json:"tty,omitempty" jsonschema:"nullable,description=Terminal device of the session"`
}

// IDFromPath returns the session id implied by a file name.
func IDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Extension)
}

// PathFor returns the file path of a session id inside dir.
func PathFor(dir, id string) string {
	return filepath.Join(dir, id+Extension)
}

// Load reads and decodes one session file.
func Load(path string) (models.SessionEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.SessionEntry{}, errors.SessionUnreadable(path, err)
	}
	return Decode(path, data)
}

// Decode validates data against the session schema and converts it to an
// entry. The file's base name must equal its session_id.
func Decode(path string, data []byte) (models.SessionEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.SessionEntry{}, errors.SessionInvalid(path, "empty file")
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.SessionEntry{}, errors.SessionInvalid(path, err.Error())
	}

	validator, err := defaultValidator()
	if err != nil {
		return models.SessionEntry{}, errors.Wrap(err, errors.ErrCodeInternal, "session schema unavailable")
	}
	if err := validator.Validate(doc); err != nil {
		return models.SessionEntry{}, errors.SessionInvalid(path, err.Error())
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return models.SessionEntry{}, errors.SessionInvalid(path, err.Error())
	}

	entry, err := f.Entry()
	if err != nil {
		return models.SessionEntry{}, errors.SessionInvalid(path, err.Error())
	}

	if fileID := IDFromPath(path); fileID != entry.ID {
		return models.SessionEntry{}, errors.SessionIDMismatch(path, fileID, entry.ID)
	}
	return entry, nil
}

// Entry converts the wire form into a SessionEntry.
func (f File) Entry() (models.SessionEntry, error) {
	state, err := models.ParseSessionState(f.State)
	if err != nil {
		return models.SessionEntry{}, err
	}
	updated, err := parseTime(f.UpdatedAt)
	if err != nil {
		return models.SessionEntry{}, err
	}

	entry := models.SessionEntry{
		ID:               f.SessionID,
		Cwd:              f.Cwd,
		State:            state,
		UpdatedAt:        updated,
		TerminalBundleID: f.TerminalBundleID,
		TTY:              f.TTY,
	}
	if f.StartedAt != nil {
		started, err := parseTime(*f.StartedAt)
		if err != nil {
			return models.SessionEntry{}, err
		}
		entry.StartedAt = &started
	}
	return entry, nil
}

// FileFrom is the inverse of Entry.
func FileFrom(e models.SessionEntry) File {
	f := File{
		SessionID:        e.ID,
		Cwd:              e.Cwd,
		State:            string(e.State),
		UpdatedAt:        e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		TerminalBundleID: e.TerminalBundleID,
		TTY:              e.TTY,
	}
	if e.StartedAt != nil {
		s := e.StartedAt.UTC().Format(time.RFC3339Nano)
		f.StartedAt = &s
	}
	return f
}

// Encode renders an entry in the session file format.
func Encode(e models.SessionEntry) ([]byte, error) {
	return json.MarshalIndent(FileFrom(e), "", "  ")
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
