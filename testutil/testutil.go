package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grovetools/runner/pkg/models"
)

// SessionOption customises a session written by WriteSession.
type SessionOption func(map[string]interface{})

// StartedAt sets the optional started_at field.
func StartedAt(t time.Time) SessionOption {
	return func(doc map[string]interface{}) {
		doc["started_at"] = t.UTC().Format(time.RFC3339Nano)
	}
}

// Terminal sets terminal_bundle_id and tty.
func Terminal(bundleID, tty string) SessionOption {
	return func(doc map[string]interface{}) {
		doc["terminal_bundle_id"] = bundleID
		doc["tty"] = tty
	}
}

// Cwd overrides the default working directory.
func Cwd(dir string) SessionOption {
	return func(doc map[string]interface{}) {
		doc["cwd"] = dir
	}
}

// Field sets an arbitrary top-level field.
func Field(key string, value interface{}) SessionOption {
	return func(doc map[string]interface{}) {
		doc[key] = value
	}
}

// WriteSession writes <id>.json into dir in the hook file format and returns its path.
func WriteSession(t *testing.T, dir, id string, state models.SessionState, updatedAt time.Time, opts ...SessionOption) string {
	t.Helper()

	doc := map[string]interface{}{
		"session_id": id,
		"cwd":        filepath.Join("/work", id),
		"state":      string(state),
		"updated_at": updatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, opt := range opts {
		opt(doc)
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return WriteRaw(t, dir, id+".json", string(data))
}

// WriteRaw writes arbitrary content to dir/name and returns its path.
func WriteRaw(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

// ShortTempDir returns a temporary directory with a short path, suitable for
// unix sockets whose path length is limited.
func ShortTempDir(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "rn-"+RandomString(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}
