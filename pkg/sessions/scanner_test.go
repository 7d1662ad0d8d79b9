package sessions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600))
}

func TestScannerListsJSONFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.json")
	touch(t, dir, "a.json")
	touch(t, dir, "notes.txt")
	touch(t, dir, "c.json.tmp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	s, err := NewScanner(dir, nil)
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, files)
}

func TestScannerIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "keep.json")
	touch(t, dir, "draft-1.json")
	touch(t, dir, "draft-2.json")

	s, err := NewScanner(dir, []string{"draft-*"})
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "keep.json")}, files)
}

func TestScannerMissingDirectory(t *testing.T) {
	s, err := NewScanner(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)

	_, err = s.List()
	assert.Error(t, err)
}

func TestGeneratedSchemaCompiles(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id"`)
	assert.Contains(t, string(data), `"date-time"`)
	assert.Contains(t, string(data), `"null"`)

	v, err := NewValidator()
	require.NoError(t, err)
	assert.Error(t, v.Validate(map[string]interface{}{"session_id": "x"}))
	assert.NoError(t, v.Validate(map[string]interface{}{
		"session_id": "x", "cwd": "/tmp", "state": "active",
		"updated_at": "2026-02-13T12:00:00Z", "tty": nil,
	}))
}
