package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionState(t *testing.T) {
	for _, s := range []string{"active", "waiting", "permission"} {
		got, err := ParseSessionState(s)
		require.NoError(t, err)
		assert.Equal(t, s, got.String())
	}

	for _, s := range []string{"", "Active", "idle", "done"} {
		_, err := ParseSessionState(s)
		assert.Error(t, err, "state %q should be rejected", s)
	}
}

func TestSessionStateUnmarshalRejectsUnknown(t *testing.T) {
	var s SessionState
	assert.Error(t, json.Unmarshal([]byte(`"sleeping"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`3`), &s))

	require.NoError(t, json.Unmarshal([]byte(`"permission"`), &s))
	assert.Equal(t, StatePermission, s)
}

func TestPriorityOrder(t *testing.T) {
	assert.Less(t, StateActive.Priority(), StateWaiting.Priority())
	assert.Less(t, StateWaiting.Priority(), StatePermission.Priority())
	assert.Equal(t, 0, SessionState("bogus").Priority())
}

func TestReferenceTime(t *testing.T) {
	updated := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	started := updated.Add(-90 * time.Minute)

	t.Run("prefers started_at when present", func(t *testing.T) {
		e := SessionEntry{UpdatedAt: updated, StartedAt: &started}
		assert.Equal(t, started, e.ReferenceTime())
		assert.Equal(t, "1h 30m", e.ElapsedText(updated))
	})

	t.Run("falls back to updated_at", func(t *testing.T) {
		e := SessionEntry{UpdatedAt: updated}
		assert.Equal(t, updated, e.ReferenceTime())
		assert.Equal(t, "< 1m", e.ElapsedText(updated.Add(30*time.Second)))
	})
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "< 1m"},
		{59 * time.Second, "< 1m"},
		{time.Minute, "1m"},
		{59 * time.Minute, "59m"},
		{time.Hour, "1h"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.d), "duration %s", tt.d)
	}
}

func TestElapsedNeverNegative(t *testing.T) {
	now := time.Now()
	e := SessionEntry{UpdatedAt: now.Add(time.Minute)}
	assert.Equal(t, time.Duration(0), e.Elapsed(now))
}

func TestFormattedPath(t *testing.T) {
	e := SessionEntry{Cwd: "/home/dev/src/runner"}

	tests := []struct {
		name   string
		format DisplayFormat
		home   string
		want   string
	}{
		{"full path abbreviates home", DisplayFullPath, "/home/dev", "~/src/runner"},
		{"full path without home", DisplayFullPath, "", "/home/dev/src/runner"},
		{"home prefix must be a directory", DisplayFullPath, "/home/de", "/home/dev/src/runner"},
		{"directory only", DisplayDirectoryOnly, "/home/dev", "runner"},
		{"last two dirs", DisplayLastTwoDirs, "/home/dev", "src/runner"},
		{"unknown format behaves as full path", DisplayFormat("weird"), "", "/home/dev/src/runner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.FormattedPath(tt.format, tt.home))
		})
	}

	short := SessionEntry{Cwd: "/runner"}
	assert.Equal(t, "runner", short.FormattedPath(DisplayLastTwoDirs, ""))
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "api", SessionEntry{Cwd: "/work/api"}.ProjectName())
	assert.Equal(t, "api", SessionEntry{Cwd: "/work/api/"}.ProjectName())
	assert.Equal(t, "/", SessionEntry{Cwd: "/"}.ProjectName())
}

func TestSortEntries(t *testing.T) {
	now := time.Now()
	entries := []SessionEntry{
		{ID: "old-active", State: StateActive, UpdatedAt: now.Add(-2 * time.Minute)},
		{ID: "waiting", State: StateWaiting, UpdatedAt: now.Add(-time.Hour)},
		{ID: "new-active", State: StateActive, UpdatedAt: now},
		{ID: "perm", State: StatePermission, UpdatedAt: now.Add(-3 * time.Hour)},
	}

	SortEntries(entries)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"perm", "waiting", "new-active", "old-active"}, ids)

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			assert.False(t, Less(entries[j], entries[i]), "%s should not precede %s", entries[j].ID, entries[i].ID)
		}
	}
}

func TestCountsAndDominant(t *testing.T) {
	var empty StateCounts
	_, ok := empty.Dominant()
	assert.False(t, ok)
	assert.Equal(t, 0, empty.Total())

	c := CountsOf([]SessionEntry{
		{State: StateActive}, {State: StateActive}, {State: StateWaiting},
	})
	assert.Equal(t, StateCounts{Active: 2, Waiting: 1}, c)
	assert.Equal(t, c.Active+c.Waiting+c.Permission, c.Total())

	dom, ok := c.Dominant()
	require.True(t, ok)
	assert.Equal(t, StateWaiting, dom)

	c.Permission = 1
	dom, _ = c.Dominant()
	assert.Equal(t, StatePermission, dom)
}

func TestSnapshotDigest(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	build := func() []SessionEntry {
		return []SessionEntry{
			{ID: "a", Cwd: "/a", State: StateActive, UpdatedAt: now},
			{ID: "b", Cwd: "/b", State: StateWaiting, UpdatedAt: now},
		}
	}

	s1 := NewSnapshot(build(), 1, now)
	s2 := NewSnapshot(build(), 2, now.Add(time.Second))
	assert.Equal(t, s1.Digest, s2.Digest, "same entries must fingerprint identically")
	assert.Equal(t, "b", s1.Entries[0].ID)

	changed := build()
	changed[0].State = StatePermission
	s3 := NewSnapshot(changed, 3, now)
	assert.NotEqual(t, s1.Digest, s3.Digest)

	empty := NewSnapshot(nil, 0, now)
	assert.NotNil(t, empty.Entries)
	assert.Equal(t, 0, empty.Counts.Total())
}

func TestNewAlert(t *testing.T) {
	a := NewAlert(AlertNeedsApproval, "Needs Approval", "1 session needs approval", "s1", StateCounts{Permission: 1})
	b := NewAlert(AlertNeedsApproval, "Needs Approval", "1 session needs approval", "s1", StateCounts{Permission: 1})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}
