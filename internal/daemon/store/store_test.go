package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/testutil"
)

var fixedNow = time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := New(Options{
		Dir:             dir,
		StaleThreshold:  600 * time.Second,
		SkipInitialLoad: true,
		Now:             func() time.Time { return fixedNow },
		Logger:          quietLogger(),
	})
	require.NoError(t, err)
	return s
}

func ids(snap models.Snapshot) []string {
	out := make([]string, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		out = append(out, e.ID)
	}
	return out
}

func TestReloadPrunesStaleWaiting(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSession(t, dir, "a", models.StateActive, fixedNow)
	stale := testutil.WriteSession(t, dir, "b", models.StateWaiting, fixedNow.Add(-11*time.Minute))

	s := newTestStore(t, dir)
	snap := s.Reload()

	assert.Equal(t, []string{"a"}, ids(snap))
	assert.Equal(t, models.StateCounts{Active: 1}, snap.Counts)
	assert.False(t, testutil.Exists(stale), "stale waiting file should be deleted")
}

func TestReloadNeverPrunesActiveOrPermission(t *testing.T) {
	dir := t.TempDir()
	old := fixedNow.Add(-48 * time.Hour)
	active := testutil.WriteSession(t, dir, "act", models.StateActive, old)
	perm := testutil.WriteSession(t, dir, "perm", models.StatePermission, old)
	fresh := testutil.WriteSession(t, dir, "wait", models.StateWaiting, fixedNow.Add(-9*time.Minute))

	s := newTestStore(t, dir)
	snap := s.Reload()

	assert.ElementsMatch(t, []string{"act", "perm", "wait"}, ids(snap))
	assert.True(t, testutil.Exists(active))
	assert.True(t, testutil.Exists(perm))
	assert.True(t, testutil.Exists(fresh))
}

func TestReloadOneEntryPerFileOrdered(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSession(t, dir, "a1", models.StateActive, fixedNow.Add(-3*time.Minute))
	testutil.WriteSession(t, dir, "a2", models.StateActive, fixedNow.Add(-1*time.Minute))
	testutil.WriteSession(t, dir, "w1", models.StateWaiting, fixedNow.Add(-5*time.Minute))
	testutil.WriteSession(t, dir, "p1", models.StatePermission, fixedNow.Add(-20*time.Minute))
	testutil.WriteSession(t, dir, "p2", models.StatePermission, fixedNow.Add(-2*time.Minute))

	s := newTestStore(t, dir)
	snap := s.Reload()

	assert.Equal(t, []string{"p2", "p1", "w1", "a2", "a1"}, ids(snap))
	assert.Equal(t, models.StateCounts{Active: 2, Waiting: 1, Permission: 2}, snap.Counts)
	assert.Equal(t, 5, snap.Counts.Total())

	dom, ok := snap.Dominant()
	require.True(t, ok)
	assert.Equal(t, models.StatePermission, dom)
}

func TestReloadIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSession(t, dir, "a", models.StateActive, fixedNow)
	testutil.WriteSession(t, dir, "w", models.StateWaiting, fixedNow.Add(-time.Minute))

	s := newTestStore(t, dir)
	first := s.Reload()
	second := s.Reload()

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Greater(t, second.Sequence, first.Sequence)
}

func TestReloadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSession(t, dir, "ok1", models.StateActive, fixedNow)
	testutil.WriteSession(t, dir, "ok2", models.StateWaiting, fixedNow)
	garbage := testutil.WriteRaw(t, dir, "garbage.json", "not json at all")
	partial := testutil.WriteRaw(t, dir, "partial.json", `{"session_id":"partial","cwd":"/tmp","sta`)
	badState := testutil.WriteRaw(t, dir, "bad.json", `{"session_id":"bad","cwd":"/tmp","state":"idle","updated_at":"2026-02-13T12:00:00Z"}`)
	mismatch := testutil.WriteRaw(t, dir, "other.json", `{"session_id":"ok1","cwd":"/tmp","state":"active","updated_at":"2026-02-13T12:00:00Z"}`)

	s := newTestStore(t, dir)
	snap := s.Reload()

	assert.ElementsMatch(t, []string{"ok1", "ok2"}, ids(snap))
	for _, p := range []string{garbage, partial, badState, mismatch} {
		assert.True(t, testutil.Exists(p), "%s must not be deleted", filepath.Base(p))
	}
}

func TestReloadMissingDirectoryPublishesEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	s := newTestStore(t, dir)

	_, err := os.Stat(dir)
	require.NoError(t, err, "New should create the directory")

	testutil.WriteSession(t, dir, "a", models.StateActive, fixedNow)
	require.Len(t, s.Reload().Entries, 1)

	require.NoError(t, os.RemoveAll(dir))
	snap := s.Reload()
	assert.Empty(t, snap.Entries)
	assert.Equal(t, models.StateCounts{}, snap.Counts)
}

func TestNewPerformsInitialLoad(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSession(t, dir, "a", models.StateActive, fixedNow)

	s, err := New(Options{Dir: dir, Logger: quietLogger(), Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	assert.Len(t, s.Current().Entries, 1)
	assert.Equal(t, DefaultStaleThreshold, s.StaleThreshold())

	skipped := newTestStore(t, dir)
	assert.Empty(t, skipped.Current().Entries)
}

func TestNewRejectsBadIgnorePattern(t *testing.T) {
	_, err := New(Options{Dir: t.TempDir(), Ignore: []string{"[unclosed"}, SkipInitialLoad: true, Logger: quietLogger()})
	assert.Error(t, err)
}

func TestIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteSession(t, dir, "keep", models.StateActive, fixedNow)
	testutil.WriteSession(t, dir, "scratch-1", models.StateActive, fixedNow)

	s, err := New(Options{Dir: dir, Ignore: []string{"scratch-*"}, SkipInitialLoad: true, Logger: quietLogger(), Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids(s.Reload()))
}

func TestSubscribeReceivesOnlyChanges(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	initial := <-ch
	assert.Empty(t, initial.Entries)

	testutil.WriteSession(t, dir, "a", models.StateActive, fixedNow)
	s.Reload()
	got := <-ch
	assert.Equal(t, []string{"a"}, ids(got))

	s.Reload()
	select {
	case snap := <-ch:
		t.Fatalf("unchanged reload should not notify, got sequence %d", snap.Sequence)
	default:
	}
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	ch := s.Subscribe()
	<-ch

	testutil.WriteSession(t, dir, "a", models.StateActive, fixedNow)
	s.Reload()
	testutil.WriteSession(t, dir, "b", models.StateActive, fixedNow)
	s.Reload()
	testutil.WriteSession(t, dir, "c", models.StatePermission, fixedNow)
	last := s.Reload()

	got := <-ch
	assert.Equal(t, last.Sequence, got.Sequence)
	assert.Len(t, got.Entries, 3)

	s.Unsubscribe(ch)
	s.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestConcurrentReloadsPublishConsistentSnapshots(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		state := models.AllStates[i%3]
		testutil.WriteSession(t, dir, "s"+string(rune('a'+i)), state, fixedNow.Add(-time.Duration(i)*time.Second))
	}
	s := newTestStore(t, dir)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Reload()
				snap := s.Current()
				assert.Equal(t, models.CountsOf(snap.Entries), snap.Counts)
				assert.Len(t, snap.Entries, 20)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(80), s.Current().Sequence)
}

func TestCloseClosesSubscribers(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ch := s.Subscribe()
	s.Close()

	<-ch
	_, open := <-ch
	assert.False(t, open)
}
