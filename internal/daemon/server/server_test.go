package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/internal/daemon/engine"
	"github.com/grovetools/runner/internal/daemon/notifier"
	"github.com/grovetools/runner/internal/daemon/store"
	"github.com/grovetools/runner/pkg/models"
	"github.com/grovetools/runner/testutil"
)

type fakeFocuser struct {
	err     error
	focused []string
}

func (f *fakeFocuser) Focus(ctx context.Context, entry models.SessionEntry) error {
	f.focused = append(f.focused, entry.ID)
	return f.err
}

type fixture struct {
	dir        string
	store      *store.Store
	dispatcher *notifier.Dispatcher
	server     *Server
	http       *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.NewEntry(logrus.New())
	dir := t.TempDir()

	st, err := store.New(store.Options{Dir: dir, Logger: logger, SkipInitialLoad: true})
	require.NoError(t, err)
	d := notifier.NewDispatcher(notifier.Options{Enabled: true, Logger: logger})

	srv := New(logger)
	srv.SetEngine(engine.New(st, d, logger))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{dir: dir, store: st, dispatcher: d, server: srv, http: ts}
}

func (f *fixture) getJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.http.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStateEndpoints(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	testutil.WriteSession(t, f.dir, "a", models.StateActive, now)
	testutil.WriteSession(t, f.dir, "b", models.StatePermission, now.Add(-time.Minute))
	f.store.Reload()

	var state models.StateResponse
	f.getJSON(t, "/api/state", &state)
	require.Len(t, state.Sessions, 2)
	assert.Equal(t, "b", state.Sessions[0].ID)
	assert.Equal(t, models.StatePermission, state.Dominant)
	assert.Equal(t, 2, state.Total)
	assert.Len(t, state.Digest, 16)

	var entries []models.SessionEntry
	f.getJSON(t, "/api/sessions", &entries)
	assert.Len(t, entries, 2)

	var counts models.StateCounts
	f.getJSON(t, "/api/counts", &counts)
	assert.Equal(t, models.StateCounts{Active: 1, Permission: 1}, counts)
}

func TestEmptyStateRendersEmptyList(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.http.URL + "/api/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "[]", string(raw))
}

func TestReloadIsSynchronous(t *testing.T) {
	f := newFixture(t)
	testutil.WriteSession(t, f.dir, "new", models.StateWaiting, time.Now())

	resp, err := http.Post(f.http.URL+"/api/reload", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var state models.StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "new", state.Sessions[0].ID)
	assert.Equal(t, 1, f.store.Current().Counts.Waiting)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.http.URL + "/api/reload")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStreamSendsCurrentThenChanges(t *testing.T) {
	f := newFixture(t)
	testutil.WriteSession(t, f.dir, "a", models.StateActive, time.Now())
	f.store.Reload()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.http.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	next := func() models.StateResponse {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var state models.StateResponse
				require.NoError(t, json.Unmarshal([]byte(data), &state))
				return state
			}
		}
	}

	first := next()
	require.Len(t, first.Sessions, 1)

	testutil.WriteSession(t, f.dir, "b", models.StatePermission, time.Now())
	f.store.Reload()

	second := next()
	assert.Len(t, second.Sessions, 2)
	assert.Greater(t, second.Sequence, first.Sequence)
}

func TestWebsocketPushesSnapshotsAndAlerts(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first struct {
		Type    models.MessageType    `json:"type"`
		Payload models.StateResponse `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.MsgSnapshot, first.Type)
	assert.Empty(t, first.Payload.Sessions)

	testutil.WriteSession(t, f.dir, "p", models.StatePermission, time.Now())
	snap := f.store.Reload()
	_, delivered := f.dispatcher.Observe(context.Background(), snap)
	require.True(t, delivered)

	seen := map[models.MessageType]json.RawMessage{}
	for len(seen) < 2 {
		var msg struct {
			Type    models.MessageType `json:"type"`
			Payload json.RawMessage    `json:"payload"`
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		seen[msg.Type] = msg.Payload
	}

	var alert models.Alert
	require.NoError(t, json.Unmarshal(seen[models.MsgAlert], &alert))
	assert.Equal(t, models.AlertNeedsApproval, alert.Kind)
	assert.Equal(t, "p", alert.SessionID)
}

func TestConfigEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/api/config")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	f.server.SetRunningConfig(&models.RunningConfig{PID: 42, SessionsDir: f.dir}, func() string { return "polling" })
	var cfg models.RunningConfig
	f.getJSON(t, "/api/config", &cfg)
	assert.Equal(t, 42, cfg.PID)
	assert.Equal(t, "polling", cfg.WatcherMode)
}

func TestFocus(t *testing.T) {
	f := newFixture(t)
	testutil.WriteSession(t, f.dir, "a", models.StateActive, time.Now(), testutil.Terminal("tmux", "/dev/pts/1"))
	f.store.Reload()

	post := func(id string) *http.Response {
		resp, err := http.Post(f.http.URL+"/api/sessions/"+id+"/focus", "application/json", nil)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	// No focuser configured.
	assert.Equal(t, http.StatusConflict, post("a").StatusCode)

	focuser := &fakeFocuser{}
	f.server.SetFocuser(focuser)
	assert.Equal(t, http.StatusNoContent, post("a").StatusCode)
	assert.Equal(t, []string{"a"}, focuser.focused)

	resp := post("missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body errors.RunnerError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, errors.ErrCodeSessionNotFound, body.Code)

	focuser.err = errors.FocusUnsupported("a", "tmux")
	assert.Equal(t, http.StatusConflict, post("a").StatusCode)

	focuser.err = errors.New(errors.ErrCodeInternal, "osascript exited 1")
	assert.Equal(t, http.StatusInternalServerError, post("a").StatusCode)
}

func TestListenAndServeOnUnixSocket(t *testing.T) {
	f := newFixture(t)
	socket := filepath.Join(testutil.ShortTempDir(t), "d.sock")

	errCh := make(chan error, 1)
	go func() { errCh <- f.server.ListenAndServe(socket) }()

	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://unix/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, f.server.Shutdown(context.Background()))
	assert.NoError(t, <-errCh)
}
