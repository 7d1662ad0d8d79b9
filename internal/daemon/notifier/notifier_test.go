package notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/runner/command"
	"github.com/grovetools/runner/pkg/models"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestEvaluate(t *testing.T) {
	perm := models.SessionEntry{ID: "p", State: models.StatePermission}
	wait := models.SessionEntry{ID: "w", State: models.StateWaiting}
	act := models.SessionEntry{ID: "a", State: models.StateActive}

	tests := []struct {
		name      string
		old, new  models.StateCounts
		sessions  []models.SessionEntry
		wantAlert bool
		title     string
		body      string
		sessionID string
	}{
		{
			name:      "permission 0 to 1",
			old:       models.StateCounts{Permission: 0, Waiting: 1, Active: 2},
			new:       models.StateCounts{Permission: 1, Waiting: 1, Active: 2},
			sessions:  []models.SessionEntry{perm, wait, act},
			wantAlert: true,
			title:     "Needs Approval",
			body:      "1 session needs approval",
			sessionID: "p",
		},
		{
			name:      "permission 0 to 3 is plural",
			old:       models.StateCounts{},
			new:       models.StateCounts{Permission: 3},
			sessions:  []models.SessionEntry{perm},
			wantAlert: true,
			title:     "Needs Approval",
			body:      "3 sessions need approval",
			sessionID: "p",
		},
		{
			name: "permission 1 to 2 does not fire",
			old:  models.StateCounts{Permission: 1},
			new:  models.StateCounts{Permission: 2},
		},
		{
			name: "equal counts never fire",
			old:  models.StateCounts{Permission: 1, Waiting: 1},
			new:  models.StateCounts{Permission: 1, Waiting: 1},
		},
		{
			name:      "waiting 0 to 1",
			old:       models.StateCounts{Active: 1},
			new:       models.StateCounts{Waiting: 1},
			sessions:  []models.SessionEntry{wait},
			wantAlert: true,
			title:     "Waiting for Input",
			body:      "1 session is waiting for input",
			sessionID: "w",
		},
		{
			name:      "waiting 0 to 2 is plural",
			old:       models.StateCounts{},
			new:       models.StateCounts{Waiting: 2},
			sessions:  []models.SessionEntry{wait},
			wantAlert: true,
			title:     "Waiting for Input",
			body:      "2 sessions waiting for input",
			sessionID: "w",
		},
		{
			name:      "permission suppresses waiting in the same transition",
			old:       models.StateCounts{},
			new:       models.StateCounts{Permission: 1, Waiting: 1},
			sessions:  []models.SessionEntry{wait, perm},
			wantAlert: true,
			title:     "Needs Approval",
			sessionID: "p",
			body:      "1 session needs approval",
		},
		{
			name: "only active changed",
			old:  models.StateCounts{Active: 1},
			new:  models.StateCounts{Active: 4},
		},
		{
			name: "waiting increases from nonzero",
			old:  models.StateCounts{Waiting: 1},
			new:  models.StateCounts{Waiting: 2},
		},
		{
			name:      "no matching session leaves id empty",
			old:       models.StateCounts{},
			new:       models.StateCounts{Waiting: 1},
			wantAlert: true,
			title:     "Waiting for Input",
			body:      "1 session is waiting for input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, ok := Evaluate(tt.old, tt.new, tt.sessions)
			require.Equal(t, tt.wantAlert, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.title, alert.Title)
			assert.Equal(t, tt.body, alert.Body)
			assert.Equal(t, tt.sessionID, alert.SessionID)
			assert.Equal(t, tt.new, alert.Counts)
			assert.NotEmpty(t, alert.ID)
		})
	}
}

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	alerts []models.Alert
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, a models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func snapshot(entries ...models.SessionEntry) models.Snapshot {
	return models.NewSnapshot(entries, 1, time.Now())
}

func TestDispatcherStartsFromZeroCounts(t *testing.T) {
	primary := &recordingSink{name: "primary"}
	d := NewDispatcher(Options{Enabled: true, Chain: []Sink{primary}, Logger: quietLogger()})

	alert, ok := d.Observe(context.Background(), snapshot(models.SessionEntry{ID: "w", State: models.StateWaiting}))
	require.True(t, ok, "first snapshot with a waiting session alerts")
	assert.Equal(t, "w", alert.SessionID)
	assert.Equal(t, 1, primary.count())

	_, ok = d.Observe(context.Background(), snapshot(models.SessionEntry{ID: "w", State: models.StateWaiting}))
	assert.False(t, ok)
	assert.Equal(t, models.StateCounts{Waiting: 1}, d.Previous())
}

func TestDispatcherFallsBackThroughChain(t *testing.T) {
	desktop := &recordingSink{name: "desktop", err: errors.New("no notifier")}
	bell := &recordingSink{name: "bell"}
	never := &recordingSink{name: "never"}
	audit := &recordingSink{name: "log"}

	d := NewDispatcher(Options{
		Enabled: true,
		Chain:   []Sink{desktop, bell, never},
		Always:  []Sink{audit},
		Logger:  quietLogger(),
	})

	_, ok := d.Observe(context.Background(), snapshot(models.SessionEntry{ID: "p", State: models.StatePermission}))
	require.True(t, ok)
	assert.Equal(t, 1, desktop.count())
	assert.Equal(t, 1, bell.count())
	assert.Equal(t, 0, never.count(), "chain stops at the first successful sink")
	assert.Equal(t, 1, audit.count())
}

func TestDispatcherDisabledStillTracksCounts(t *testing.T) {
	sink := &recordingSink{name: "primary"}
	d := NewDispatcher(Options{Enabled: false, Chain: []Sink{sink}, Logger: quietLogger()})

	_, ok := d.Observe(context.Background(), snapshot(models.SessionEntry{ID: "p", State: models.StatePermission}))
	assert.False(t, ok)
	assert.Equal(t, 0, sink.count())
	assert.Equal(t, models.StateCounts{Permission: 1}, d.Previous())

	d.SetEnabled(true)
	_, ok = d.Observe(context.Background(), snapshot(models.SessionEntry{ID: "p", State: models.StatePermission}))
	assert.False(t, ok, "enabling later does not replay an old transition")
}

func TestDispatcherBroadcastsToSubscribers(t *testing.T) {
	d := NewDispatcher(Options{Enabled: true, Logger: quietLogger()})
	ch := d.Subscribe()

	_, ok := d.Observe(context.Background(), snapshot(models.SessionEntry{ID: "w", State: models.StateWaiting}))
	require.True(t, ok)

	select {
	case a := <-ch:
		assert.Equal(t, models.AlertWaitingForInput, a.Kind)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive alert")
	}

	d.Unsubscribe(ch)
	d.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestBellSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBellSink(&buf).Deliver(context.Background(), models.Alert{}))
	assert.Equal(t, "\a", buf.String())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	alert := models.NewAlert(models.AlertNeedsApproval, "Needs Approval", "1 session needs approval", "p", models.StateCounts{Permission: 1})
	require.NoError(t, NewLogSink(logrus.NewEntry(l)).Deliver(context.Background(), alert))
	assert.Contains(t, buf.String(), "Needs Approval: 1 session needs approval")
	assert.Contains(t, buf.String(), "session=p")
}

func TestDesktopSinkLinux(t *testing.T) {
	fake := command.NewFakeExecutor()
	s := &DesktopSink{goos: "linux", runner: command.NewRunnerWithExecutor(fake)}
	assert.True(t, s.Available())

	alert := models.Alert{Kind: models.AlertNeedsApproval, Title: "Needs Approval", Body: "1 session\nneeds approval"}
	require.NoError(t, s.Deliver(context.Background(), alert))

	calls := fake.Recorded()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, "notify-send", call[0])
	assert.Contains(t, call, "--urgency=critical")
	assert.Equal(t, "1 session needs approval", call[len(call)-1])
}

func TestDesktopSinkDarwinEscapesScript(t *testing.T) {
	fake := command.NewFakeExecutor()
	s := &DesktopSink{goos: "darwin", runner: command.NewRunnerWithExecutor(fake)}

	alert := models.Alert{Title: `Say "hi"`, Body: "body"}
	require.NoError(t, s.Deliver(context.Background(), alert))

	calls := fake.Recorded()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, []string{"osascript", "-e"}, call[:2])
	assert.True(t, strings.Contains(call[2], `with title "Say \"hi\""`), call[2])
}

func TestDesktopSinkUnavailable(t *testing.T) {
	fake := command.NewFakeExecutor()
	fake.Missing["notify-send"] = true
	s := &DesktopSink{goos: "linux", runner: command.NewRunnerWithExecutor(fake)}
	assert.False(t, s.Available())
	assert.Error(t, s.Deliver(context.Background(), models.Alert{}))
	assert.Empty(t, fake.Recorded())

	unsupported := &DesktopSink{goos: "plan9", runner: command.NewRunnerWithExecutor(fake)}
	assert.False(t, unsupported.Available())
	assert.Error(t, unsupported.Deliver(context.Background(), models.Alert{}))
}

func TestDesktopSinkCommandFailure(t *testing.T) {
	fake := command.NewFakeExecutor()
	fake.Failing["notify-send"] = true
	s := &DesktopSink{goos: "linux", runner: command.NewRunnerWithExecutor(fake)}
	assert.Error(t, s.Deliver(context.Background(), models.Alert{Title: "t", Body: "b"}))
}
