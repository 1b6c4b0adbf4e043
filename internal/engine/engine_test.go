package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/domain/heartbeat"
	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
	"github.com/uptimer-dev/uptimer/internal/probe"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeMonitors struct {
	monitor.Repo
	updated []monitor.Monitor
}

func (f *fakeMonitors) UpdateStatus(_ context.Context, m *monitor.Monitor) error {
	f.updated = append(f.updated, *m)
	return nil
}

type fakeHeartbeats struct {
	heartbeat.Repo
	rows []heartbeat.Heartbeat
}

func (f *fakeHeartbeats) Insert(_ context.Context, _ monitor.Type, hb *heartbeat.Heartbeat) error {
	f.rows = append(f.rows, *hb)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeMonitors, *fakeHeartbeats) {
	t.Helper()
	mons := &fakeMonitors{}
	hbs := &fakeHeartbeats{}
	clock := &stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(zap.NewNop(), mons, hbs, clock), mons, hbs
}

func httpMonitor() *monitor.Monitor {
	return &monitor.Monitor{
		ID:         7,
		Name:       "api",
		Type:       monitor.TypeHTTP,
		URL:        "http://api.local/health",
		Connection: monitor.ConnectionEstablished,
	}
}

func up() probe.Outcome {
	return probe.Outcome{Status: probe.StatusEstablished, Message: "HTTP responded with 200 OK", Code: 200}
}

func down() probe.Outcome {
	return probe.Outcome{Status: probe.StatusRefused, Message: "HTTP connection failed", Code: 500}
}

func TestRecord_LastChangedOnlyOnFlip(t *testing.T) {
	eng, _, hbs := newTestEngine(t)
	m := httpMonitor()
	ctx := context.Background()

	var changes []time.Time
	prev := m.LastChanged
	steps := []struct {
		out probe.Outcome
		err error
	}{
		{up(), nil},
		{up(), nil},
		{down(), context.DeadlineExceeded},
		{down(), context.DeadlineExceeded},
		{up(), nil},
	}
	for _, s := range steps {
		_, _, err := eng.Record(ctx, m, s.out, s.err)
		require.NoError(t, err)
		if !m.LastChanged.Equal(prev) {
			changes = append(changes, m.LastChanged)
			prev = m.LastChanged
		}
	}

	require.Len(t, changes, 2, "one flip down, one flip up")
	require.Len(t, hbs.rows, 5)
	require.Equal(t, monitor.StatusUp, m.Status)
}

func TestRecord_AssertionFailure(t *testing.T) {
	eng, mons, hbs := newTestEngine(t)
	m := httpMonitor()

	out := probe.Outcome{Status: probe.StatusRefused, Message: "will be replaced", Code: 500}
	hb, failed, err := eng.Record(context.Background(), m, out, nil)
	require.NoError(t, err)
	require.True(t, failed)
	require.Equal(t, "Failed HTTP response assertion", hb.Message)
	require.Equal(t, monitor.StatusDown, hb.Status)
	require.Equal(t, monitor.StatusDown, m.Status)
	require.Len(t, mons.updated, 1)
	require.Len(t, hbs.rows, 1)
}

func TestRecord_ProbeErrorKeepsDriverMessage(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	m := httpMonitor()
	m.Type = monitor.TypeTCP

	out := probe.Outcome{Status: probe.StatusRefused, Message: "TCP socket timed out", Code: 500}
	hb, failed, err := eng.Record(context.Background(), m, out, context.DeadlineExceeded)
	require.NoError(t, err)
	require.True(t, failed)
	require.Equal(t, "TCP socket timed out", hb.Message)
}

func TestRecord_TimestampsNonDecreasing(t *testing.T) {
	eng, _, hbs := newTestEngine(t)
	m := httpMonitor()

	for i := 0; i < 5; i++ {
		_, _, err := eng.Record(context.Background(), m, up(), nil)
		require.NoError(t, err)
	}
	for i := 1; i < len(hbs.rows); i++ {
		require.False(t, hbs.rows[i].Timestamp.Before(hbs.rows[i-1].Timestamp))
	}
}

func TestUptime(t *testing.T) {
	require.Equal(t, 0, Uptime(nil))

	var hbs []*heartbeat.Heartbeat
	for i := 0; i < 10; i++ {
		st := monitor.StatusUp
		if i < 3 {
			st = monitor.StatusDown
		}
		hbs = append(hbs, &heartbeat.Heartbeat{Status: st})
	}
	require.Equal(t, 70, Uptime(hbs))

	all := []*heartbeat.Heartbeat{{Status: monitor.StatusUp}, {Status: monitor.StatusUp}}
	require.Equal(t, 100, Uptime(all))

	third := []*heartbeat.Heartbeat{
		{Status: monitor.StatusUp},
		{Status: monitor.StatusUp},
		{Status: monitor.StatusDown},
	}
	require.Equal(t, 67, Uptime(third))
}

func TestTracker_FiresOncePastThreshold(t *testing.T) {
	tr := NewTracker()
	key, threshold := MonitorAlertKey(1), 3

	for i := 0; i < threshold; i++ {
		require.False(t, tr.RecordFailure(key, threshold), "failure %d must stay silent", i+1)
	}
	require.True(t, tr.RecordFailure(key, threshold), "crossing fires exactly once")
	for i := 0; i < 5; i++ {
		require.False(t, tr.RecordFailure(key, threshold), "latched, no refire")
	}

	require.True(t, tr.RecordSuccess(key), "first success after alert recovers")
	require.False(t, tr.RecordSuccess(key), "second success stays silent")
}

func TestTracker_SuccessBeforeAlertKeepsCount(t *testing.T) {
	tr := NewTracker()
	key, threshold := MonitorAlertKey(2), 2

	require.False(t, tr.RecordFailure(key, threshold))
	require.False(t, tr.RecordSuccess(key), "no alert pending, nothing to recover")
	require.False(t, tr.RecordFailure(key, threshold))
	require.True(t, tr.RecordFailure(key, threshold), "count survived the interleaved success")
}

func TestTracker_ZeroThresholdDisablesAlerts(t *testing.T) {
	tr := NewTracker()
	key := MonitorAlertKey(3)
	for i := 0; i < 10; i++ {
		require.False(t, tr.RecordFailure(key, 0))
	}
	require.False(t, tr.RecordSuccess(key))
}

func TestTracker_ForgetResetsState(t *testing.T) {
	tr := NewTracker()
	key, threshold := MonitorAlertKey(4), 1

	require.False(t, tr.RecordFailure(key, threshold))
	require.True(t, tr.RecordFailure(key, threshold))
	tr.Forget(key)

	require.False(t, tr.RecordSuccess(key), "forgotten monitor has no pending alert")
	require.False(t, tr.RecordFailure(key, threshold))
	require.True(t, tr.RecordFailure(key, threshold), "counting starts over after forget")
}

func TestTracker_IndependentPerMonitor(t *testing.T) {
	tr := NewTracker()

	require.False(t, tr.RecordFailure(MonitorAlertKey(1), 1))
	require.False(t, tr.RecordFailure(MonitorAlertKey(2), 1))
	require.True(t, tr.RecordFailure(MonitorAlertKey(1), 1))
	require.True(t, tr.RecordFailure(MonitorAlertKey(2), 1), "monitors never share counters")
}

func TestTracker_SeparatesMonitorAndSSLIDSpaces(t *testing.T) {
	tr := NewTracker()
	ssl := SSLAlertKey(1)
	mon := MonitorAlertKey(1)

	require.False(t, tr.RecordFailure(ssl, 1))
	require.True(t, tr.RecordFailure(ssl, 1))

	require.False(t, tr.RecordSuccess(mon), "same id in the other namespace has no pending alert")
	require.False(t, tr.RecordFailure(mon, 1), "counter starts fresh despite the colliding id")

	require.True(t, tr.RecordSuccess(ssl), "the ssl alert is still pending")
}
