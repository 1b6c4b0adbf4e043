package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

func TestSchedule_FirstTickIsImmediate(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var ticks atomic.Int32
	s.Schedule("immediate", "UTC", 3600, func(context.Context) {
		ticks.Add(1)
	})

	waitFor(t, time.Second, func() bool { return ticks.Load() == 1 })
	require.True(t, s.Active("immediate"))
	require.Equal(t, 1, s.Len())
}

func TestSchedule_ReplaceCancelsPrevious(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	v1Done := make(chan struct{})
	s.Schedule("job", "UTC", 3600, func(ctx context.Context) {
		<-ctx.Done()
		close(v1Done)
	})

	var v2 atomic.Int32
	s.Schedule("job", "UTC", 3600, func(context.Context) {
		v2.Add(1)
	})

	select {
	case <-v1Done:
	case <-time.After(2 * time.Second):
		t.Fatal("previous task was not canceled on replace")
	}
	waitFor(t, time.Second, func() bool { return v2.Load() == 1 })
	require.Equal(t, 1, s.Len(), "replacement never duplicates the job")
}

func TestCancel_StopsJobBeforeNextTick(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var ticks atomic.Int32
	s.Schedule("short", "UTC", 1, func(context.Context) {
		ticks.Add(1)
	})
	waitFor(t, time.Second, func() bool { return ticks.Load() >= 1 })

	s.Cancel("short")
	require.False(t, s.Active("short"))

	seen := ticks.Load()
	time.Sleep(1500 * time.Millisecond)
	require.Equal(t, seen, ticks.Load(), "no ticks after cancel")
}

func TestCancel_TriesIDQualifiedName(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	s.Schedule("web-7", "UTC", 3600, func(context.Context) {})
	require.True(t, s.Active("web-7"))

	s.Cancel("web", 7)
	require.False(t, s.Active("web-7"))
}

func TestSchedule_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var ticks atomic.Int32
	s.Schedule("tzless", "Not/AZone", 3600, func(context.Context) {
		ticks.Add(1)
	})
	waitFor(t, time.Second, func() bool { return ticks.Load() == 1 })
}

func TestTick_PanicDoesNotKillJob(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var ticks atomic.Int32
	s.Schedule("flaky", "UTC", 1, func(context.Context) {
		if ticks.Add(1) == 1 {
			panic("boom")
		}
	})

	waitFor(t, 3*time.Second, func() bool { return ticks.Load() >= 2 })
	require.True(t, s.Active("flaky"))
}

func TestStop_WaitsForInFlightTicks(t *testing.T) {
	s := New(zap.NewNop())

	started := make(chan struct{})
	var finished atomic.Bool
	s.Schedule("slow", "UTC", 3600, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	s.Stop()
	require.True(t, finished.Load(), "Stop returned before the tick finished")
	require.Equal(t, 0, s.Len())
}
