package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/domain/heartbeat"
	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
	"github.com/uptimer-dev/uptimer/internal/domain/notification"
	"github.com/uptimer-dev/uptimer/internal/probe"
)

// Engine turns probe outcomes into heartbeats and status transitions.
type Engine struct {
	log        *zap.Logger
	monitors   monitor.Repo
	heartbeats heartbeat.Repo
	clock      notification.Clock
}

func New(log *zap.Logger, monitors monitor.Repo, heartbeats heartbeat.Repo, clock notification.Clock) *Engine {
	return &Engine{
		log:        log.With(zap.String("component", "engine")),
		monitors:   monitors,
		heartbeats: heartbeats,
		clock:      clock,
	}
}

// Record applies one probe outcome to a monitor. The success assertion is
// outcome.Status == monitor.Connection, not raw transport success; probeErr
// marks a probe-level failure whose message is already in the outcome.
// Returns the persisted heartbeat and whether the result counts as a
// failure. The monitor's Status and LastChanged are updated in place;
// LastChanged moves only on a genuine up/down transition.
func (e *Engine) Record(ctx context.Context, m *monitor.Monitor, out probe.Outcome, probeErr error) (*heartbeat.Heartbeat, bool, error) {
	now := e.clock.Now().UTC()

	hb := &heartbeat.Heartbeat{
		MonitorID:    m.ID,
		Timestamp:    now,
		Status:       monitor.StatusUp,
		Code:         out.Code,
		Message:      out.Message,
		ResponseTime: out.ResponseTime,
		Connection:   out.Status,
	}

	failed := false
	switch {
	case probeErr != nil:
		failed = true
	case out.Status != m.Connection:
		failed = true
		hb.Message = fmt.Sprintf("Failed %s response assertion", protocolLabel(m.Type))
	}
	if failed {
		hb.Status = monitor.StatusDown
	}

	prev := m.Status
	if failed {
		m.Status = monitor.StatusDown
		if prev == monitor.StatusUp {
			m.LastChanged = now
		}
	} else {
		m.Status = monitor.StatusUp
		if prev == monitor.StatusDown {
			m.LastChanged = now
		}
	}

	var errs []error
	if err := e.monitors.UpdateStatus(ctx, m); err != nil {
		errs = append(errs, fmt.Errorf("update monitor status: %w", err))
	}
	if err := e.heartbeats.Insert(ctx, m.Type, hb); err != nil {
		errs = append(errs, fmt.Errorf("insert heartbeat: %w", err))
	}

	if failed {
		e.log.Info("heartbeat failed",
			zap.Int64("monitor_id", m.ID),
			zap.String("type", string(m.Type)),
			zap.String("message", hb.Message),
		)
	} else {
		e.log.Debug("heartbeat ok",
			zap.Int64("monitor_id", m.ID),
			zap.String("type", string(m.Type)),
			zap.Int64("response_ms", hb.ResponseTime),
		)
	}

	return hb, failed, errors.Join(errs...)
}

func protocolLabel(t monitor.Type) string {
	switch t {
	case monitor.TypeHTTP:
		return "HTTP"
	case monitor.TypeTCP:
		return "TCP"
	case monitor.TypeMongoDB:
		return "MongoDB"
	case monitor.TypeRedis:
		return "Redis"
	case monitor.TypePostgres:
		return "PostgreSQL"
	}
	return string(t)
}
