package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
	"github.com/uptimer-dev/uptimer/internal/domain/notification"
	"github.com/uptimer-dev/uptimer/internal/engine"
	"github.com/uptimer-dev/uptimer/internal/probe"
)

// ActivateSSL registers the recurring certificate check for an SSL monitor.
func (o *Orchestrator) ActivateSSL(m *monitor.SSLMonitor) error {
	if m.URL == "" {
		return fmt.Errorf("ssl monitor %q: url is required", m.Name)
	}

	freq := m.Frequency
	if freq <= 0 {
		freq = 30
	}

	id := m.ID
	name := m.JobName()
	o.sched.Schedule(name, o.timezone, freq, func(ctx context.Context) {
		o.sslTick(ctx, id, name)
	})
	o.log.Info("ssl monitor activated",
		zap.Int64("monitor_id", id),
		zap.String("job", name),
		zap.Int("frequency_sec", freq),
	)
	return nil
}

// ToggleSSL flips an SSL monitor's active flag.
func (o *Orchestrator) ToggleSSL(ctx context.Context, monitorID, userID int64, active bool) error {
	if err := o.sslMonitors.SetActive(ctx, monitorID, userID, active); err != nil {
		return fmt.Errorf("toggle ssl monitor: %w", err)
	}
	if active {
		return o.ResumeSSL(ctx, monitorID)
	}
	m, err := o.sslMonitors.GetByID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("toggle ssl monitor: %w", err)
	}
	o.sched.Cancel(m.JobName(), monitorID)
	o.track.Forget(engine.SSLAlertKey(monitorID))
	return nil
}

// ResumeSSL re-reads the SSL monitor and registers its job again.
func (o *Orchestrator) ResumeSSL(ctx context.Context, monitorID int64) error {
	m, err := o.sslMonitors.GetByID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("resume ssl monitor: %w", err)
	}
	return o.ActivateSSL(m)
}

// DeleteSSL removes an SSL monitor, job first.
func (o *Orchestrator) DeleteSSL(ctx context.Context, monitorID, userID int64) error {
	m, err := o.sslMonitors.GetByID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("delete ssl monitor: %w", err)
	}
	o.sched.Cancel(m.JobName(), monitorID)
	o.track.Forget(engine.SSLAlertKey(monitorID))

	if err := o.sslMonitors.Delete(ctx, monitorID); err != nil {
		return fmt.Errorf("delete ssl monitor: %w", err)
	}
	o.log.Info("ssl monitor deleted", zap.Int64("monitor_id", monitorID), zap.Int64("user_id", userID))
	return nil
}

// sslTick fetches and classifies the certificate, persists the serialized
// summary and feeds the alert tracker. A fetch failure or a danger tier
// counts toward the monitor's alert threshold; anything else recovers it.
func (o *Orchestrator) sslTick(ctx context.Context, monitorID int64, jobName string) {
	m, err := o.sslMonitors.GetByID(ctx, monitorID)
	if err != nil {
		o.log.Warn("ssl tick: read monitor", zap.Int64("monitor_id", monitorID), zap.Error(err))
		return
	}

	info, fetchErr := o.certFetch(ctx, m.URL)

	if ctx.Err() != nil || !o.sched.Active(jobName) {
		o.log.Debug("ssl tick: job gone, result discarded", zap.Int64("monitor_id", monitorID))
		return
	}

	if fetchErr != nil {
		o.log.Info("ssl check failed", zap.Int64("monitor_id", monitorID), zap.Error(fetchErr))
		mProbes.WithLabelValues("ssl", "down").Inc()
		if o.track.RecordFailure(engine.SSLAlertKey(m.ID), m.AlertThreshold) {
			o.dispatchAlert(ctx, m.NotificationID, notification.KindFailure, m.Name)
		}
		return
	}

	raw, err := json.Marshal(info)
	if err != nil {
		o.log.Warn("ssl tick: marshal info", zap.Int64("monitor_id", monitorID), zap.Error(err))
		return
	}
	if err := o.sslMonitors.UpdateInfo(ctx, m.ID, string(raw)); err != nil {
		o.log.Warn("ssl tick: persist info", zap.Int64("monitor_id", monitorID), zap.Error(err))
	}

	if info.Tier == probe.TierDanger {
		mProbes.WithLabelValues("ssl", "down").Inc()
		if o.track.RecordFailure(engine.SSLAlertKey(m.ID), m.AlertThreshold) {
			o.dispatchAlert(ctx, m.NotificationID, notification.KindFailure, m.Name)
		}
		return
	}

	mProbes.WithLabelValues("ssl", "up").Inc()
	if o.track.RecordSuccess(engine.SSLAlertKey(m.ID)) {
		o.dispatchAlert(ctx, m.NotificationID, notification.KindRecovery, m.Name)
	}
}
