package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/domain/broadcast"
	"github.com/uptimer-dev/uptimer/internal/domain/heartbeat"
	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
	"github.com/uptimer-dev/uptimer/internal/domain/notification"
	"github.com/uptimer-dev/uptimer/internal/engine"
	"github.com/uptimer-dev/uptimer/internal/probe"
	"github.com/uptimer-dev/uptimer/internal/scheduler"
)

// Deps wires the orchestrator to the core components and collaborator ports.
type Deps struct {
	Log         *zap.Logger
	Scheduler   *scheduler.Scheduler
	Engine      *engine.Engine
	Tracker     *engine.Tracker
	Monitors    monitor.Repo
	SSLMonitors monitor.SSLRepo
	Heartbeats  heartbeat.Repo
	Groups      notification.Repo
	Mailer      notification.EmailSender
	Bus         broadcast.Publisher

	// CertFetch defaults to probe.FetchCertificate.
	CertFetch func(ctx context.Context, url string) (*probe.CertInfo, error)

	Timezone string
	Locals   notification.Locals
}

var (
	mProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uptimer_probes_total", Help: "Probe results by monitor type and result",
	}, []string{"type", "result"})
	mAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uptimer_alerts_total", Help: "Alert notifications dispatched by kind",
	}, []string{"kind"})
	mLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "uptimer_probe_duration_seconds", Help: "Probe round-trip time",
		Buckets: prometheus.DefBuckets,
	})
)

// Orchestrator is the core's entry point: it dispatches monitors to probe
// drivers through the scheduler and wires results into the engine, the alert
// tracker and the collaborator ports.
type Orchestrator struct {
	log   *zap.Logger
	sched *scheduler.Scheduler
	eng   *engine.Engine
	track *engine.Tracker

	monitors    monitor.Repo
	sslMonitors monitor.SSLRepo
	heartbeats  heartbeat.Repo
	groups      notification.Repo
	mailer      notification.EmailSender
	bus         broadcast.Publisher
	certFetch   func(ctx context.Context, url string) (*probe.CertInfo, error)

	timezone string
	locals   notification.Locals
}

func New(d Deps) *Orchestrator {
	if d.CertFetch == nil {
		d.CertFetch = probe.FetchCertificate
	}
	return &Orchestrator{
		log:         d.Log.With(zap.String("component", "orchestrator")),
		sched:       d.Scheduler,
		eng:         d.Engine,
		track:       d.Tracker,
		monitors:    d.Monitors,
		sslMonitors: d.SSLMonitors,
		heartbeats:  d.Heartbeats,
		groups:      d.Groups,
		mailer:      d.Mailer,
		bus:         d.Bus,
		certFetch:   d.CertFetch,
		timezone:    d.Timezone,
		locals:      d.Locals,
	}
}

// Activate validates the monitor's configuration and registers its recurring
// probe job. A configuration fault is the only error a caller ever sees; no
// job is created for it. Used at creation, at toggle-on and at startup
// replay.
func (o *Orchestrator) Activate(m *monitor.Monitor) error {
	t, err := monitor.ParseType(string(m.Type))
	if err != nil {
		return err
	}
	if m.URL == "" {
		return fmt.Errorf("monitor %q: url is required", m.Name)
	}
	prober := probe.ForType(t)
	if prober == nil {
		return fmt.Errorf("no probe driver for type %q", t)
	}

	freq := m.Frequency
	if freq <= 0 {
		freq = 30
	}

	id := m.ID
	name := m.JobName()
	o.sched.Schedule(name, o.timezone, freq, func(ctx context.Context) {
		o.probeTick(ctx, id, name, prober)
	})
	o.log.Info("monitor activated",
		zap.Int64("monitor_id", id),
		zap.String("job", name),
		zap.String("type", string(t)),
		zap.Int("frequency_sec", freq),
	)
	return nil
}

// Deactivate cancels the monitor's job. The optional ids qualify the name
// when several monitors share a lowercased base name.
func (o *Orchestrator) Deactivate(name string, ids ...int64) {
	o.sched.Cancel(name, ids...)
}

// Toggle flips a monitor's active flag, starting or stopping its job.
func (o *Orchestrator) Toggle(ctx context.Context, monitorID, userID int64, active bool) error {
	if err := o.monitors.SetActive(ctx, monitorID, userID, active); err != nil {
		return fmt.Errorf("toggle monitor: %w", err)
	}
	if active {
		return o.Resume(ctx, monitorID)
	}
	m, err := o.monitors.GetByID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("toggle monitor: %w", err)
	}
	o.sched.Cancel(m.JobName(), monitorID)
	o.track.Forget(engine.MonitorAlertKey(monitorID))
	return nil
}

// Resume re-reads the monitor and registers its job again.
func (o *Orchestrator) Resume(ctx context.Context, monitorID int64) error {
	m, err := o.monitors.GetByID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("resume monitor: %w", err)
	}
	return o.Activate(m)
}

// Delete removes a monitor. Its job is canceled before any rows go away so
// an in-flight probe cannot race the cascade delete of its heartbeats.
func (o *Orchestrator) Delete(ctx context.Context, monitorID, userID int64) error {
	m, err := o.monitors.GetByID(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	o.sched.Cancel(m.JobName(), monitorID)
	o.track.Forget(engine.MonitorAlertKey(monitorID))

	if err := o.heartbeats.DeleteByMonitor(ctx, m.Type, monitorID); err != nil {
		return fmt.Errorf("delete heartbeats: %w", err)
	}
	if err := o.monitors.Delete(ctx, monitorID); err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	o.log.Info("monitor deleted", zap.Int64("monitor_id", monitorID), zap.Int64("user_id", userID))
	return nil
}

// StartupReplay re-registers jobs for every persisted active monitor and SSL
// monitor across all users. Registrations are staggered by a small random
// delay so a restart does not stampede every target at once.
func (o *Orchestrator) StartupReplay(ctx context.Context) error {
	active, err := o.monitors.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active monitors: %w", err)
	}
	for _, m := range active {
		if err := o.Activate(m); err != nil {
			o.log.Warn("replay skipped monitor", zap.Int64("monitor_id", m.ID), zap.Error(err))
		}
		stagger(ctx)
	}

	ssl, err := o.sslMonitors.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active ssl monitors: %w", err)
	}
	for _, m := range ssl {
		if err := o.ActivateSSL(m); err != nil {
			o.log.Warn("replay skipped ssl monitor", zap.Int64("monitor_id", m.ID), zap.Error(err))
		}
		stagger(ctx)
	}

	o.log.Info("startup replay done",
		zap.Int("monitors", len(active)),
		zap.Int("ssl_monitors", len(ssl)),
	)
	return nil
}

// probeTick is one scheduled probe: re-read config, probe, record, alert.
// The tick context dies when the job is canceled or replaced; results of a
// dead tick are discarded before anything is persisted.
func (o *Orchestrator) probeTick(ctx context.Context, monitorID int64, jobName string, prober probe.Prober) {
	m, err := o.monitors.GetByID(ctx, monitorID)
	if err != nil {
		o.log.Warn("tick: read monitor", zap.Int64("monitor_id", monitorID), zap.Error(err))
		return
	}

	out, probeErr := prober.Probe(ctx, m)
	mLatency.Observe(float64(out.ResponseTime) / 1000)

	if ctx.Err() != nil || !o.sched.Active(jobName) {
		o.log.Debug("tick: job gone, result discarded", zap.Int64("monitor_id", monitorID))
		return
	}

	_, failed, recErr := o.eng.Record(ctx, m, out, probeErr)
	if recErr != nil {
		o.log.Warn("tick: record", zap.Int64("monitor_id", monitorID), zap.Error(recErr))
	}

	result := "up"
	if failed {
		result = "down"
	}
	mProbes.WithLabelValues(string(m.Type), result).Inc()

	if failed {
		if o.track.RecordFailure(engine.MonitorAlertKey(m.ID), m.AlertThreshold) {
			o.dispatchAlert(ctx, m.NotificationID, notification.KindFailure, m.Name)
		}
		return
	}
	if o.track.RecordSuccess(engine.MonitorAlertKey(m.ID)) {
		o.dispatchAlert(ctx, m.NotificationID, notification.KindRecovery, m.Name)
	}
}

// dispatchAlert resolves the notification group and hands the alert to the
// email collaborator. Fire-and-forget: failures are logged, never surfaced
// into the probing path.
func (o *Orchestrator) dispatchAlert(ctx context.Context, groupID int64, kind notification.Kind, appName string) {
	group, err := o.groups.GetByID(ctx, groupID)
	if err != nil {
		o.log.Warn("alert: read notification group", zap.Int64("group_id", groupID), zap.Error(err))
		return
	}
	locals := o.locals
	locals.AppName = appName

	if err := o.mailer.Send(ctx, kind, group.Emails, locals); err != nil {
		o.log.Warn("alert: send", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	mAlerts.WithLabelValues(string(kind)).Inc()
	o.log.Info("alert dispatched",
		zap.String("kind", string(kind)),
		zap.Int("recipients", len(group.Emails)),
	)
}

func stagger(ctx context.Context) {
	delay := time.Duration(300+rand.Intn(701)) * time.Millisecond
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}
