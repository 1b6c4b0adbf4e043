package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/domain/broadcast"
	"github.com/uptimer-dev/uptimer/internal/domain/heartbeat"
	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
	"github.com/uptimer-dev/uptimer/internal/domain/notification"
	"github.com/uptimer-dev/uptimer/internal/engine"
)

// autoRefreshInterval drives near-real-time dashboard updates.
const autoRefreshInterval = 10

// recentHeartbeatCount limits how many heartbeats ride along with each
// published monitor.
const recentHeartbeatCount = 16

// MonitorView is a monitor enriched for the broadcast channel: rolling
// uptime over 24h, its most recent heartbeats and the resolved notification
// group.
type MonitorView struct {
	monitor.Monitor
	Uptime        int                    `json:"uptime"`
	Heartbeats    []*heartbeat.Heartbeat `json:"heartbeats"`
	Notifications *notification.Group    `json:"notifications,omitempty"`
}

// MonitorsUpdated is the payload published under the monitors-updated topic.
type MonitorsUpdated struct {
	UserID   int64         `json:"user_id"`
	Monitors []MonitorView `json:"monitors"`
}

// AutoRefreshJobName derives the per-user refresh job key. Session parsing
// belongs to the API layer; the core only ever sees the user id.
func AutoRefreshJobName(userID int64) string {
	return fmt.Sprintf("autorefresh-%d", userID)
}

// AutoRefresh schedules (or cancels) the fixed 10-second job that
// republishes a user's active monitor set on the broadcast channel,
// independent of the individual monitor jobs.
func (o *Orchestrator) AutoRefresh(userID int64, enable bool) {
	name := AutoRefreshJobName(userID)
	if !enable {
		o.sched.Cancel(name)
		o.log.Info("auto-refresh disabled", zap.Int64("user_id", userID))
		return
	}

	o.sched.Schedule(name, o.timezone, autoRefreshInterval, func(ctx context.Context) {
		o.refreshTick(ctx, userID)
	})
	o.log.Info("auto-refresh enabled", zap.Int64("user_id", userID))
}

func (o *Orchestrator) refreshTick(ctx context.Context, userID int64) {
	views, err := o.ActiveMonitorViews(ctx, userID)
	if err != nil {
		o.log.Warn("auto-refresh: build views", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	payload := MonitorsUpdated{UserID: userID, Monitors: views}
	if err := o.bus.Publish(ctx, broadcast.TopicMonitorsUpdated, payload); err != nil {
		o.log.Warn("auto-refresh: publish", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ActiveMonitorViews loads a user's active monitors enriched with uptime,
// recent heartbeats and their notification groups.
func (o *Orchestrator) ActiveMonitorViews(ctx context.Context, userID int64) ([]MonitorView, error) {
	monitors, err := o.monitors.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list active monitors: %w", err)
	}

	views := make([]MonitorView, 0, len(monitors))
	for _, m := range monitors {
		hbs, err := o.heartbeats.ListByDuration(ctx, m.Type, m.ID, 24)
		if err != nil {
			return nil, fmt.Errorf("heartbeats for monitor %d: %w", m.ID, err)
		}
		v := MonitorView{
			Monitor: *m,
			Uptime:  engine.Uptime(hbs),
		}
		if len(hbs) > recentHeartbeatCount {
			hbs = hbs[:recentHeartbeatCount]
		}
		v.Heartbeats = hbs

		if m.NotificationID > 0 {
			group, err := o.groups.GetByID(ctx, m.NotificationID)
			if err != nil {
				o.log.Warn("view: read notification group",
					zap.Int64("monitor_id", m.ID), zap.Error(err))
			} else {
				v.Notifications = group
			}
		}
		views = append(views, v)
	}
	return views, nil
}
