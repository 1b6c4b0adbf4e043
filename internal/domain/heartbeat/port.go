package heartbeat

import (
	"context"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

// Repo stores heartbeats partitioned by protocol type. Windowed queries
// return rows newest-first.
type Repo interface {
	Insert(ctx context.Context, t monitor.Type, hb *Heartbeat) error
	ListByDuration(ctx context.Context, t monitor.Type, monitorID int64, hours int) ([]*Heartbeat, error)
	DeleteByMonitor(ctx context.Context, t monitor.Type, monitorID int64) error
}
