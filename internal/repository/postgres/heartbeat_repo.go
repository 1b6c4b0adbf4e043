package postgres

import (
	"context"
	"fmt"

	"github.com/uptimer-dev/uptimer/internal/domain/heartbeat"
	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

var _ heartbeat.Repo = (*HeartbeatRepoImpl)(nil)

// HeartbeatRepoImpl partitions heartbeats into one table per protocol type.
// Rows are append-only; the only delete is the batch cascade when a monitor
// goes away.
type HeartbeatRepoImpl struct {
	db *DB
}

func NewHeartbeatRepo(db *DB) *HeartbeatRepoImpl { return &HeartbeatRepoImpl{db: db} }

// tableFor maps the closed type set onto its partition. Table names are
// compile-time constants, never derived from input.
func tableFor(t monitor.Type) (string, error) {
	switch t {
	case monitor.TypeHTTP:
		return "heartbeats_http", nil
	case monitor.TypeTCP:
		return "heartbeats_tcp", nil
	case monitor.TypeMongoDB:
		return "heartbeats_mongodb", nil
	case monitor.TypeRedis:
		return "heartbeats_redis", nil
	case monitor.TypePostgres:
		return "heartbeats_postgres", nil
	}
	return "", fmt.Errorf("no heartbeat table for type %q", t)
}

func (r *HeartbeatRepoImpl) Insert(ctx context.Context, t monitor.Type, hb *heartbeat.Heartbeat) error {
	table, err := tableFor(t)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := fmt.Sprintf(`
INSERT INTO %s (monitor_id, ts, status, code, message, response_ms, connection)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id;`, table)

	if err := r.db.Pool.QueryRow(ctx, q,
		hb.MonitorID, hb.Timestamp, hb.Status, hb.Code, hb.Message, hb.ResponseTime, hb.Connection,
	).Scan(&hb.ID); err != nil {
		return fmt.Errorf("insert heartbeat: %w", err)
	}
	return nil
}

func (r *HeartbeatRepoImpl) ListByDuration(ctx context.Context, t monitor.Type, monitorID int64, hours int) ([]*heartbeat.Heartbeat, error) {
	table, err := tableFor(t)
	if err != nil {
		return nil, err
	}
	if hours <= 0 {
		hours = 24
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := fmt.Sprintf(`
SELECT id, monitor_id, ts, status, code, message, response_ms, connection
FROM %s
WHERE monitor_id = $1 AND ts >= now() - ($2 * INTERVAL '1 hour')
ORDER BY ts DESC;`, table)

	rows, err := r.db.Pool.Query(ctx, q, monitorID, hours)
	if err != nil {
		return nil, fmt.Errorf("query heartbeats: %w", err)
	}
	defer rows.Close()

	var out []*heartbeat.Heartbeat
	for rows.Next() {
		var hb heartbeat.Heartbeat
		if err := rows.Scan(
			&hb.ID, &hb.MonitorID, &hb.Timestamp, &hb.Status,
			&hb.Code, &hb.Message, &hb.ResponseTime, &hb.Connection,
		); err != nil {
			return nil, fmt.Errorf("scan heartbeat: %w", err)
		}
		out = append(out, &hb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *HeartbeatRepoImpl) DeleteByMonitor(ctx context.Context, t monitor.Type, monitorID int64) error {
	table, err := tableFor(t)
	if err != nil {
		return err
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	q := fmt.Sprintf(`DELETE FROM %s WHERE monitor_id = $1;`, table)
	if _, err := r.db.Pool.Exec(ctx, q, monitorID); err != nil {
		return fmt.Errorf("delete heartbeats: %w", err)
	}
	return nil
}
