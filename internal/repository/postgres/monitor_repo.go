package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

var _ monitor.Repo = (*MonitorRepoImpl)(nil)

type MonitorRepoImpl struct {
	db *DB
}

func NewMonitorRepo(db *DB) *MonitorRepoImpl { return &MonitorRepoImpl{db: db} }

const monitorColumns = `
id, user_id, name, type, url, port, timeout_ms, frequency_sec,
alert_threshold, notification_id, connection, active, status,
last_changed, created_at, updated_at`

const (
	qMonitorInsert = `
INSERT INTO monitors
  (user_id, name, type, url, port, timeout_ms, frequency_sec,
   alert_threshold, notification_id, connection, active, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0)
RETURNING ` + monitorColumns + `;
`

	qMonitorByID = `
SELECT ` + monitorColumns + `
FROM monitors
WHERE id = $1;
`

	qMonitorsByUser = `
SELECT ` + monitorColumns + `
FROM monitors
WHERE user_id = $1 AND ($2 = FALSE OR active = TRUE)
ORDER BY created_at DESC;
`

	qMonitorsActive = `
SELECT ` + monitorColumns + `
FROM monitors
WHERE active = TRUE
ORDER BY created_at DESC;
`

	qMonitorUpdate = `
UPDATE monitors
SET name = $2, type = $3, url = $4, port = $5, timeout_ms = $6,
    frequency_sec = $7, alert_threshold = $8, notification_id = $9,
    connection = $10, active = $11, updated_at = now()
WHERE id = $1;
`

	qMonitorUpdateStatus = `
UPDATE monitors
SET status = $2, last_changed = $3, updated_at = now()
WHERE id = $1;
`

	qMonitorSetActive = `
UPDATE monitors
SET active = $3, updated_at = now()
WHERE id = $1 AND user_id = $2;
`

	qMonitorDelete = `DELETE FROM monitors WHERE id = $1;`
)

func scanMonitor(row pgx.Row, m *monitor.Monitor) error {
	var (
		timeoutMS   int64
		lastChanged *time.Time
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Type,
		&m.URL,
		&m.Port,
		&timeoutMS,
		&m.Frequency,
		&m.AlertThreshold,
		&m.NotificationID,
		&m.Connection,
		&m.Active,
		&m.Status,
		&lastChanged,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan monitor: %w", err)
	}
	m.Timeout = time.Duration(timeoutMS) * time.Millisecond
	if lastChanged != nil {
		m.LastChanged = *lastChanged
	}
	return nil
}

func (r *MonitorRepoImpl) Create(ctx context.Context, m *monitor.Monitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qMonitorInsert,
		m.UserID, m.Name, m.Type, m.URL, m.Port, m.Timeout.Milliseconds(),
		m.Frequency, m.AlertThreshold, m.NotificationID, m.Connection, m.Active,
	)
	return scanMonitor(row, m)
}

func (r *MonitorRepoImpl) GetByID(ctx context.Context, id int64) (*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m monitor.Monitor
	if err := scanMonitor(r.db.Pool.QueryRow(ctx, qMonitorByID, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MonitorRepoImpl) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qMonitorsByUser, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query monitors: %w", err)
	}
	defer rows.Close()
	return collectMonitors(rows)
}

func (r *MonitorRepoImpl) ListActive(ctx context.Context) ([]*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qMonitorsActive)
	if err != nil {
		return nil, fmt.Errorf("query active monitors: %w", err)
	}
	defer rows.Close()
	return collectMonitors(rows)
}

func collectMonitors(rows pgx.Rows) ([]*monitor.Monitor, error) {
	var out []*monitor.Monitor
	for rows.Next() {
		var m monitor.Monitor
		if err := scanMonitor(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *MonitorRepoImpl) Update(ctx context.Context, m *monitor.Monitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, qMonitorUpdate,
		m.ID, m.Name, m.Type, m.URL, m.Port, m.Timeout.Milliseconds(),
		m.Frequency, m.AlertThreshold, m.NotificationID, m.Connection, m.Active,
	)
	return err
}

func (r *MonitorRepoImpl) UpdateStatus(ctx context.Context, m *monitor.Monitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, qMonitorUpdateStatus, m.ID, m.Status, nullTime(m.LastChanged))
	return err
}

func (r *MonitorRepoImpl) SetActive(ctx context.Context, id, userID int64, active bool) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMonitorSetActive, id, userID, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MonitorRepoImpl) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMonitorDelete, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
