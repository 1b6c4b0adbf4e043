package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

var _ monitor.SSLRepo = (*SSLMonitorRepoImpl)(nil)

type SSLMonitorRepoImpl struct {
	db *DB
}

func NewSSLMonitorRepo(db *DB) *SSLMonitorRepoImpl { return &SSLMonitorRepoImpl{db: db} }

const sslColumns = `
id, user_id, name, url, frequency_sec, alert_threshold,
notification_id, active, info, created_at, updated_at`

const (
	qSSLInsert = `
INSERT INTO ssl_monitors
  (user_id, name, url, frequency_sec, alert_threshold, notification_id, active, info)
VALUES ($1, $2, $3, $4, $5, $6, $7, '')
RETURNING ` + sslColumns + `;
`

	qSSLByID = `
SELECT ` + sslColumns + `
FROM ssl_monitors
WHERE id = $1;
`

	qSSLByUser = `
SELECT ` + sslColumns + `
FROM ssl_monitors
WHERE user_id = $1 AND ($2 = FALSE OR active = TRUE)
ORDER BY created_at DESC;
`

	qSSLActive = `
SELECT ` + sslColumns + `
FROM ssl_monitors
WHERE active = TRUE
ORDER BY created_at DESC;
`

	qSSLUpdate = `
UPDATE ssl_monitors
SET name = $2, url = $3, frequency_sec = $4, alert_threshold = $5,
    notification_id = $6, active = $7, updated_at = now()
WHERE id = $1;
`

	qSSLUpdateInfo = `
UPDATE ssl_monitors
SET info = $2, updated_at = now()
WHERE id = $1;
`

	qSSLSetActive = `
UPDATE ssl_monitors
SET active = $3, updated_at = now()
WHERE id = $1 AND user_id = $2;
`

	qSSLDelete = `DELETE FROM ssl_monitors WHERE id = $1;`
)

func scanSSLMonitor(row pgx.Row, m *monitor.SSLMonitor) error {
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.URL,
		&m.Frequency,
		&m.AlertThreshold,
		&m.NotificationID,
		&m.Active,
		&m.Info,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan ssl monitor: %w", err)
	}
	return nil
}

func (r *SSLMonitorRepoImpl) Create(ctx context.Context, m *monitor.SSLMonitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qSSLInsert,
		m.UserID, m.Name, m.URL, m.Frequency, m.AlertThreshold, m.NotificationID, m.Active,
	)
	return scanSSLMonitor(row, m)
}

func (r *SSLMonitorRepoImpl) GetByID(ctx context.Context, id int64) (*monitor.SSLMonitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m monitor.SSLMonitor
	if err := scanSSLMonitor(r.db.Pool.QueryRow(ctx, qSSLByID, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SSLMonitorRepoImpl) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*monitor.SSLMonitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qSSLByUser, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query ssl monitors: %w", err)
	}
	defer rows.Close()
	return collectSSLMonitors(rows)
}

func (r *SSLMonitorRepoImpl) ListActive(ctx context.Context) ([]*monitor.SSLMonitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qSSLActive)
	if err != nil {
		return nil, fmt.Errorf("query active ssl monitors: %w", err)
	}
	defer rows.Close()
	return collectSSLMonitors(rows)
}

func collectSSLMonitors(rows pgx.Rows) ([]*monitor.SSLMonitor, error) {
	var out []*monitor.SSLMonitor
	for rows.Next() {
		var m monitor.SSLMonitor
		if err := scanSSLMonitor(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *SSLMonitorRepoImpl) Update(ctx context.Context, m *monitor.SSLMonitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, qSSLUpdate,
		m.ID, m.Name, m.URL, m.Frequency, m.AlertThreshold, m.NotificationID, m.Active,
	)
	return err
}

func (r *SSLMonitorRepoImpl) UpdateInfo(ctx context.Context, id int64, info string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx, qSSLUpdateInfo, id, info)
	return err
}

func (r *SSLMonitorRepoImpl) SetActive(ctx context.Context, id, userID int64, active bool) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qSSLSetActive, id, userID, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SSLMonitorRepoImpl) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qSSLDelete, id)
	if err != nil {
		return fmt.Errorf("delete ssl monitor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
