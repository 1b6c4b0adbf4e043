package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/uptimer-dev/uptimer/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepoImpl { return &NotificationRepoImpl{db: db} }

const qGroupByID = `
SELECT id, user_id, name, emails, created_at
FROM notification_groups
WHERE id = $1;
`

// GetByID reads a notification group. Emails are stored as a JSON array.
func (r *NotificationRepoImpl) GetByID(ctx context.Context, id int64) (*notification.Group, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		g   notification.Group
		raw []byte
	)
	if err := r.db.Pool.QueryRow(ctx, qGroupByID, id).Scan(
		&g.ID, &g.UserID, &g.Name, &raw, &g.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan notification group: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &g.Emails); err != nil {
			return nil, fmt.Errorf("decode group emails: %w", err)
		}
	}
	return &g, nil
}
