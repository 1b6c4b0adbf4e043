package monitor

import "context"

type Repo interface {
	Create(ctx context.Context, m *Monitor) error
	GetByID(ctx context.Context, id int64) (*Monitor, error)
	ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*Monitor, error)
	ListActive(ctx context.Context) ([]*Monitor, error)
	Update(ctx context.Context, m *Monitor) error
	UpdateStatus(ctx context.Context, m *Monitor) error
	SetActive(ctx context.Context, id, userID int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

type SSLRepo interface {
	Create(ctx context.Context, m *SSLMonitor) error
	GetByID(ctx context.Context, id int64) (*SSLMonitor, error)
	ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]*SSLMonitor, error)
	ListActive(ctx context.Context) ([]*SSLMonitor, error)
	Update(ctx context.Context, m *SSLMonitor) error
	UpdateInfo(ctx context.Context, id int64, info string) error
	SetActive(ctx context.Context, id, userID int64, active bool) error
	Delete(ctx context.Context, id int64) error
}
