package monitor

import (
	"fmt"
	"strings"
	"time"
)

// Type is the closed set of probe protocols. Dispatch over it is exhaustive;
// adding a protocol means touching every switch the compiler points at.
type Type string

const (
	TypeHTTP     Type = "http"
	TypeTCP      Type = "tcp"
	TypeMongoDB  Type = "mongodb"
	TypeRedis    Type = "redis"
	TypePostgres Type = "postgres"
)

func Types() []Type {
	return []Type{TypeHTTP, TypeTCP, TypeMongoDB, TypeRedis, TypePostgres}
}

// ParseType validates a caller-supplied type string.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeHTTP, TypeTCP, TypeMongoDB, TypeRedis, TypePostgres:
		return t, nil
	default:
		return "", fmt.Errorf("unknown monitor type %q", s)
	}
}

// Monitor status values. Heartbeats reuse the same encoding.
const (
	StatusUp   = 0
	StatusDown = 1
)

// ConnectionEstablished is the usual success assertion value.
const ConnectionEstablished = "established"

type Monitor struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"user_id"`
	Name           string        `json:"name"`
	Type           Type          `json:"type"`
	URL            string        `json:"url"`
	Port           int           `json:"port"`
	Timeout        time.Duration `json:"timeout"`
	Frequency      int           `json:"frequency"`
	AlertThreshold int           `json:"alert_threshold"`
	NotificationID int64         `json:"notification_id"`
	Connection     string        `json:"connection"`
	Active         bool          `json:"active"`
	Status         int           `json:"status"`
	LastChanged    time.Time     `json:"last_changed"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// JobName is the scheduler key for this monitor's recurring probe job,
// namespaced by kind and owner so same-named monitors never displace each
// other's jobs.
func (m *Monitor) JobName() string {
	return fmt.Sprintf("monitor-%d-%s", m.UserID, strings.ToLower(m.Name))
}

// SSLMonitor observes a TLS endpoint's certificate rather than liveness.
// Info holds the serialized last-computed certificate summary.
type SSLMonitor struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	Frequency      int       `json:"frequency"`
	AlertThreshold int       `json:"alert_threshold"`
	NotificationID int64     `json:"notification_id"`
	Active         bool      `json:"active"`
	Info           string    `json:"info"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m *SSLMonitor) JobName() string {
	return fmt.Sprintf("ssl-%d-%s", m.UserID, strings.ToLower(m.Name))
}
