package heartbeat

import "time"

// Heartbeat is one immutable probe result. For a fixed monitor the sequence
// is append-only and ordered by Timestamp; rows are removed only as a batch
// when the owning monitor is deleted.
type Heartbeat struct {
	ID           int64     `json:"id"`
	MonitorID    int64     `json:"monitor_id"`
	Timestamp    time.Time `json:"timestamp"`
	Status       int       `json:"status"`
	Code         int       `json:"code"`
	Message      string    `json:"message"`
	ResponseTime int64     `json:"response_time"`
	Connection   string    `json:"connection"`
}
