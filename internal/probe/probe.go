package probe

import (
	"context"
	"time"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

// Observed connection outcomes. The engine compares these against the
// monitor's expected connection string.
const (
	StatusEstablished = "established"
	StatusRefused     = "refused"
)

// Outcome is one normalized probe result. Code carries the protocol status
// or driver error code, 500 when the driver gives none.
type Outcome struct {
	Status       string
	ResponseTime int64
	Message      string
	Code         int
}

// Prober performs a single connectivity check against a monitor's target.
// One attempt per call, never retries. A non-nil error marks a probe-level
// failure (transport, timeout, DNS); the returned Outcome is still populated
// with the refused status and the underlying message so the engine can
// record it.
type Prober interface {
	Probe(ctx context.Context, m *monitor.Monitor) (Outcome, error)
}

// ForType returns the driver for a monitor type. The switch is exhaustive
// over the closed type set.
func ForType(t monitor.Type) Prober {
	switch t {
	case monitor.TypeHTTP:
		return HTTPProber{}
	case monitor.TypeTCP:
		return TCPProber{}
	case monitor.TypeMongoDB:
		return MongoProber{}
	case monitor.TypeRedis:
		return RedisProber{}
	case monitor.TypePostgres:
		return PostgresProber{}
	}
	return nil
}

func refused(start time.Time, message string, code int) Outcome {
	if code == 0 {
		code = 500
	}
	return Outcome{
		Status:       StatusRefused,
		ResponseTime: time.Since(start).Milliseconds(),
		Message:      message,
		Code:         code,
	}
}

func established(start time.Time, message string, code int) Outcome {
	return Outcome{
		Status:       StatusEstablished,
		ResponseTime: time.Since(start).Milliseconds(),
		Message:      message,
		Code:         code,
	}
}
