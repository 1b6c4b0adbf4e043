package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

const (
	defaultTCPPort    = 80
	defaultTCPTimeout = 1000 * time.Millisecond
)

// TCPProber opens a raw socket to host:port and closes it immediately.
// Success is a completed connect; timeouts and connection errors are both
// refused.
type TCPProber struct{}

func (TCPProber) Probe(ctx context.Context, m *monitor.Monitor) (Outcome, error) {
	host := m.URL
	if host == "" {
		host = "127.0.0.1"
	}
	port := m.Port
	if port == 0 {
		port = defaultTCPPort
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultTCPTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "TCP connection failed"
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			msg = "TCP socket timed out"
		}
		return refused(start, msg, 500), err
	}
	_ = conn.Close()

	return established(start, "Host is up and running", 200), nil
}
