package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPProber issues one GET against the monitor's URL. Any response counts
// as an established connection regardless of its status code; the monitor's
// assertion decides what to make of it. Only connect/timeout failures are
// refused.
type HTTPProber struct {
	Client *http.Client
}

func (p HTTPProber) Probe(ctx context.Context, m *monitor.Monitor) (Outcome, error) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := p.Client
	if client == nil {
		client = newHTTPClient(timeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		out := refused(start, fmt.Sprintf("invalid HTTP target: %v", err), 500)
		return out, err
	}

	resp, err := client.Do(req)
	if err != nil {
		msg := "HTTP connection failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "HTTP request timed out"
		}
		return refused(start, msg, 500), err
	}
	defer resp.Body.Close()

	return established(start, fmt.Sprintf("HTTP responded with %s", resp.Status), resp.StatusCode), nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
