package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

func TestForType_CoversEveryType(t *testing.T) {
	for _, typ := range monitor.Types() {
		require.NotNil(t, ForType(typ), "type %q has no driver", typ)
	}
	require.Nil(t, ForType(monitor.Type("carrier-pigeon")))
}

func TestHTTPProbe_AnyResponseIsEstablished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := &monitor.Monitor{Type: monitor.TypeHTTP, URL: srv.URL}
	out, err := HTTPProber{}.Probe(context.Background(), m)
	require.NoError(t, err)
	require.Equal(t, StatusEstablished, out.Status)
	require.Equal(t, http.StatusInternalServerError, out.Code)
}

func TestHTTPProbe_TimeoutIsRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	m := &monitor.Monitor{Type: monitor.TypeHTTP, URL: srv.URL, Timeout: 50 * time.Millisecond}
	out, err := HTTPProber{}.Probe(context.Background(), m)
	require.Error(t, err)
	require.Equal(t, StatusRefused, out.Status)
	require.Equal(t, "HTTP request timed out", out.Message)
	require.Equal(t, 500, out.Code)
}

func TestHTTPProbe_ConnectFailureIsRefused(t *testing.T) {
	m := &monitor.Monitor{Type: monitor.TypeHTTP, URL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond}
	out, err := HTTPProber{}.Probe(context.Background(), m)
	require.Error(t, err)
	require.Equal(t, StatusRefused, out.Status)
}

func TestTCPProbe_Established(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	m := &monitor.Monitor{Type: monitor.TypeTCP, URL: "127.0.0.1", Port: port}
	out, probeErr := TCPProber{}.Probe(context.Background(), m)
	require.NoError(t, probeErr)
	require.Equal(t, StatusEstablished, out.Status)
	require.Equal(t, "Host is up and running", out.Message)
	require.Equal(t, 200, out.Code)
}

func TestTCPProbe_RefusedOnClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	m := &monitor.Monitor{Type: monitor.TypeTCP, URL: "127.0.0.1", Port: port}
	out, probeErr := TCPProber{}.Probe(context.Background(), m)
	require.Error(t, probeErr)
	require.Equal(t, StatusRefused, out.Status)
	require.NotEmpty(t, out.Message)
	require.Equal(t, 500, out.Code)
}

func TestRefused_DefaultsCodeTo500(t *testing.T) {
	out := refused(time.Now(), "boom", 0)
	require.Equal(t, 500, out.Code)
	require.Equal(t, StatusRefused, out.Status)
}
