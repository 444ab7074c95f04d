// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldkeeper/worldkeeper/pkg/errutil"
)

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", ready, WithLogger(slog.New(slog.DiscardHandler)))
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func get(t *testing.T, server *Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get("http://" + server.Addr() + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startServer(t, nil)

	status, body := get(t, server, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "process_")

	m := server.Metrics()
	m.RequestsTotal.WithLabelValues("stdin", "success").Inc()
	m.RequestsTotal.WithLabelValues("stdin", "success").Inc()
	m.ResponseWriteFailures.Inc()

	_, body = get(t, server, "/metrics")
	assert.Contains(t, body, `worldkeeper_requests_total{source="stdin",status="success"} 2`)
	assert.Contains(t, body, "worldkeeper_response_write_failures_total 1")
}

func TestServer_RegistryAcceptsCollectors(t *testing.T) {
	server := startServer(t, nil)
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "worldkeeper_test_extra_total", Help: "test"})
	server.Registry().MustRegister(extra)
	extra.Add(3)

	_, body := get(t, server, "/metrics")
	assert.Contains(t, body, "worldkeeper_test_extra_total 3")
}

func TestServer_Liveness(t *testing.T) {
	server := startServer(t, func(context.Context) error { return errors.New("down") })

	status, body := get(t, server, "/healthz/liveness")
	assert.Equal(t, http.StatusOK, status, "liveness ignores readiness")
	assert.Equal(t, "ok", strings.TrimSpace(body))
}

func TestServer_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		ready  ReadinessChecker
		status int
		body   string
	}{
		{"nil checker", nil, http.StatusOK, "ok"},
		{"ready", func(context.Context) error { return nil }, http.StatusOK, "ok"},
		{"not ready", func(context.Context) error { return errors.New("database locked") }, http.StatusServiceUnavailable, "not ready"},
		{"coded failure", func(context.Context) error {
			return oops.Code("DB_CONNECT_FAILED").Errorf("database locked")
		}, http.StatusServiceUnavailable, "not ready: DB_CONNECT_FAILED"},
		{"checker gets a deadline", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		}, http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := startServer(t, tt.ready)
			status, body := get(t, server, "/healthz/readiness")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, strings.TrimSpace(body))
		})
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	server := startServer(t, nil)
	_, err := server.Start()
	errutil.AssertErrorCode(t, err, CodeServerFailed)
}

func TestServer_StartBindFailure(t *testing.T) {
	server := startServer(t, nil)
	other := NewServer(server.Addr(), nil)
	_, err := other.Start()
	errutil.AssertErrorCode(t, err, CodeServerFailed)
	errutil.AssertErrorContext(t, err, "addr", server.Addr())
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server := startServer(t, nil)
	resp, err := http.Post("http://"+server.Addr()+"/healthz/liveness", "text/plain", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Stop(ctx))
	assert.Empty(t, server.Addr())
}

func TestServer_ErrorChannelReportsServeErrors(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)
	defer func() { _ = server.Stop(context.Background()) }()

	_ = server.listener.Close()

	select {
	case serveErr := <-errCh:
		assert.Error(t, serveErr)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for serve error")
	}
}

func TestServer_ErrorChannelClosesOnShutdown(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	errCh, err := server.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error channel to close")
	}
}
