// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

// Package observability serves Prometheus metrics and health probes for a
// running worldkeeper process.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// CodeServerFailed marks failures starting or stopping the HTTP listener.
const CodeServerFailed = "OBSERVABILITY_FAILED"

const defaultReadinessTimeout = 2 * time.Second

// ReadinessChecker reports nil when the process can take tool calls.
type ReadinessChecker func(ctx context.Context) error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for lifecycle and probe messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadinessTimeout bounds each readiness probe.
func WithReadinessTimeout(d time.Duration) Option {
	return func(s *Server) { s.readinessTimeout = d }
}

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr             string
	registry         *prometheus.Registry
	metrics          *Metrics
	ready            ReadinessChecker
	readinessTimeout time.Duration
	logger           *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewServer builds a server for addr. Use ":0" for an ephemeral port. A nil
// checker always reports ready.
func NewServer(addr string, ready ReadinessChecker, opts ...Option) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s := &Server{
		addr:             addr,
		registry:         reg,
		metrics:          NewMetrics(reg),
		ready:            ready,
		readinessTimeout: defaultReadinessTimeout,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the counters registered on this server.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Registry returns the registry scraped by /metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Start binds the listener and serves in the background. The returned
// channel yields at most one serve error and is closed once serving ends.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil, oops.Code(CodeServerFailed).With("addr", s.addr).Errorf("observability server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.Code(CodeServerFailed).With("addr", s.addr).Wrap(err)
	}
	srv := &http.Server{Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	s.listener, s.srv = ln, srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("observability server failed", "addr", ln.Addr().String(), "error", err)
			errCh <- oops.Code(CodeServerFailed).With("addr", ln.Addr().String()).Wrap(err)
		}
	}()

	s.logger.Info("observability server listening", "addr", ln.Addr().String())
	return errCh, nil
}

// Stop shuts the server down. It is a no-op when the server is not running.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		return oops.Code(CodeServerFailed).With("operation", "shutdown").Wrap(err)
	}
	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("GET /healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("GET /healthz/readiness", s.handleReadiness)
	return mux
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeProbe(w, http.StatusOK, "ok")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.readinessTimeout)
	defer cancel()

	err := s.ready(ctx)
	if err == nil {
		writeProbe(w, http.StatusOK, "ok")
		return
	}
	s.logger.WarnContext(ctx, "readiness check failed", "error", err)
	reason := "not ready"
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() != "" {
		reason = fmt.Sprintf("not ready: %s", oopsErr.Code())
	}
	writeProbe(w, http.StatusServiceUnavailable, reason)
}

func writeProbe(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, body)
}
