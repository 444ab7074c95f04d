// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/worldkeeper/worldkeeper/internal/observability"
	"github.com/worldkeeper/worldkeeper/internal/result"
	"github.com/worldkeeper/worldkeeper/internal/session"
	"github.com/worldkeeper/worldkeeper/internal/tools"
	"github.com/worldkeeper/worldkeeper/internal/world"
)

// maxRequestBytes bounds one JSON-lines request.
const maxRequestBytes = 4 << 20

const sourceStdin = "stdin"

// request is one line read by the serve loop. ID, when present, is echoed
// back so callers can match responses to requests.
type request struct {
	ID any `json:"id,omitempty"`
	tools.Call
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve tool calls as JSON lines on stdin and stdout",
		Long: `Reads one JSON tool call per line from stdin and writes one JSON
response per line to stdout:

  {"id": 1, "tool": "get_player", "args": {"player_id": "..."}}

Expired sessions are swept periodically. When --metrics-addr is set, an HTTP
server exposes /metrics, /healthz/liveness and /healthz/readiness. serve exits
when stdin is closed or on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), os.Stdin, cmd.OutOrStdout())
		},
	}
}

func runServe(ctx context.Context, in io.Reader, out io.Writer) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	d, err := newDispatcher(store)
	if err != nil {
		return err
	}

	var obsServer *observability.Server
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	var obsErrs <-chan error
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, store.Ping)
		tools.RegisterMetrics(obsServer.Registry())
		session.RegisterMetrics(obsServer.Registry())
		if obsErrs, err = obsServer.Start(); err != nil {
			return err
		}
		metrics = obsServer.Metrics()
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.Sessions().RunSweeper(ctx, cfg.Session.SweepInterval, slog.Default(), func(r session.SweepResult) {
			metrics.SweptEntries.Add(float64(r.Total()))
		})
	})
	if obsErrs != nil {
		g.Go(func() error {
			select {
			case err, ok := <-obsErrs:
				if ok && err != nil {
					return oops.With("server", "observability").Wrap(err)
				}
			case <-ctx.Done():
			}
			return nil
		})
	}
	g.Go(func() error {
		// The other goroutines stop once the input is exhausted.
		defer cancel()
		return serveLines(ctx, d, in, out, metrics)
	})

	slog.Info("serving tool calls", "tools", d.Registry().Len(), "database", store.Path())
	err = g.Wait()

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			slog.Warn("error stopping observability server", "error", stopErr)
		}
	}
	slog.Info("shutdown complete")
	return err
}

// serveLines answers each request line in order until in is exhausted or
// ctx is done.
func serveLines(ctx context.Context, d *tools.Dispatcher, in io.Reader, out io.Writer, m *observability.Metrics) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), maxRequestBytes)
		for sc.Scan() {
			select {
			case lines <- bytes.Clone(sc.Bytes()):
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	w := bufio.NewWriter(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return oops.With("operation", "read requests").Wrap(err)
					}
				default:
				}
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			resp := handleLine(ctx, d, line)
			status := tools.StatusSuccess
			if !resp.Success() {
				status = resp.ErrorCode()
			}
			m.RequestsTotal.WithLabelValues(sourceStdin, status).Inc()

			if err := writeLine(w, resp); err != nil {
				m.ResponseWriteFailures.Inc()
				return err
			}
		}
	}
}

func handleLine(ctx context.Context, d *tools.Dispatcher, line []byte) result.Response {
	var req request
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return result.Fail[any]("request is not a JSON tool call: "+err.Error(), world.CodeInvalidInput).ToResponse()
	}
	if req.Tool == "" {
		return withID(result.Fail[any]("request names no tool", world.CodeMissingRequired).ToResponse(), req.ID)
	}
	return withID(d.Call(ctx, req.Call), req.ID)
}

func withID(resp result.Response, id any) result.Response {
	if id != nil {
		resp["id"] = id
	}
	return resp
}

func writeLine(w *bufio.Writer, resp result.Response) error {
	if err := writeJSON(w, resp, false); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return oops.With("operation", "write response").Wrap(err)
	}
	return nil
}
