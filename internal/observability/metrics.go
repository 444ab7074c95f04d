// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

const namespace = "worldkeeper"

// Metrics holds the counters the serve loop updates.
type Metrics struct {
	// RequestsTotal is labelled by request source and response status.
	RequestsTotal         *prometheus.CounterVec
	ResponseWriteFailures prometheus.Counter
	// SweptEntries counts expired session entries removed by the sweeper.
	SweptEntries prometheus.Counter
}

// NewMetrics registers the serve loop counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Tool requests handled by the serve loop, by source and status.",
		}, []string{"source", "status"}),
		ResponseWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_write_failures_total",
			Help:      "Responses that could not be written back to the client.",
		}),
		SweptEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "swept_total",
			Help:      "Expired session entries removed by the periodic sweep.",
		}),
	}
	reg.MustRegister(m.RequestsTotal, m.ResponseWriteFailures, m.SweptEntries)
	return m
}
