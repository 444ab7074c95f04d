// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package tools

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StatusSuccess labels successful calls. Failed calls are labelled with
// their error code.
const StatusSuccess = "success"

// ToolCalls counts dispatched calls.
// Use RegisterMetrics to register this with a Prometheus registry.
var ToolCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worldkeeper_tool_calls_total",
		Help: "Total number of tool calls by outcome",
	},
	[]string{"tool", "category", "status"},
)

// ToolDuration observes how long calls take, including commit.
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "worldkeeper_tool_duration_seconds",
		Help:    "Tool call duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// RegisterMetrics registers tool package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ToolCalls)
	reg.MustRegister(ToolDuration)
}

func recordCall(tool, category, status string, d time.Duration) {
	ToolCalls.WithLabelValues(tool, category, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}
