// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Worldkeeper Contributors

package session

import "github.com/prometheus/client_golang/prometheus"

const (
	lookupHit  = "hit"
	lookupMiss = "miss"

	reasonExpired = "expired"
	reasonRemoved = "removed"
)

// CacheLookups counts registry lookups by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var CacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worldkeeper_session_cache_lookups_total",
		Help: "Session cache lookups by result",
	},
	[]string{"cache", "result"},
)

// CacheEvictions counts entries dropped from a registry.
var CacheEvictions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worldkeeper_session_cache_evictions_total",
		Help: "Session cache entries evicted, by reason",
	},
	[]string{"cache", "reason"},
)

// CacheEntries is the number of entries currently held per registry.
var CacheEntries = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "worldkeeper_session_cache_entries",
		Help: "Entries currently held in the session cache",
	},
	[]string{"cache"},
)

// RegisterMetrics registers session package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CacheLookups)
	reg.MustRegister(CacheEvictions)
	reg.MustRegister(CacheEntries)
}

func recordLookup(cache, result string) {
	CacheLookups.WithLabelValues(cache, result).Inc()
}

func recordEvictions(cache, reason string, n int) {
	if n == 0 {
		return
	}
	CacheEvictions.WithLabelValues(cache, reason).Add(float64(n))
}

func setSize(cache string, n int) {
	CacheEntries.WithLabelValues(cache).Set(float64(n))
}
