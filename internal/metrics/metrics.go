// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package metrics exposes Prometheus instrumentation for the ranking
// service: API throughput and latency, reading-event ingestion, and
// recommendation cache efficiency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts API requests by method, route, and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulserank_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	// APIRequestDuration observes API request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulserank_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// EventsRecorded counts successfully ingested reading events.
	EventsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulserank_reading_events_total",
			Help: "Total number of reading events recorded",
		},
	)

	// EventErrors counts reading events that failed to persist.
	EventErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulserank_reading_event_errors_total",
			Help: "Total number of reading events that failed to persist",
		},
	)

	// RankRequests counts ranking computations by path (scorer or similar).
	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulserank_rank_requests_total",
			Help: "Total number of ranking requests",
		},
		[]string{"path"},
	)

	// ProfileFallbacks counts ranking calls served with an empty profile
	// after a storage read fault (degraded, unpersonalized mode).
	ProfileFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulserank_profile_fallbacks_total",
			Help: "Total number of ranking calls degraded to an empty profile",
		},
	)

	// TrendingEvaluations counts trending classification calls.
	TrendingEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulserank_trending_evaluations_total",
			Help: "Total number of trending evaluations",
		},
	)
)
