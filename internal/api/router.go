// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig holds the HTTP-boundary knobs the router needs.
type RouterConfig struct {
	RateLimit          int
	CORSAllowedOrigins []string
}

// NewRouter assembles the service's HTTP routes and middleware stack.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(h *Handler, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(recoverer)
	r.Use(newCORS(cfg.CORSAllowedOrigins))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(newRateLimit(cfg.RateLimit))
		r.Use(instrument)

		r.Get("/health", h.Health)
		r.Post("/events", h.RecordEvent)
		r.Post("/trending", h.Trending)

		r.Route("/viewers/{viewerID}", func(r chi.Router) {
			r.Get("/profile", h.GetProfile)
			r.Post("/rank", h.Rank)
			r.Post("/recommendations", h.Recommend)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
