// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jthompson-dev/pulserank/internal/metrics"
	"github.com/jthompson-dev/pulserank/internal/rank"
	"github.com/jthompson-dev/pulserank/internal/rank/profile"
	"github.com/jthompson-dev/pulserank/internal/rank/scorer"
	"github.com/jthompson-dev/pulserank/internal/rank/similar"
	"github.com/jthompson-dev/pulserank/internal/rank/trending"
)

// maxRequestBody bounds request bodies; candidate corpora are the largest
// payloads this service accepts.
const maxRequestBody = 8 << 20

// validate is a reusable validator instance.
var validate = validator.New()

// Handler exposes the ranking engine over HTTP.
type Handler struct {
	profiles    *profile.Store
	scorer      *scorer.Scorer
	recommender *similar.Recommender
	trending    *trending.Calculator
	logger      zerolog.Logger
}

// NewHandler wires the engine components into an HTTP handler set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(profiles *profile.Store, sc *scorer.Scorer, rec *similar.Recommender, tc *trending.Calculator, logger zerolog.Logger) *Handler {
	return &Handler{
		profiles:    profiles,
		scorer:      sc,
		recommender: rec,
		trending:    tc,
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

// readingEventRequest is the body of POST /api/v1/events.
type readingEventRequest struct {
	ViewerID         string   `json:"viewer_id" validate:"required,max=256"`
	ItemID           string   `json:"item_id" validate:"required,max=256"`
	Categories       []string `json:"categories" validate:"max=64,dive,max=128"`
	TimeSpentSeconds int      `json:"time_spent_seconds" validate:"min=0"`
	Completed        bool     `json:"completed"`

	// Item carries the full content item when the caller wants the
	// similarity recommender's counters updated alongside the profile.
	Item *rank.ContentItem `json:"item,omitempty"`
}

// rankRequest is the body of POST /api/v1/viewers/{viewerID}/rank and
// .../recommendations.
type rankRequest struct {
	Items []rank.ContentItem `json:"items" validate:"required,max=10000"`
	Limit int                `json:"limit" validate:"min=0,max=1000"`
}

// trendingRequest is the body of POST /api/v1/trending.
type trendingRequest struct {
	Items []rank.ContentItem `json:"items" validate:"required,max=10000"`
}

// RecordEvent ingests one reading event. The profile update is persisted
// before the 202 is returned; a storage fault fails the request rather
// than silently dropping signal.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req readingEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.profiles.RecordReadingEvent(r.Context(), req.ViewerID, req.ItemID, req.Categories, req.TimeSpentSeconds, req.Completed)
	if err != nil {
		metrics.EventErrors.Inc()
		h.logger.Error().Err(err).Str("viewer_id", req.ViewerID).Msg("failed to record reading event")
		respondError(w, http.StatusInternalServerError, "EVENT_PERSIST_FAILED", "failed to record reading event", nil)
		return
	}

	if req.Item != nil {
		item := *req.Item
		if item.ID == "" {
			item.ID = req.ItemID
		}
		if len(item.Categories) == 0 {
			item.Categories = req.Categories
		}
		h.recommender.RecordInteraction(req.ViewerID, item)
	}

	metrics.EventsRecorded.Inc()
	respondJSON(w, http.StatusAccepted, map[string]string{
		"viewer_id": req.ViewerID,
		"item_id":   req.ItemID,
	})
}

// GetProfile returns the viewer's current affinity profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")
	if viewerID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "viewer id is required", nil)
		return
	}

	p, err := h.profiles.GetProfile(r.Context(), viewerID)
	if err != nil {
		// Reads degrade: the empty profile is still a valid answer.
		metrics.ProfileFallbacks.Inc()
	}
	respondJSON(w, http.StatusOK, p)
}

// Rank scores the posted candidate items against the viewer's affinity
// profile. A storage fault on the profile read degrades to unpersonalized
// ranking instead of failing.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")
	var req rankRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.profiles.GetProfile(r.Context(), viewerID)
	if err != nil {
		metrics.ProfileFallbacks.Inc()
		h.logger.Warn().Err(err).Str("viewer_id", viewerID).Msg("ranking with empty profile after load fault")
	}

	scored, err := h.scorer.RankForViewer(r.Context(), p, req.Items)
	if err != nil {
		h.respondRankError(w, r, err)
		return
	}
	if req.Limit > 0 && len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	metrics.RankRequests.WithLabelValues("scorer").Inc()
	respondJSON(w, http.StatusOK, scored)
}

// Recommend returns the similarity recommender's ordering of the posted
// candidate items for the viewer.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")
	var req rankRequest
	if !h.decode(w, r, &req) {
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = len(req.Items)
	}

	items, err := h.recommender.GetRecommendations(r.Context(), viewerID, req.Items, limit)
	if err != nil {
		h.respondRankError(w, r, err)
		return
	}

	metrics.RankRequests.WithLabelValues("similar").Inc()
	respondJSON(w, http.StatusOK, items)
}

// Trending scores the posted corpus and flags which items are trending
// relative to it.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	var req trendingRequest
	if !h.decode(w, r, &req) {
		return
	}

	evaluations, err := h.trending.Evaluate(r.Context(), req.Items)
	if err != nil {
		h.respondRankError(w, r, err)
		return
	}

	metrics.TrendingEvaluations.Inc()
	respondJSON(w, http.StatusOK, evaluations)
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode parses and validates a JSON request body, writing the error
// response itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", err)
		return false
	}
	return true
}

// respondRankError maps ranking-path errors to HTTP statuses: client
// cancellation maps to 499-style 408, everything else is internal.
func (h *Handler) respondRankError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, r.Context().Err()) && r.Context().Err() != nil {
		respondError(w, http.StatusRequestTimeout, "REQUEST_CANCELED", "request canceled", nil)
		return
	}
	h.logger.Error().Err(err).Msg("ranking failed")
	respondError(w, http.StatusInternalServerError, "RANKING_FAILED", "ranking failed", nil)
}
