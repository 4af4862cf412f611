// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package api exposes the ranking engine over HTTP: reading-event
// ingestion, profile inspection, relevance ranking, similarity
// recommendations, and trending evaluation, plus health and Prometheus
// metrics endpoints.
//
// Candidate corpora are always supplied by the caller in the request body;
// the service stores viewer state, never content.
package api
