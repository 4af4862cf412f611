// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package rank defines the shared data model and tuning configuration for
// the personalization and ranking engine.
//
// The engine is split into four cooperating packages:
//
//   - rank/profile: durable per-viewer affinity profiles built from
//     reading behavior (category scores, history, recently read items)
//   - rank/scorer: pure relevance scoring of candidate items against a
//     profile, without text similarity
//   - rank/similar: content-similarity recommendations blending affinity
//     counters, term-frequency vectors, and engagement, with per-viewer
//     result caching
//   - rank/trending: viewer-independent, corpus-relative engagement and
//     trending classification
//
// This package holds the types those packages exchange (ContentItem,
// ReadingEvent, Profile, ScoredItem) and the Config that tunes them. It has
// no dependencies on the rest of the engine so that collaborators (storage,
// transport) can consume the model without import cycles.
//
// # Ownership
//
// ContentItem snapshots are owned by the content subsystem; the engine only
// reads immutable copies per request and never writes counts back.
// ReadingEvents are append-only. Profiles are owned by rank/profile and
// mutated only through its record operation.
package rank
