// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package similar implements the content-similarity recommender: an
// alternative ranking path that blends category and author affinity, a
// lightweight term-frequency text-similarity signal against the viewer's
// recently read items, and engagement, with per-viewer result caching.
//
// The candidate list passed by the caller is authoritative. The recommender
// never fetches additional items; it only reorders and truncates what it is
// given. Items the viewer has already read are demoted to the bottom of the
// ordering, not removed.
package similar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jthompson-dev/pulserank/internal/rank"
)

// Recommender produces cached, per-viewer content recommendations.
// It is safe for concurrent use: cache reads are non-blocking, cache writes
// are atomic replacements, and concurrent cache fills for the same viewer
// collapse into a single computation.
type Recommender struct {
	cfg    *rank.Config
	logger zerolog.Logger
	vec    *Vectorizer

	mu      sync.RWMutex
	viewers map[string]*viewerState
	cache   map[string]cacheEntry

	group singleflight.Group

	// now is injectable for tests.
	now func() time.Time
}

// viewerState holds the recommender's per-viewer counters. These are
// simpler, unweighted counts, kept separate from the affinity profile's
// decayed scores.
type viewerState struct {
	authorFreq   map[string]int
	categoryFreq map[string]int
	read         map[string]struct{}

	// recentReads keeps the most recently read items, newest first, capped
	// to the configured window for text similarity.
	recentReads []rank.ContentItem
}

// cacheEntry is a per-viewer cached recommendation list.
type cacheEntry struct {
	items      []rank.ContentItem
	computedAt time.Time
}

// NewRecommender creates a content-similarity recommender.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommender(cfg *rank.Config, logger zerolog.Logger) *Recommender {
	if cfg == nil {
		cfg = rank.DefaultConfig()
	}
	return &Recommender{
		cfg:     cfg,
		logger:  logger.With().Str("component", "similar").Logger(),
		vec:     NewVectorizer(cfg.Similarity.MinTokenLength),
		viewers: make(map[string]*viewerState),
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// RecordInteraction updates the viewer's author and category counters,
// marks the item as read, and invalidates the viewer's cached
// recommendations.
func (r *Recommender) RecordInteraction(viewerID string, item rank.ContentItem) {
	if viewerID == "" || item.ID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.viewers[viewerID]
	if !ok {
		state = &viewerState{
			authorFreq:   make(map[string]int),
			categoryFreq: make(map[string]int),
			read:         make(map[string]struct{}),
		}
		r.viewers[viewerID] = state
	}

	if item.AuthorID != "" {
		state.authorFreq[item.AuthorID]++
	}
	for _, cat := range item.NormalizedCategories() {
		state.categoryFreq[cat]++
	}
	state.read[item.ID] = struct{}{}

	recent := make([]rank.ContentItem, 0, len(state.recentReads)+1)
	recent = append(recent, item)
	for i := range state.recentReads {
		if state.recentReads[i].ID != item.ID {
			recent = append(recent, state.recentReads[i])
		}
	}
	if len(recent) > r.cfg.Similarity.RecentReads {
		recent = recent[:r.cfg.Similarity.RecentReads]
	}
	state.recentReads = recent

	delete(r.cache, viewerID)
}

// GetRecommendations returns up to limit candidates ordered by blended
// similarity score for the viewer. A non-expired cached result is returned
// as-is; otherwise the list is recomputed, cached with the configured TTL,
// and returned. Concurrent recomputations for the same viewer collapse
// into one.
func (r *Recommender) GetRecommendations(ctx context.Context, viewerID string, candidates []rank.ContentItem, limit int) ([]rank.ContentItem, error) {
	if limit <= 0 {
		return []rank.ContentItem{}, nil
	}

	if items, ok := r.cachedItems(viewerID); ok {
		return truncate(items, limit), nil
	}

	result, err, _ := r.group.Do(viewerID, func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// A concurrent caller may have populated the cache between our
		// miss and winning the flight.
		if items, ok := r.cachedItems(viewerID); ok {
			return items, nil
		}
		items := r.compute(viewerID, candidates, limit)
		r.storeCache(viewerID, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := result.([]rank.ContentItem)
	return truncate(items, limit), nil
}

// cachedItems returns the viewer's cached recommendations if present and
// within TTL.
func (r *Recommender) cachedItems(viewerID string) ([]rank.ContentItem, bool) {
	if !r.cfg.Cache.Enabled {
		return nil, false
	}

	r.mu.RLock()
	entry, ok := r.cache[viewerID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if r.now().Sub(entry.computedAt) > r.cfg.Cache.TTL {
		return nil, false
	}
	return entry.items, true
}

// storeCache atomically replaces the viewer's cache entry.
func (r *Recommender) storeCache(viewerID string, items []rank.ContentItem) {
	if !r.cfg.Cache.Enabled {
		return
	}

	r.mu.Lock()
	r.cache[viewerID] = cacheEntry{
		items:      items,
		computedAt: r.now(),
	}
	r.mu.Unlock()
}

// compute scores and orders the candidate list for a viewer.
func (r *Recommender) compute(viewerID string, candidates []rank.ContentItem, limit int) []rank.ContentItem {
	r.mu.RLock()
	state := r.viewers[viewerID]
	var recentVecs [][]float64
	if state != nil {
		recentVecs = make([][]float64, 0, len(state.recentReads))
		for i := range state.recentReads {
			recentVecs = append(recentVecs, r.vec.Vectorize(state.recentReads[i]))
		}
	}
	r.mu.RUnlock()

	scored := make([]rank.ScoredItem, 0, len(candidates))
	for i := range candidates {
		scored = append(scored, rank.ScoredItem{
			Item:  candidates[i],
			Score: r.scoreCandidate(state, recentVecs, candidates[i]),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Item.PublishedAt.Equal(scored[j].Item.PublishedAt) {
			return scored[i].Item.PublishedAt.After(scored[j].Item.PublishedAt)
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	items := make([]rank.ContentItem, 0, limit)
	for i := range scored {
		if i >= limit {
			break
		}
		items = append(items, scored[i].Item)
	}

	r.logger.Debug().
		Str("viewer_id", viewerID).
		Int("candidates", len(candidates)).
		Int("returned", len(items)).
		Msg("computed recommendations")

	return items
}

// scoreCandidate blends category frequency, author frequency, text
// similarity against recent reads, and raw engagement. Already-read items
// score -1 so they sort last without leaving the result set.
func (r *Recommender) scoreCandidate(state *viewerState, recentVecs [][]float64, item rank.ContentItem) float64 {
	cfg := r.cfg.Similarity

	if state != nil {
		if _, read := state.read[item.ID]; read {
			return -1
		}
	}

	var categorySum, authorFreq float64
	if state != nil {
		for _, cat := range item.NormalizedCategories() {
			categorySum += float64(state.categoryFreq[cat])
		}
		authorFreq = float64(state.authorFreq[item.AuthorID])
	}

	var textSim float64
	if len(recentVecs) > 0 {
		itemVec := r.vec.Vectorize(item)
		var total float64
		for _, readVec := range recentVecs {
			total += CosineSimilarity(itemVec, readVec)
		}
		textSim = total / float64(len(recentVecs))
	}

	views := float64(max64(item.Views, 0))
	upvotes := float64(max64(item.Upvotes, 0))
	comments := float64(max64(item.Comments, 0))
	engagement := (upvotes*2 + views + comments*3) / cfg.EngagementDivisor

	return cfg.CategoryWeight*categorySum +
		cfg.AuthorWeight*authorFreq +
		cfg.ContentWeight*textSim +
		cfg.EngagementWeight*engagement
}

// truncate returns at most limit items.
func truncate(items []rank.ContentItem, limit int) []rank.ContentItem {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func max64(v, floor int64) int64 {
	if v < floor {
		return floor
	}
	return v
}
