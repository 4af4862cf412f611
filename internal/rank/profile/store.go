// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package profile implements the affinity profile store: durable,
// per-viewer accumulation of preference signal from reading behavior.
//
// Concurrent updates for the same viewer are serialized through a sharded
// lock map keyed by viewer ID; updates for different viewers proceed in
// parallel. There is no global lock on the write path.
package profile

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jthompson-dev/pulserank/internal/rank"
)

// lockShards is the size of the sharded lock map. Viewer IDs hash onto
// shards, so two viewers may occasionally share a lock; correctness only
// requires that a single viewer always maps to the same shard.
const lockShards = 64

// Persistence is the port to the profile persistence collaborator.
// An absent profile is a valid state, reported via the found flag.
type Persistence interface {
	// Load retrieves a viewer's profile. found is false when no profile
	// has been persisted for the viewer.
	Load(ctx context.Context, viewerID string) (p *rank.Profile, found bool, err error)

	// Save persists a viewer's profile, replacing any previous version.
	Save(ctx context.Context, viewerID string, p *rank.Profile) error
}

// Store accumulates per-viewer affinity profiles from reading events.
// It is safe for concurrent use.
type Store struct {
	cfg         *rank.Config
	logger      zerolog.Logger
	persistence Persistence

	// profiles caches loaded profiles for the process lifetime; the
	// persisted copy is authoritative across restarts.
	profiles map[string]*rank.Profile
	mu       sync.RWMutex

	locks [lockShards]sync.Mutex

	// now is injectable for tests.
	now func() time.Time
}

// NewStore creates a profile store backed by the given persistence.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(cfg *rank.Config, persistence Persistence, logger zerolog.Logger) *Store {
	if cfg == nil {
		cfg = rank.DefaultConfig()
	}
	return &Store{
		cfg:         cfg,
		logger:      logger.With().Str("component", "profile").Logger(),
		persistence: persistence,
		profiles:    make(map[string]*rank.Profile),
		now:         time.Now,
	}
}

// GetProfile returns the viewer's profile, or a freshly initialized empty
// one if none exists. A storage-layer fault is reported alongside an empty
// profile so that ranking callers can degrade to unpersonalized results
// instead of failing.
func (s *Store) GetProfile(ctx context.Context, viewerID string) (*rank.Profile, error) {
	s.mu.RLock()
	p, ok := s.profiles[viewerID]
	s.mu.RUnlock()
	if ok {
		return p.Clone(), nil
	}

	loaded, found, err := s.persistence.Load(ctx, viewerID)
	if err != nil {
		s.logger.Warn().
			Str("viewer_id", viewerID).
			Err(err).
			Msg("profile load failed, using empty profile")
		return rank.NewProfile(), fmt.Errorf("load profile: %w", err)
	}
	if !found {
		return rank.NewProfile(), nil
	}
	normalizeLoaded(loaded)

	s.mu.Lock()
	// Another goroutine may have loaded or updated meanwhile; keep the
	// in-memory copy authoritative within the process.
	if existing, ok := s.profiles[viewerID]; ok {
		loaded = existing
	} else {
		s.profiles[viewerID] = loaded
	}
	s.mu.Unlock()

	return loaded.Clone(), nil
}

// RecordReadingEvent updates the viewer's profile with one reading event:
// category scores receive an EMA-style decayed update, the event is
// prepended to the bounded history, and the item moves to the front of the
// bounded recently-read list. The update is persisted before it becomes
// visible to later reads; on persistence failure the in-memory state is
// left untouched and the error is propagated.
func (s *Store) RecordReadingEvent(ctx context.Context, viewerID, itemID string, categories []string, timeSpentSeconds int, completed bool) error {
	if viewerID == "" || itemID == "" {
		return fmt.Errorf("viewer id and item id are required")
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	lock := s.shardLock(viewerID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.currentProfile(ctx, viewerID)
	if err != nil {
		return err
	}

	now := s.now()
	updated := current.Clone()
	s.applyEvent(updated, viewerID, itemID, categories, timeSpentSeconds, completed, now)

	if err := s.persistence.Save(ctx, viewerID, updated); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	s.mu.Lock()
	s.profiles[viewerID] = updated
	s.mu.Unlock()

	s.logger.Debug().
		Str("viewer_id", viewerID).
		Str("item_id", itemID).
		Int("time_spent_s", timeSpentSeconds).
		Bool("completed", completed).
		Msg("recorded reading event")

	return nil
}

// currentProfile returns the in-process profile for a viewer, loading it
// from persistence on first touch. Must be called with the viewer's shard
// lock held.
func (s *Store) currentProfile(ctx context.Context, viewerID string) (*rank.Profile, error) {
	s.mu.RLock()
	p, ok := s.profiles[viewerID]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	loaded, found, err := s.persistence.Load(ctx, viewerID)
	if err != nil {
		// Unlike reads, a write cannot proceed on a load fault: updating a
		// blank profile would silently discard accumulated signal.
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !found {
		loaded = rank.NewProfile()
	} else {
		normalizeLoaded(loaded)
	}

	s.mu.Lock()
	s.profiles[viewerID] = loaded
	s.mu.Unlock()

	return loaded, nil
}

// applyEvent mutates the profile with a single reading event.
func (s *Store) applyEvent(p *rank.Profile, viewerID, itemID string, categories []string, timeSpentSeconds int, completed bool, now time.Time) {
	cfg := s.cfg.Affinity

	engagement := float64(timeSpentSeconds) / float64(cfg.EngagementCapSeconds)
	if engagement > 1 {
		engagement = 1
	}

	normalized := normalizeCategories(categories)
	for _, cat := range normalized {
		base := cfg.MatchWeight
		if !completed {
			base *= 0.5
		}
		timeBonus := engagement * cfg.TimeWeight
		trend := p.CategoryTrend(cat, now, cfg.TrendWindow)
		completionRate := p.CategoryCompletionRate(cat, now, cfg.TrendWindow)

		delta := base + timeBonus + trend*cfg.TrendWeight + completionRate*cfg.CompletionWeight

		score := p.CategoryScores[cat]*cfg.TimeDecay + delta
		if score > cfg.MaxBoost {
			score = cfg.MaxBoost
		}
		if score < 0 {
			score = 0
		}
		p.CategoryScores[cat] = score
	}

	event := rank.ReadingEvent{
		ViewerID:         viewerID,
		ItemID:           itemID,
		Timestamp:        now,
		TimeSpentSeconds: timeSpentSeconds,
		Completed:        completed,
		Categories:       normalized,
	}
	p.History = append([]rank.ReadingEvent{event}, p.History...)
	if len(p.History) > cfg.MaxHistory {
		p.History = p.History[:cfg.MaxHistory]
	}

	p.LastReadItems = moveToFront(p.LastReadItems, itemID)
	if len(p.LastReadItems) > cfg.MaxLastRead {
		p.LastReadItems = p.LastReadItems[:cfg.MaxLastRead]
	}
}

// shardLock returns the lock serializing updates for a viewer.
func (s *Store) shardLock(viewerID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(viewerID))
	return &s.locks[h.Sum32()%lockShards]
}

// moveToFront prepends the item ID, removing any existing occurrence first.
func moveToFront(ids []string, itemID string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, itemID)
	for _, id := range ids {
		if id != itemID {
			out = append(out, id)
		}
	}
	return out
}

// normalizeCategories lowercases and trims categories, substituting the
// uncategorized label for empty sets.
func normalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if n := rank.NormalizeCategory(c); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return []string{rank.UncategorizedLabel}
	}
	return out
}

// normalizeLoaded repairs nil maps and slices on profiles decoded from
// persistence so the update path never touches nil state.
func normalizeLoaded(p *rank.Profile) {
	if p.CategoryScores == nil {
		p.CategoryScores = make(map[string]float64)
	}
	if p.LastReadItems == nil {
		p.LastReadItems = []string{}
	}
	if p.History == nil {
		p.History = []rank.ReadingEvent{}
	}
}
