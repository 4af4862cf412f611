// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package scorer implements the relevance scorer: a pure function ranking
// candidate items for one viewer from profile affinity, engagement, and
// publish age, without text similarity.
package scorer

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jthompson-dev/pulserank/internal/rank"
)

// Scorer ranks candidate items against an affinity profile. Scoring has no
// shared mutable state and is safe to evaluate concurrently across items.
type Scorer struct {
	cfg    *rank.Config
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates a relevance scorer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *rank.Config, logger zerolog.Logger) *Scorer {
	if cfg == nil {
		cfg = rank.DefaultConfig()
	}
	return &Scorer{
		cfg:    cfg,
		logger: logger.With().Str("component", "scorer").Logger(),
		now:    time.Now,
	}
}

// Score computes the relevance of an item for the given profile at the
// given instant. Higher is more relevant. Malformed inputs (missing
// categories, negative counts, zero timestamps) degrade to neutral
// contributions; the result is never NaN or infinite.
func (s *Scorer) Score(p *rank.Profile, item rank.ContentItem, now time.Time) float64 {
	if p == nil {
		p = rank.NewProfile()
	}
	cfg := s.cfg.Scoring
	affinityCfg := s.cfg.Affinity

	categories := distinct(item.NormalizedCategories())

	// Category affinity, capped to the strongest few categories so heavily
	// tagged items gain no unbounded advantage.
	affinities := make([]float64, 0, len(categories))
	for _, cat := range categories {
		trend := p.CategoryTrend(cat, now, affinityCfg.TrendWindow)
		affinities = append(affinities, p.CategoryScores[cat]*affinityCfg.MatchWeight*(1+trend*affinityCfg.TrendWeight))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(affinities)))

	score := 0.0
	for i, a := range affinities {
		if i >= cfg.TopCategories {
			break
		}
		score += a
	}

	if len(categories) > 1 {
		score *= cfg.DiversityBonus
	}

	score += s.engagementTerm(item) * cfg.EngagementWeight

	score *= ageDecay(item.PublishedAt, now, cfg.AgeDecayDays)

	// Recently read items are demoted, not excluded: the most recent read
	// takes the largest penalty, the oldest tracked read the smallest.
	if idx := p.LastReadIndex(item.ID); idx >= 0 {
		score -= (float64(affinityCfg.MaxLastRead) - float64(idx)) * cfg.RecencyPenalty
		if score < 0 {
			score = 0
		}
	}

	if s.completionBoostApplies(p, categories) {
		score *= affinityCfg.CompletionWeight
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// engagementTerm returns the capped raw engagement contribution.
func (s *Scorer) engagementTerm(item rank.ContentItem) float64 {
	views := clampNonNegative(item.Views)
	upvotes := clampNonNegative(item.Upvotes)
	comments := clampNonNegative(item.Comments)

	raw := float64(upvotes)*2 + float64(views)/10 + float64(comments)*3
	if raw > s.cfg.Scoring.EngagementCap {
		raw = s.cfg.Scoring.EngagementCap
	}
	return raw
}

// completionBoostApplies reports whether any of the item's categories has,
// among the viewer's most recent events, a completion rate above the
// viewer's overall completion rate over that same window. This is a second,
// coarser completion signal, distinct from the one folded into the profile
// update.
func (s *Scorer) completionBoostApplies(p *rank.Profile, categories []string) bool {
	window := p.History
	if len(window) > s.cfg.Scoring.CompletionWindow {
		window = window[:s.cfg.Scoring.CompletionWindow]
	}
	if len(window) == 0 {
		return false
	}

	var completed int
	for i := range window {
		if window[i].Completed {
			completed++
		}
	}
	overall := float64(completed) / float64(len(window))

	for _, cat := range categories {
		var inCat, completedInCat int
		for i := range window {
			if !window[i].HasCategory(cat) {
				continue
			}
			inCat++
			if window[i].Completed {
				completedInCat++
			}
		}
		if inCat == 0 {
			continue
		}
		if float64(completedInCat)/float64(inCat) > overall {
			return true
		}
	}
	return false
}

// RankForViewer scores the candidate items in parallel and returns them
// sorted by descending relevance. Ties break toward the more recently
// published item, then lexically by item ID, so repeated calls with the
// same inputs return the same order.
func (s *Scorer) RankForViewer(ctx context.Context, p *rank.Profile, items []rank.ContentItem) ([]rank.ScoredItem, error) {
	now := s.now()
	scored := make([]rank.ScoredItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range items {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored[i] = rank.ScoredItem{
				Item:  items[i],
				Score: s.Score(p, items[i], now),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
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

	return scored, nil
}

// ageDecay returns exp(-daysSincePublish/decayDays). Zero or future publish
// timestamps decay nothing.
func ageDecay(publishedAt, now time.Time, decayDays float64) float64 {
	if publishedAt.IsZero() || publishedAt.After(now) {
		return 1
	}
	days := now.Sub(publishedAt).Hours() / 24
	return math.Exp(-days / decayDays)
}

// distinct deduplicates a normalized category list, preserving order.
func distinct(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// clampNonNegative treats malformed negative counts as zero.
func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
