// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

// Package trending implements the engagement calculator: viewer-independent,
// corpus-relative scoring that answers "how hot is this item right now" and
// "is it trending".
//
// Scores are ephemeral and computed per (item, corpus snapshot) pair; two
// calls with the same inputs return the same result. Engagement components
// are normalized against corpus maxima, decayed logarithmically in publish
// age, and amplified by velocity. An empty corpus and zero maxima degrade
// every function to 0 rather than NaN.
package trending

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/jthompson-dev/pulserank/internal/rank"
)

// RecentMetricsFunc supplies an item's recent view, upvote, and comment
// counts for velocity. The default implementation approximates "recent" as
// a fixed fraction of lifetime totals; inject real time-windowed telemetry
// here to replace the approximation without touching the scoring formulas.
type RecentMetricsFunc func(item rank.ContentItem) (views, upvotes, comments int64)

// Calculator computes corpus-relative engagement scores. It is stateless
// apart from configuration and safe for concurrent use.
type Calculator struct {
	cfg    *rank.Config
	recent RecentMetricsFunc

	// now is injectable for tests.
	now func() time.Time
}

// New creates an engagement calculator with the default recent-metrics
// approximation.
func New(cfg *rank.Config) *Calculator {
	if cfg == nil {
		cfg = rank.DefaultConfig()
	}
	c := &Calculator{
		cfg: cfg,
		now: time.Now,
	}
	c.recent = c.approximateRecent
	return c
}

// SetRecentMetrics replaces the recent-metrics source.
func (c *Calculator) SetRecentMetrics(fn RecentMetricsFunc) {
	if fn != nil {
		c.recent = fn
	}
}

// approximateRecent estimates recent engagement as a fixed fraction of
// lifetime totals, floored at 1 so ratios stay defined for tiny counts.
func (c *Calculator) approximateRecent(item rank.ContentItem) (views, upvotes, comments int64) {
	f := c.cfg.Trending.RecentFraction
	return approxFraction(item.Views, f), approxFraction(item.Upvotes, f), approxFraction(item.Comments, f)
}

func approxFraction(total int64, fraction float64) int64 {
	if total < 0 {
		total = 0
	}
	v := int64(math.Round(float64(total) * fraction))
	if v < 1 {
		return 1
	}
	return v
}

// TimeDecay returns pow(base, -ln(hoursSincePublish+1)/ln(horizon)): a
// logarithmic-in-time decay, intentionally gentler over long horizons than
// over the first day. Zero or future publish timestamps decay nothing.
func (c *Calculator) TimeDecay(item rank.ContentItem, now time.Time) float64 {
	hours := hoursSincePublish(item.PublishedAt, now)
	return math.Pow(c.cfg.Trending.DecayBase, -math.Log(hours+1)/math.Log(c.cfg.Trending.DecayHorizonHours))
}

// Velocity returns the item's recent engagement share relative to the
// expected share (RecentFraction), blended across views, upvotes, and
// comments, each ratio clamped to the configured range. An item accruing
// exactly the expected recent share scores a neutral 1.0; a metric with
// zero lifetime total also contributes a neutral 1.0.
func (c *Calculator) Velocity(item rank.ContentItem) float64 {
	cfg := c.cfg.Trending
	recentViews, recentUpvotes, recentComments := c.recent(item)

	viewV := c.clampRatio(recentViews, item.Views)
	upvoteV := c.clampRatio(recentUpvotes, item.Upvotes)
	commentV := c.clampRatio(recentComments, item.Comments)

	return cfg.ViewVelocityWeight*viewV +
		cfg.UpvoteVelocityWeight*upvoteV +
		cfg.CommentVelocityWeight*commentV
}

// clampRatio computes (recent/total)/RecentFraction clamped to
// [floor, ceil], treating a zero total as neutral.
func (c *Calculator) clampRatio(recent, total int64) float64 {
	if total <= 0 {
		return 1.0
	}
	ratio := float64(recent) / float64(total) / c.cfg.Trending.RecentFraction
	if ratio < c.cfg.Trending.VelocityFloor {
		return c.cfg.Trending.VelocityFloor
	}
	if ratio > c.cfg.Trending.VelocityCeil {
		return c.cfg.Trending.VelocityCeil
	}
	return ratio
}

// Normalize maps a value into [0, 1] relative to the corpus maximum using
// log scaling. Returns 0 when the maximum is 0.
func Normalize(value, maxInCorpus float64) float64 {
	if maxInCorpus <= 0 {
		return 0
	}
	if value < 0 {
		value = 0
	}
	return math.Log(value+1) / math.Log(maxInCorpus+1)
}

// EngagementScore computes the item's corpus-relative engagement score.
func (c *Calculator) EngagementScore(item rank.ContentItem, corpus []rank.ContentItem) float64 {
	maxViews, maxUpvotes, maxComments := corpusMaxima(corpus)
	return c.score(item, maxViews, maxUpvotes, maxComments, c.now())
}

// score computes the engagement score against precomputed corpus maxima.
func (c *Calculator) score(item rank.ContentItem, maxViews, maxUpvotes, maxComments float64, now time.Time) float64 {
	cfg := c.cfg.Trending
	decay := c.TimeDecay(item, now)

	viewScore := Normalize(float64(item.Views), maxViews) * cfg.ViewWeight * decay
	upvoteScore := Normalize(float64(item.Upvotes), maxUpvotes) * cfg.UpvoteWeight * decay
	commentScore := Normalize(float64(item.Comments), maxComments) * cfg.CommentWeight * decay

	recencyBoost := 1.0
	if hoursSincePublish(item.PublishedAt, now) <= cfg.RecencyWindow.Hours() {
		recencyBoost = cfg.RecencyBoost
	}

	velocity := c.Velocity(item)
	total := (viewScore + upvoteScore + commentScore) * recencyBoost * (1 + (velocity-1)*cfg.VelocityAmplifier)

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return total
}

// IsTrending reports whether the item's score is well above the corpus mean
// AND the item is still accelerating. Both gates are required: a high
// absolute score from an old, no-longer-accelerating item is not trending.
func (c *Calculator) IsTrending(item rank.ContentItem, corpus []rank.ContentItem) bool {
	if len(corpus) == 0 {
		return false
	}

	now := c.now()
	maxViews, maxUpvotes, maxComments := corpusMaxima(corpus)

	var sum float64
	for i := range corpus {
		sum += c.score(corpus[i], maxViews, maxUpvotes, maxComments, now)
	}
	mean := sum / float64(len(corpus))

	itemScore := c.score(item, maxViews, maxUpvotes, maxComments, now)
	if itemScore <= mean*c.cfg.Trending.ScoreMultiple {
		return false
	}
	return c.Velocity(item) > c.cfg.Trending.VelocityThreshold
}

// Rank scores every corpus item and returns them sorted by descending
// engagement, ties broken by more recent publish date, then item ID.
func (c *Calculator) Rank(ctx context.Context, corpus []rank.ContentItem) ([]rank.ScoredItem, error) {
	now := c.now()
	maxViews, maxUpvotes, maxComments := corpusMaxima(corpus)

	scored := make([]rank.ScoredItem, 0, len(corpus))
	for i := range corpus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scored = append(scored, rank.ScoredItem{
			Item:  corpus[i],
			Score: c.score(corpus[i], maxViews, maxUpvotes, maxComments, now),
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

	return scored, nil
}

// Evaluation is the result of scoring one corpus item.
type Evaluation struct {
	Item     rank.ContentItem `json:"item"`
	Score    float64          `json:"score"`
	Velocity float64          `json:"velocity"`
	Trending bool             `json:"trending"`
}

// Evaluate scores every corpus item and classifies each as trending or
// not against the corpus mean, ordered by descending score with the same
// tie-breaks as Rank.
func (c *Calculator) Evaluate(ctx context.Context, corpus []rank.ContentItem) ([]Evaluation, error) {
	scored, err := c.Rank(ctx, corpus)
	if err != nil {
		return nil, err
	}

	var sum float64
	for i := range scored {
		sum += scored[i].Score
	}
	mean := 0.0
	if len(scored) > 0 {
		mean = sum / float64(len(scored))
	}

	out := make([]Evaluation, 0, len(scored))
	for i := range scored {
		velocity := c.Velocity(scored[i].Item)
		out = append(out, Evaluation{
			Item:     scored[i].Item,
			Score:    scored[i].Score,
			Velocity: velocity,
			Trending: scored[i].Score > mean*c.cfg.Trending.ScoreMultiple &&
				velocity > c.cfg.Trending.VelocityThreshold,
		})
	}
	return out, nil
}

// corpusMaxima returns the maximum view, upvote, and comment counts in the
// corpus, treating negative counts as zero.
func corpusMaxima(corpus []rank.ContentItem) (maxViews, maxUpvotes, maxComments float64) {
	for i := range corpus {
		if v := float64(corpus[i].Views); v > maxViews {
			maxViews = v
		}
		if v := float64(corpus[i].Upvotes); v > maxUpvotes {
			maxUpvotes = v
		}
		if v := float64(corpus[i].Comments); v > maxComments {
			maxComments = v
		}
	}
	return maxViews, maxUpvotes, maxComments
}

// hoursSincePublish returns the non-negative hours since publish; zero and
// future timestamps degrade to "now".
func hoursSincePublish(publishedAt, now time.Time) float64 {
	if publishedAt.IsZero() || publishedAt.After(now) {
		return 0
	}
	return now.Sub(publishedAt).Hours()
}
