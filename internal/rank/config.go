// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package rank

import (
	"fmt"
	"time"
)

// Config contains all tuning parameters for the engine. The defaults are
// chosen so that relative orderings between otherwise-identical items are
// stable; individual weights may be tuned without code changes.
type Config struct {
	// Affinity contains parameters for the affinity profile store.
	Affinity AffinityConfig `json:"affinity" koanf:"affinity"`

	// Scoring contains parameters for the relevance scorer.
	Scoring ScoringConfig `json:"scoring" koanf:"scoring"`

	// Similarity contains parameters for the content-similarity recommender.
	Similarity SimilarityConfig `json:"similarity" koanf:"similarity"`

	// Trending contains parameters for the engagement calculator.
	Trending TrendingConfig `json:"trending" koanf:"trending"`

	// Cache contains parameters for the recommendation result cache.
	Cache CacheConfig `json:"cache" koanf:"cache"`
}

// AffinityConfig tunes how reading events update category scores.
type AffinityConfig struct {
	// MatchWeight is the base contribution of a completed read.
	// A non-completed read contributes half. Default: 3.
	MatchWeight float64 `json:"match_weight" koanf:"match_weight"`

	// TrendWeight scales the viewer's recent-category frequency.
	// Default: 2.
	TrendWeight float64 `json:"trend_weight" koanf:"trend_weight"`

	// TimeWeight scales the time-spent engagement factor.
	// Default: 2.
	TimeWeight float64 `json:"time_weight" koanf:"time_weight"`

	// CompletionWeight scales the recent completion rate.
	// Default: 1.5.
	CompletionWeight float64 `json:"completion_weight" koanf:"completion_weight"`

	// TimeDecay is the multiplier applied to the previous score on every
	// update (an EMA-style decay, not continuous in elapsed time).
	// Default: 0.8.
	TimeDecay float64 `json:"time_decay" koanf:"time_decay"`

	// MaxBoost is the upper bound for a category score. Default: 5.
	MaxBoost float64 `json:"max_boost" koanf:"max_boost"`

	// EngagementCapSeconds caps the time-spent contribution; reading longer
	// than this adds nothing further. Default: 180.
	EngagementCapSeconds int `json:"engagement_cap_seconds" koanf:"engagement_cap_seconds"`

	// TrendWindow is the lookback window for trend and completion-rate
	// signals. Default: 7 days.
	TrendWindow time.Duration `json:"trend_window" koanf:"trend_window"`

	// MaxHistory bounds the per-viewer event history. Default: 100.
	MaxHistory int `json:"max_history" koanf:"max_history"`

	// MaxLastRead bounds the per-viewer recently-read list. Default: 30.
	MaxLastRead int `json:"max_last_read" koanf:"max_last_read"`
}

// ScoringConfig tunes the relevance scorer.
type ScoringConfig struct {
	// DiversityBonus multiplies the score of items with more than one
	// distinct category. Default: 1.2.
	DiversityBonus float64 `json:"diversity_bonus" koanf:"diversity_bonus"`

	// EngagementWeight scales the capped raw engagement term. Default: 1.8.
	EngagementWeight float64 `json:"engagement_weight" koanf:"engagement_weight"`

	// EngagementCap bounds the raw engagement term before weighting.
	// Default: 10.
	EngagementCap float64 `json:"engagement_cap" koanf:"engagement_cap"`

	// RecencyPenalty scales the demotion applied to recently read items.
	// Default: 0.7.
	RecencyPenalty float64 `json:"recency_penalty" koanf:"recency_penalty"`

	// AgeDecayDays is the time constant of the exponential publish-age
	// decay; at this age the decay factor is about 0.37. Default: 30.
	AgeDecayDays float64 `json:"age_decay_days" koanf:"age_decay_days"`

	// TopCategories is how many of the item's highest category affinities
	// are summed, capping the influence of heavily tagged items. Default: 2.
	TopCategories int `json:"top_categories" koanf:"top_categories"`

	// CompletionWindow is how many of the viewer's most recent events are
	// examined for the coarse completion boost. Default: 20.
	CompletionWindow int `json:"completion_window" koanf:"completion_window"`
}

// SimilarityConfig tunes the content-similarity recommender.
type SimilarityConfig struct {
	// CategoryWeight is the blend weight of category frequency. Default: 0.3.
	CategoryWeight float64 `json:"category_weight" koanf:"category_weight"`

	// AuthorWeight is the blend weight of author frequency. Default: 0.2.
	AuthorWeight float64 `json:"author_weight" koanf:"author_weight"`

	// ContentWeight is the blend weight of text similarity. Default: 0.3.
	ContentWeight float64 `json:"content_weight" koanf:"content_weight"`

	// EngagementWeight is the blend weight of raw engagement. Default: 0.2.
	EngagementWeight float64 `json:"engagement_weight" koanf:"engagement_weight"`

	// RecentReads is how many recently read items the text-similarity
	// signal is averaged against. Default: 5.
	RecentReads int `json:"recent_reads" koanf:"recent_reads"`

	// MinTokenLength is the minimum token length kept by the vectorizer;
	// shorter tokens are discarded. Default: 3.
	MinTokenLength int `json:"min_token_length" koanf:"min_token_length"`

	// EngagementDivisor scales raw engagement counts down. Default: 100.
	EngagementDivisor float64 `json:"engagement_divisor" koanf:"engagement_divisor"`
}

// TrendingConfig tunes the engagement/trending calculator.
type TrendingConfig struct {
	// ViewWeight, UpvoteWeight, and CommentWeight scale the normalized
	// engagement components. Defaults: 1.0, 3.0, 2.0.
	ViewWeight    float64 `json:"view_weight" koanf:"view_weight"`
	UpvoteWeight  float64 `json:"upvote_weight" koanf:"upvote_weight"`
	CommentWeight float64 `json:"comment_weight" koanf:"comment_weight"`

	// RecencyBoost multiplies scores of items published within
	// RecencyWindow. Defaults: 1.2, 6h.
	RecencyBoost  float64       `json:"recency_boost" koanf:"recency_boost"`
	RecencyWindow time.Duration `json:"recency_window" koanf:"recency_window"`

	// DecayBase and DecayHorizonHours parameterize the logarithmic-in-time
	// decay pow(base, -ln(hours+1)/ln(horizon)). Defaults: 1.5, 24.
	DecayBase         float64 `json:"decay_base" koanf:"decay_base"`
	DecayHorizonHours float64 `json:"decay_horizon_hours" koanf:"decay_horizon_hours"`

	// RecentFraction approximates "recent" engagement as this fraction of
	// lifetime totals when no windowed telemetry is available. Default: 0.1.
	RecentFraction float64 `json:"recent_fraction" koanf:"recent_fraction"`

	// VelocityFloor and VelocityCeil clamp each per-metric velocity ratio.
	// Defaults: 0.5, 2.0.
	VelocityFloor float64 `json:"velocity_floor" koanf:"velocity_floor"`
	VelocityCeil  float64 `json:"velocity_ceil" koanf:"velocity_ceil"`

	// ViewVelocityWeight, UpvoteVelocityWeight, and CommentVelocityWeight
	// blend the per-metric velocities. Defaults: 0.5, 0.3, 0.2.
	ViewVelocityWeight    float64 `json:"view_velocity_weight" koanf:"view_velocity_weight"`
	UpvoteVelocityWeight  float64 `json:"upvote_velocity_weight" koanf:"upvote_velocity_weight"`
	CommentVelocityWeight float64 `json:"comment_velocity_weight" koanf:"comment_velocity_weight"`

	// VelocityAmplifier scales how strongly velocity deviations from 1.0
	// move the total score. Default: 2.0.
	VelocityAmplifier float64 `json:"velocity_amplifier" koanf:"velocity_amplifier"`

	// ScoreMultiple is how far above the corpus mean an item's score must
	// be to qualify as trending. Default: 1.5.
	ScoreMultiple float64 `json:"score_multiple" koanf:"score_multiple"`

	// VelocityThreshold is the minimum velocity to qualify as trending.
	// Default: 1.2.
	VelocityThreshold float64 `json:"velocity_threshold" koanf:"velocity_threshold"`
}

// CacheConfig tunes the per-viewer recommendation result cache.
type CacheConfig struct {
	// Enabled toggles result caching. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is how long a cached entry remains valid. Default: 15m.
	TTL time.Duration `json:"ttl" koanf:"ttl"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Affinity: AffinityConfig{
			MatchWeight:          3,
			TrendWeight:          2,
			TimeWeight:           2,
			CompletionWeight:     1.5,
			TimeDecay:            0.8,
			MaxBoost:             5,
			EngagementCapSeconds: 180,
			TrendWindow:          7 * 24 * time.Hour,
			MaxHistory:           100,
			MaxLastRead:          30,
		},
		Scoring: ScoringConfig{
			DiversityBonus:   1.2,
			EngagementWeight: 1.8,
			EngagementCap:    10,
			RecencyPenalty:   0.7,
			AgeDecayDays:     30,
			TopCategories:    2,
			CompletionWindow: 20,
		},
		Similarity: SimilarityConfig{
			CategoryWeight:    0.3,
			AuthorWeight:      0.2,
			ContentWeight:     0.3,
			EngagementWeight:  0.2,
			RecentReads:       5,
			MinTokenLength:    3,
			EngagementDivisor: 100,
		},
		Trending: TrendingConfig{
			ViewWeight:            1.0,
			UpvoteWeight:          3.0,
			CommentWeight:         2.0,
			RecencyBoost:          1.2,
			RecencyWindow:         6 * time.Hour,
			DecayBase:             1.5,
			DecayHorizonHours:     24,
			RecentFraction:        0.1,
			VelocityFloor:         0.5,
			VelocityCeil:          2.0,
			ViewVelocityWeight:    0.5,
			UpvoteVelocityWeight:  0.3,
			CommentVelocityWeight: 0.2,
			VelocityAmplifier:     2.0,
			ScoreMultiple:         1.5,
			VelocityThreshold:     1.2,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Affinity.MatchWeight < 0 || c.Affinity.TrendWeight < 0 ||
		c.Affinity.TimeWeight < 0 || c.Affinity.CompletionWeight < 0 {
		return fmt.Errorf("affinity weights must be non-negative")
	}
	if c.Affinity.TimeDecay <= 0 || c.Affinity.TimeDecay > 1 {
		return fmt.Errorf("affinity time_decay must be in (0, 1], got %f", c.Affinity.TimeDecay)
	}
	if c.Affinity.MaxBoost <= 0 {
		return fmt.Errorf("affinity max_boost must be positive, got %f", c.Affinity.MaxBoost)
	}
	if c.Affinity.EngagementCapSeconds <= 0 {
		return fmt.Errorf("affinity engagement_cap_seconds must be positive, got %d", c.Affinity.EngagementCapSeconds)
	}
	if c.Affinity.TrendWindow <= 0 {
		return fmt.Errorf("affinity trend_window must be positive, got %s", c.Affinity.TrendWindow)
	}
	if c.Affinity.MaxHistory <= 0 {
		return fmt.Errorf("affinity max_history must be positive, got %d", c.Affinity.MaxHistory)
	}
	if c.Affinity.MaxLastRead <= 0 {
		return fmt.Errorf("affinity max_last_read must be positive, got %d", c.Affinity.MaxLastRead)
	}
	if c.Scoring.DiversityBonus < 1 {
		return fmt.Errorf("scoring diversity_bonus must be >= 1, got %f", c.Scoring.DiversityBonus)
	}
	if c.Scoring.TopCategories <= 0 {
		return fmt.Errorf("scoring top_categories must be positive, got %d", c.Scoring.TopCategories)
	}
	if c.Scoring.AgeDecayDays <= 0 {
		return fmt.Errorf("scoring age_decay_days must be positive, got %f", c.Scoring.AgeDecayDays)
	}
	if c.Scoring.CompletionWindow <= 0 {
		return fmt.Errorf("scoring completion_window must be positive, got %d", c.Scoring.CompletionWindow)
	}
	if c.Similarity.RecentReads <= 0 {
		return fmt.Errorf("similarity recent_reads must be positive, got %d", c.Similarity.RecentReads)
	}
	if c.Similarity.MinTokenLength <= 0 {
		return fmt.Errorf("similarity min_token_length must be positive, got %d", c.Similarity.MinTokenLength)
	}
	if c.Similarity.EngagementDivisor <= 0 {
		return fmt.Errorf("similarity engagement_divisor must be positive, got %f", c.Similarity.EngagementDivisor)
	}
	if c.Trending.VelocityFloor <= 0 || c.Trending.VelocityCeil < c.Trending.VelocityFloor {
		return fmt.Errorf("trending velocity clamp [%f, %f] is invalid", c.Trending.VelocityFloor, c.Trending.VelocityCeil)
	}
	if c.Trending.RecentFraction <= 0 || c.Trending.RecentFraction > 1 {
		return fmt.Errorf("trending recent_fraction must be in (0, 1], got %f", c.Trending.RecentFraction)
	}
	if c.Trending.DecayBase <= 1 {
		return fmt.Errorf("trending decay_base must be > 1, got %f", c.Trending.DecayBase)
	}
	if c.Trending.DecayHorizonHours <= 1 {
		return fmt.Errorf("trending decay_horizon_hours must be > 1, got %f", c.Trending.DecayHorizonHours)
	}
	if c.Trending.ScoreMultiple <= 0 {
		return fmt.Errorf("trending score_multiple must be positive, got %f", c.Trending.ScoreMultiple)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	return nil
}

// Clone returns a copy of the configuration. Config contains only value
// fields, so a shallow copy is a full copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
