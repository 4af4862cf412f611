// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package rank

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative match weight", func(c *Config) { c.Affinity.MatchWeight = -1 }},
		{"time decay above one", func(c *Config) { c.Affinity.TimeDecay = 1.5 }},
		{"zero time decay", func(c *Config) { c.Affinity.TimeDecay = 0 }},
		{"zero max boost", func(c *Config) { c.Affinity.MaxBoost = 0 }},
		{"zero engagement cap", func(c *Config) { c.Affinity.EngagementCapSeconds = 0 }},
		{"zero trend window", func(c *Config) { c.Affinity.TrendWindow = 0 }},
		{"zero max history", func(c *Config) { c.Affinity.MaxHistory = 0 }},
		{"diversity bonus below one", func(c *Config) { c.Scoring.DiversityBonus = 0.9 }},
		{"zero top categories", func(c *Config) { c.Scoring.TopCategories = 0 }},
		{"zero age decay", func(c *Config) { c.Scoring.AgeDecayDays = 0 }},
		{"zero recent reads", func(c *Config) { c.Similarity.RecentReads = 0 }},
		{"zero min token length", func(c *Config) { c.Similarity.MinTokenLength = 0 }},
		{"inverted velocity clamp", func(c *Config) { c.Trending.VelocityCeil = 0.1 }},
		{"recent fraction above one", func(c *Config) { c.Trending.RecentFraction = 2 }},
		{"decay base at one", func(c *Config) { c.Trending.DecayBase = 1 }},
		{"zero score multiple", func(c *Config) { c.Trending.ScoreMultiple = 0 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	cp := cfg.Clone()
	cp.Affinity.MatchWeight = 42

	if cfg.Affinity.MatchWeight == 42 {
		t.Error("clone mutation leaked into original")
	}
}
