// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package rank

import (
	"testing"
	"time"
)

func TestNormalizedCategories(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		want       []string
	}{
		{
			name:       "lowercases and trims",
			categories: []string{" Tech ", "SCIENCE"},
			want:       []string{"tech", "science"},
		},
		{
			name:       "drops empty entries",
			categories: []string{"", "  ", "tech"},
			want:       []string{"tech"},
		},
		{
			name:       "empty set becomes uncategorized",
			categories: nil,
			want:       []string{UncategorizedLabel},
		},
		{
			name:       "all-blank set becomes uncategorized",
			categories: []string{"", "   "},
			want:       []string{UncategorizedLabel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := ContentItem{Categories: tt.categories}
			got := item.NormalizedCategories()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("category %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProfileClone(t *testing.T) {
	p := NewProfile()
	p.CategoryScores["tech"] = 2.5
	p.LastReadItems = []string{"a", "b"}
	p.History = []ReadingEvent{{ItemID: "a", Categories: []string{"tech"}}}

	cp := p.Clone()
	cp.CategoryScores["tech"] = 99
	cp.LastReadItems[0] = "z"
	cp.History[0].ItemID = "z"

	if p.CategoryScores["tech"] != 2.5 {
		t.Errorf("clone mutation leaked into original scores: %f", p.CategoryScores["tech"])
	}
	if p.LastReadItems[0] != "a" {
		t.Errorf("clone mutation leaked into original last-read list: %q", p.LastReadItems[0])
	}
	if p.History[0].ItemID != "a" {
		t.Errorf("clone mutation leaked into original history: %q", p.History[0].ItemID)
	}
}

func TestCategoryTrend(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	p := NewProfile()
	p.History = []ReadingEvent{
		{ItemID: "a", Timestamp: now.Add(-time.Hour), Categories: []string{"tech"}},
		{ItemID: "b", Timestamp: now.Add(-2 * time.Hour), Categories: []string{"tech"}},
		{ItemID: "c", Timestamp: now.Add(-3 * time.Hour), Categories: []string{"sports"}},
		// Outside the window; must not count.
		{ItemID: "d", Timestamp: now.Add(-8 * 24 * time.Hour), Categories: []string{"sports"}},
	}

	tests := []struct {
		name     string
		category string
		want     float64
	}{
		{"majority category", "tech", 2.0 / 3.0},
		{"minority category", "sports", 1.0 / 3.0},
		{"unseen category", "cooking", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CategoryTrend(tt.category, now, window)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CategoryTrend(%q) = %f, want %f", tt.category, got, tt.want)
			}
		})
	}

	t.Run("empty history", func(t *testing.T) {
		if got := NewProfile().CategoryTrend("tech", now, window); got != 0 {
			t.Errorf("empty profile trend = %f, want 0", got)
		}
	})
}

func TestCategoryCompletionRate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	p := NewProfile()
	p.History = []ReadingEvent{
		{ItemID: "a", Timestamp: now.Add(-time.Hour), Categories: []string{"tech"}, Completed: true},
		{ItemID: "b", Timestamp: now.Add(-2 * time.Hour), Categories: []string{"tech"}, Completed: false},
		{ItemID: "c", Timestamp: now.Add(-3 * time.Hour), Categories: []string{"sports"}, Completed: false},
	}

	if got := p.CategoryCompletionRate("tech", now, window); got != 0.5 {
		t.Errorf("tech completion rate = %f, want 0.5", got)
	}
	if got := p.CategoryCompletionRate("sports", now, window); got != 0 {
		t.Errorf("sports completion rate = %f, want 0", got)
	}
	if got := p.CategoryCompletionRate("cooking", now, window); got != 0 {
		t.Errorf("unseen category completion rate = %f, want 0", got)
	}
}

func TestLastReadIndex(t *testing.T) {
	p := NewProfile()
	p.LastReadItems = []string{"newest", "middle", "oldest"}

	tests := []struct {
		itemID string
		want   int
	}{
		{"newest", 0},
		{"middle", 1},
		{"oldest", 2},
		{"absent", -1},
	}

	for _, tt := range tests {
		if got := p.LastReadIndex(tt.itemID); got != tt.want {
			t.Errorf("LastReadIndex(%q) = %d, want %d", tt.itemID, got, tt.want)
		}
	}
}
