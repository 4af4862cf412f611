// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package rank

import (
	"strings"
	"time"
)

// UncategorizedLabel is the pseudo-category assigned to items published
// without any category. It keeps profile updates well-defined for such
// items while contributing no affinity during scoring.
const UncategorizedLabel = "uncategorized"

// ContentItem is an immutable snapshot of a published content item.
// Snapshots are supplied per request by the content subsystem; the engine
// never mutates them and never writes counts back.
type ContentItem struct {
	// ID is the unique, stable content identifier.
	ID string `json:"id"`

	// Title is the content title.
	Title string `json:"title"`

	// Body is the full text body.
	Body string `json:"body"`

	// Categories is the item's category set. Order is irrelevant. An empty
	// set is allowed and treated as uncategorized.
	Categories []string `json:"categories"`

	// AuthorID identifies the author.
	AuthorID string `json:"author_id"`

	// PublishedAt is the publish timestamp.
	PublishedAt time.Time `json:"published_at"`

	// Views is the lifetime view count (monotonic non-decreasing).
	Views int64 `json:"views"`

	// Upvotes is the lifetime upvote count (monotonic non-decreasing).
	Upvotes int64 `json:"upvotes"`

	// Comments is the comment count.
	Comments int64 `json:"comments"`
}

// NormalizedCategories returns the item's categories lowercased and
// trimmed, with empty entries dropped. Items with no usable category get
// the single UncategorizedLabel entry.
func (c ContentItem) NormalizedCategories() []string {
	out := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if n := NormalizeCategory(cat); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return []string{UncategorizedLabel}
	}
	return out
}

// NormalizeCategory canonicalizes a category label for map lookups.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// ReadingEvent records a single content consumption by a viewer.
// Events are append-only and never mutated after creation.
type ReadingEvent struct {
	// ViewerID identifies the viewer.
	ViewerID string `json:"viewer_id"`

	// ItemID is the consumed item.
	ItemID string `json:"item_id"`

	// Timestamp is when the read occurred.
	Timestamp time.Time `json:"timestamp"`

	// TimeSpentSeconds is how long the viewer spent reading.
	TimeSpentSeconds int `json:"time_spent_seconds"`

	// Completed reports whether the viewer finished the item.
	Completed bool `json:"completed"`

	// Categories is the item's category set at read time.
	Categories []string `json:"categories"`
}

// HasCategory reports whether the event's category set contains the given
// normalized category.
func (e ReadingEvent) HasCategory(category string) bool {
	for _, c := range e.Categories {
		if NormalizeCategory(c) == category {
			return true
		}
	}
	return false
}

// Profile is a viewer's accumulated preference state. Profiles are created
// lazily on first event with all-empty defaults and are mutated only through
// the profile store's record operation.
type Profile struct {
	// CategoryScores maps normalized category to an affinity score bounded
	// to [0, MaxBoost].
	CategoryScores map[string]float64 `json:"category_scores"`

	// LastReadItems is the viewer's recently read item IDs, most recent
	// first, capped at the configured maximum.
	LastReadItems []string `json:"last_read_items"`

	// History is the viewer's reading events, most recent first, capped at
	// the configured maximum.
	History []ReadingEvent `json:"history"`
}

// NewProfile returns an empty profile.
func NewProfile() *Profile {
	return &Profile{
		CategoryScores: make(map[string]float64),
		LastReadItems:  []string{},
		History:        []ReadingEvent{},
	}
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	cp := &Profile{
		CategoryScores: make(map[string]float64, len(p.CategoryScores)),
		LastReadItems:  make([]string, len(p.LastReadItems)),
		History:        make([]ReadingEvent, len(p.History)),
	}
	for k, v := range p.CategoryScores {
		cp.CategoryScores[k] = v
	}
	copy(cp.LastReadItems, p.LastReadItems)
	copy(cp.History, p.History)
	return cp
}

// CategoryTrend returns the fraction of the viewer's reading events within
// the window that include the given category. Returns 0 if the viewer has
// no events in the window.
func (p *Profile) CategoryTrend(category string, now time.Time, window time.Duration) float64 {
	cutoff := now.Add(-window)
	var recent, matching int
	for i := range p.History {
		if p.History[i].Timestamp.Before(cutoff) {
			continue
		}
		recent++
		if p.History[i].HasCategory(category) {
			matching++
		}
	}
	if recent == 0 {
		return 0
	}
	return float64(matching) / float64(recent)
}

// CategoryCompletionRate returns the fraction of the viewer's reading events
// within the window that are in the given category and were completed,
// relative to all windowed events in that category. Returns 0 if the viewer
// has no windowed events in the category.
func (p *Profile) CategoryCompletionRate(category string, now time.Time, window time.Duration) float64 {
	cutoff := now.Add(-window)
	var inCategory, completed int
	for i := range p.History {
		if p.History[i].Timestamp.Before(cutoff) {
			continue
		}
		if !p.History[i].HasCategory(category) {
			continue
		}
		inCategory++
		if p.History[i].Completed {
			completed++
		}
	}
	if inCategory == 0 {
		return 0
	}
	return float64(completed) / float64(inCategory)
}

// LastReadIndex returns the position of the item in LastReadItems (0 is the
// most recent read), or -1 if absent.
func (p *Profile) LastReadIndex(itemID string) int {
	for i, id := range p.LastReadItems {
		if id == itemID {
			return i
		}
	}
	return -1
}

// ScoredItem pairs a content item with a computed relevance or engagement
// score. Higher scores rank earlier.
type ScoredItem struct {
	Item  ContentItem `json:"item"`
	Score float64     `json:"score"`
}
