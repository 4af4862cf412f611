// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package similar

import (
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/jthompson-dev/pulserank/internal/rank"
)

// tokenSplit splits text on runs of non-word characters.
var tokenSplit = regexp.MustCompile(`\W+`)

// Vectorizer converts item text into a simplified term-frequency vector:
// log(1+count) per token, in first-seen token order. It is not TF-IDF, but
// it is deterministic for identical text, which is all the similarity
// signal needs.
//
// Vectors are cached by item ID for the process lifetime. Item text is
// immutable once published from this engine's point of view, so the cache
// needs no invalidation; it is bounded only by process memory.
type Vectorizer struct {
	minTokenLength int

	mu    sync.RWMutex
	cache map[string][]float64
}

// NewVectorizer creates a vectorizer that discards tokens shorter than
// minTokenLength.
func NewVectorizer(minTokenLength int) *Vectorizer {
	if minTokenLength <= 0 {
		minTokenLength = 3
	}
	return &Vectorizer{
		minTokenLength: minTokenLength,
		cache:          make(map[string][]float64),
	}
}

// Vectorize returns the term-frequency vector for an item's title and
// body, computing and caching it on first use.
func (v *Vectorizer) Vectorize(item rank.ContentItem) []float64 {
	if item.ID != "" {
		v.mu.RLock()
		vec, ok := v.cache[item.ID]
		v.mu.RUnlock()
		if ok {
			return vec
		}
	}

	vec := v.vectorize(item.Title + " " + item.Body)

	if item.ID != "" {
		v.mu.Lock()
		v.cache[item.ID] = vec
		v.mu.Unlock()
	}
	return vec
}

// vectorize builds the vector from raw text.
func (v *Vectorizer) vectorize(text string) []float64 {
	tokens := tokenSplit.Split(strings.ToLower(text), -1)

	// Token order is first-seen; counts accumulate per token.
	order := make([]string, 0, len(tokens))
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		if len(tok) < v.minTokenLength {
			continue
		}
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	vec := make([]float64, len(order))
	for i, tok := range order {
		vec[i] = math.Log(1 + float64(counts[tok]))
	}
	return vec
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Vectors of different lengths, or with zero magnitude, are treated as
// incomparable and score 0 rather than erroring.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
