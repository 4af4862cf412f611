// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jthompson-dev/pulserank/internal/rank"
)

// memoryPersistence is an in-memory Persistence with injectable faults.
type memoryPersistence struct {
	mu       sync.Mutex
	profiles map[string]*rank.Profile
	loadErr  error
	saveErr  error
	saves    int
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{profiles: make(map[string]*rank.Profile)}
}

func (m *memoryPersistence) Load(_ context.Context, viewerID string) (*rank.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	p, ok := m.profiles[viewerID]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *memoryPersistence) Save(_ context.Context, viewerID string, p *rank.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.profiles[viewerID] = p.Clone()
	m.saves++
	return nil
}

func newTestStore(t *testing.T, persistence Persistence) *Store {
	t.Helper()
	return NewStore(rank.DefaultConfig(), persistence, zerolog.Nop())
}

func TestGetProfileUnknownViewer(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())

	p, err := s.GetProfile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.CategoryScores) != 0 || len(p.History) != 0 || len(p.LastReadItems) != 0 {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestGetProfileLoadFaultDegrades(t *testing.T) {
	mem := newMemoryPersistence()
	mem.loadErr = errors.New("disk on fire")
	s := newTestStore(t, mem)

	p, err := s.GetProfile(context.Background(), "viewer-1")
	if err == nil {
		t.Fatal("expected error from load fault")
	}
	if p == nil || len(p.CategoryScores) != 0 {
		t.Errorf("expected usable empty profile alongside the error, got %+v", p)
	}
}

func TestRecordReadingEventBuildsAffinity(t *testing.T) {
	mem := newMemoryPersistence()
	s := newTestStore(t, mem)
	ctx := context.Background()

	// Five completed tech reads against one abandoned lifestyle skim.
	for i := 0; i < 5; i++ {
		itemID := fmt.Sprintf("tech-%d", i)
		if err := s.RecordReadingEvent(ctx, "viewer-1", itemID, []string{"tech"}, 120, true); err != nil {
			t.Fatalf("record tech event: %v", err)
		}
	}
	if err := s.RecordReadingEvent(ctx, "viewer-1", "life-1", []string{"lifestyle"}, 5, false); err != nil {
		t.Fatalf("record lifestyle event: %v", err)
	}

	p, err := s.GetProfile(ctx, "viewer-1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}

	tech := p.CategoryScores["tech"]
	lifestyle := p.CategoryScores["lifestyle"]
	if tech <= lifestyle {
		t.Errorf("tech affinity %f should exceed lifestyle affinity %f", tech, lifestyle)
	}
	if tech > s.cfg.Affinity.MaxBoost {
		t.Errorf("tech affinity %f exceeds max boost %f", tech, s.cfg.Affinity.MaxBoost)
	}
	if len(p.History) != 6 {
		t.Errorf("history length = %d, want 6", len(p.History))
	}
	if p.History[0].ItemID != "life-1" {
		t.Errorf("history not most-recent-first: %q", p.History[0].ItemID)
	}
	if p.LastReadItems[0] != "life-1" {
		t.Errorf("last-read not most-recent-first: %q", p.LastReadItems[0])
	}
}

func TestRecordReadingEventCapsEngagement(t *testing.T) {
	ctx := context.Background()

	scoreAfter := func(timeSpent int) float64 {
		s := newTestStore(t, newMemoryPersistence())
		if err := s.RecordReadingEvent(ctx, "v", "item", []string{"tech"}, timeSpent, true); err != nil {
			t.Fatalf("record event: %v", err)
		}
		p, _ := s.GetProfile(ctx, "v")
		return p.CategoryScores["tech"]
	}

	atCap := scoreAfter(180)
	beyondCap := scoreAfter(3600)
	if atCap != beyondCap {
		t.Errorf("time spent beyond the cap changed the score: %f vs %f", atCap, beyondCap)
	}
	if scoreAfter(10) >= atCap {
		t.Error("shorter reads should score below the cap")
	}
}

func TestRecordReadingEventEmptyCategories(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())
	ctx := context.Background()

	if err := s.RecordReadingEvent(ctx, "v", "item", nil, 60, true); err != nil {
		t.Fatalf("record event: %v", err)
	}

	p, _ := s.GetProfile(ctx, "v")
	if _, ok := p.CategoryScores[rank.UncategorizedLabel]; !ok {
		t.Errorf("expected %q pseudo-category, got %v", rank.UncategorizedLabel, p.CategoryScores)
	}
}

func TestRecordReadingEventValidation(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())
	ctx := context.Background()

	if err := s.RecordReadingEvent(ctx, "", "item", nil, 60, true); err == nil {
		t.Error("expected error for empty viewer id")
	}
	if err := s.RecordReadingEvent(ctx, "v", "", nil, 60, true); err == nil {
		t.Error("expected error for empty item id")
	}
	// Negative time spent is clamped, not rejected.
	if err := s.RecordReadingEvent(ctx, "v", "item", nil, -5, true); err != nil {
		t.Errorf("negative time spent should clamp to zero, got error: %v", err)
	}
}

func TestHistoryAndLastReadBounded(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())
	ctx := context.Background()
	cfg := s.cfg.Affinity

	for i := 0; i < cfg.MaxHistory+10; i++ {
		itemID := fmt.Sprintf("item-%d", i)
		if err := s.RecordReadingEvent(ctx, "v", itemID, []string{"tech"}, 30, true); err != nil {
			t.Fatalf("record event %d: %v", i, err)
		}
	}

	p, _ := s.GetProfile(ctx, "v")
	if len(p.History) != cfg.MaxHistory {
		t.Errorf("history length = %d, want %d", len(p.History), cfg.MaxHistory)
	}
	if len(p.LastReadItems) != cfg.MaxLastRead {
		t.Errorf("last-read length = %d, want %d", len(p.LastReadItems), cfg.MaxLastRead)
	}
	// Newest survives, oldest is evicted.
	last := fmt.Sprintf("item-%d", cfg.MaxHistory+9)
	if p.History[0].ItemID != last {
		t.Errorf("newest event missing from history: %q", p.History[0].ItemID)
	}
	if p.LastReadIndex("item-0") != -1 {
		t.Error("oldest item should have been evicted from last-read list")
	}
}

func TestRereadMovesToFront(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "a"} {
		if err := s.RecordReadingEvent(ctx, "v", id, []string{"tech"}, 30, true); err != nil {
			t.Fatalf("record event: %v", err)
		}
	}

	p, _ := s.GetProfile(ctx, "v")
	want := []string{"a", "c", "b"}
	if len(p.LastReadItems) != len(want) {
		t.Fatalf("last-read = %v, want %v", p.LastReadItems, want)
	}
	for i := range want {
		if p.LastReadItems[i] != want[i] {
			t.Errorf("last-read[%d] = %q, want %q", i, p.LastReadItems[i], want[i])
		}
	}
}

func TestSaveFailureRollsBack(t *testing.T) {
	mem := newMemoryPersistence()
	s := newTestStore(t, mem)
	ctx := context.Background()

	if err := s.RecordReadingEvent(ctx, "v", "first", []string{"tech"}, 60, true); err != nil {
		t.Fatalf("record first event: %v", err)
	}
	before, _ := s.GetProfile(ctx, "v")

	mem.saveErr = errors.New("write failed")
	if err := s.RecordReadingEvent(ctx, "v", "second", []string{"tech"}, 60, true); err == nil {
		t.Fatal("expected error from save failure")
	}

	after, _ := s.GetProfile(ctx, "v")
	if len(after.History) != len(before.History) {
		t.Errorf("failed update leaked into history: %d events, want %d", len(after.History), len(before.History))
	}
	if after.CategoryScores["tech"] != before.CategoryScores["tech"] {
		t.Errorf("failed update leaked into scores: %f, want %f", after.CategoryScores["tech"], before.CategoryScores["tech"])
	}
	if after.LastReadIndex("second") != -1 {
		t.Error("failed update leaked into last-read list")
	}
}

func TestWriteFailsOnLoadFault(t *testing.T) {
	mem := newMemoryPersistence()
	mem.loadErr = errors.New("load failed")
	s := newTestStore(t, mem)

	if err := s.RecordReadingEvent(context.Background(), "v", "item", nil, 60, true); err == nil {
		t.Fatal("write should not proceed on a load fault")
	}
}

func TestConcurrentUpdatesSameViewer(t *testing.T) {
	mem := newMemoryPersistence()
	s := newTestStore(t, mem)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			itemID := fmt.Sprintf("item-%d", i)
			if err := s.RecordReadingEvent(ctx, "v", itemID, []string{"tech"}, 30, true); err != nil {
				t.Errorf("concurrent record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	p, _ := s.GetProfile(ctx, "v")
	if len(p.History) != writers {
		t.Errorf("history length = %d, want %d (lost updates)", len(p.History), writers)
	}
	if mem.saves != writers {
		t.Errorf("saves = %d, want %d", mem.saves, writers)
	}
}

func TestProfileSurvivesReload(t *testing.T) {
	mem := newMemoryPersistence()
	ctx := context.Background()

	s1 := newTestStore(t, mem)
	if err := s1.RecordReadingEvent(ctx, "v", "item", []string{"tech"}, 60, true); err != nil {
		t.Fatalf("record event: %v", err)
	}

	// A fresh store over the same persistence simulates a restart.
	s2 := newTestStore(t, mem)
	p, err := s2.GetProfile(ctx, "v")
	if err != nil {
		t.Fatalf("get profile after reload: %v", err)
	}
	if p.CategoryScores["tech"] == 0 {
		t.Error("persisted affinity lost across reload")
	}
	if p.LastReadIndex("item") != 0 {
		t.Error("persisted last-read list lost across reload")
	}
}

func TestGetProfileReturnsCopy(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())
	ctx := context.Background()

	if err := s.RecordReadingEvent(ctx, "v", "item", []string{"tech"}, 60, true); err != nil {
		t.Fatalf("record event: %v", err)
	}

	p1, _ := s.GetProfile(ctx, "v")
	p1.CategoryScores["tech"] = 999

	p2, _ := s.GetProfile(ctx, "v")
	if p2.CategoryScores["tech"] == 999 {
		t.Error("caller mutation leaked into stored profile")
	}
}

func TestTrendAcceleratesAffinity(t *testing.T) {
	// The second tech read should gain more than a second read in a cold
	// category, because the trend term sees the earlier tech event.
	ctx := context.Background()
	cfg := rank.DefaultConfig()
	// Raise the clamp so the gains under comparison are not both capped.
	cfg.Affinity.MaxBoost = 100
	s := NewStore(cfg, newMemoryPersistence(), zerolog.Nop())

	if err := s.RecordReadingEvent(ctx, "v", "t1", []string{"tech"}, 60, true); err != nil {
		t.Fatal(err)
	}
	p1, _ := s.GetProfile(ctx, "v")
	firstGain := p1.CategoryScores["tech"]

	if err := s.RecordReadingEvent(ctx, "v", "t2", []string{"tech"}, 60, true); err != nil {
		t.Fatal(err)
	}
	p2, _ := s.GetProfile(ctx, "v")
	secondGain := p2.CategoryScores["tech"] - p1.CategoryScores["tech"]*s.cfg.Affinity.TimeDecay

	if secondGain <= firstGain {
		t.Errorf("second gain %f should exceed first gain %f via the trend term", secondGain, firstGain)
	}
}

func TestInjectableClock(t *testing.T) {
	s := newTestStore(t, newMemoryPersistence())
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.RecordReadingEvent(context.Background(), "v", "item", []string{"tech"}, 60, true); err != nil {
		t.Fatal(err)
	}
	p, _ := s.GetProfile(context.Background(), "v")
	if !p.History[0].Timestamp.Equal(fixed) {
		t.Errorf("event timestamp = %v, want %v", p.History[0].Timestamp, fixed)
	}
}
