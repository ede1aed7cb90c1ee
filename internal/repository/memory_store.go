package repository

import (
	"context"
	"sort"
	"sync"

	"warelay/internal/entities"
)

// MemoryStore is an in-process conversation store with the same semantics as
// the Postgres repository: append preserves arrival order, fetch returns
// newest-first. Used in tests and in deployments without a database URL.
type MemoryStore struct {
	mu     sync.RWMutex
	events []entities.MessageEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, events []entities.MessageEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := 0
	for _, ev := range events {
		if ev.From == "" && ev.To == "" {
			continue
		}
		s.events = append(s.events, ev)
		stored++
	}
	return stored
}

func (s *MemoryStore) Fetch(_ context.Context, address string, limit int) []entities.MessageEvent {
	if address == "" {
		return []entities.MessageEvent{}
	}

	s.mu.RLock()
	matched := []entities.MessageEvent{}
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if ev.From == address || ev.To == address {
			matched = append(matched, ev)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	return truncate(matched, limit)
}

func (s *MemoryStore) Recent(_ context.Context, limit int) []entities.MessageEvent {
	s.mu.RLock()
	all := make([]entities.MessageEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		all = append(all, s.events[i])
	}
	s.mu.RUnlock()

	sortNewestFirst(all)
	if limit <= 0 {
		limit = 20
	}
	return truncate(all, limit)
}

// sortNewestFirst orders by the platform timestamp token descending. Input is
// already reverse-insertion-ordered, so the stable sort keeps later arrivals
// first among equal timestamps.
func sortNewestFirst(events []entities.MessageEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
}

func truncate(events []entities.MessageEvent, limit int) []entities.MessageEvent {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}
