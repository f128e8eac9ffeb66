package memory

import (
	"context"
	"sort"
	"sync"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu      sync.RWMutex
	records []*domain.EventRecord
	ids     map[string]struct{}
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		ids: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Append adds a record. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Append(_ context.Context, e *domain.EventRecord) error {
	if e.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	s.ids[e.EventID] = struct{}{}
	s.records = append(s.records, copyRecord(e))
	return nil
}

// GetByTimeRange returns records with occurred_at in [start, end].
func (s *EventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.EventRecord, error) {
	return s.filter(func(e *domain.EventRecord) bool {
		return e.OccurredAt >= start && e.OccurredAt <= end
	}), nil
}

// GetByKind returns all records of a kind.
func (s *EventStore) GetByKind(_ context.Context, kind string) ([]*domain.EventRecord, error) {
	return s.filter(func(e *domain.EventRecord) bool {
		return e.Kind == kind
	}), nil
}

func (s *EventStore) filter(keep func(*domain.EventRecord) bool) []*domain.EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EventRecord
	for _, e := range s.records {
		if keep(e) {
			result = append(result, copyRecord(e))
		}
	}

	// Append order breaks ties within the same second.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurredAt < result[j].OccurredAt
	})
	return result
}

func copyRecord(e *domain.EventRecord) *domain.EventRecord {
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	return &cp
}
