package clickhouse

import (
	"context"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// EventStore implements storage.EventStore on the arena_events table.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Append adds a record. MergeTree does not enforce keys, so the event_id is
// checked before insert. Returns ErrDuplicateKey if it exists.
func (s *EventStore) Append(ctx context.Context, e *domain.EventRecord) error {
	if e.EventID == "" {
		return storage.ErrInvalidInput
	}

	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM arena_events WHERE event_id = ?`, e.EventID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check event exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO arena_events (event_id, kind, occurred_at, payload)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	if err := batch.Append(e.EventID, e.Kind, e.OccurredAt, string(e.Payload)); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange returns records with occurred_at in [start, end].
func (s *EventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.EventRecord, error) {
	return s.query(ctx, `
		SELECT event_id, kind, occurred_at, payload
		FROM arena_events
		WHERE occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC, event_id ASC
	`, start, end)
}

// GetByKind returns all records of a kind.
func (s *EventStore) GetByKind(ctx context.Context, kind string) ([]*domain.EventRecord, error) {
	return s.query(ctx, `
		SELECT event_id, kind, occurred_at, payload
		FROM arena_events
		WHERE kind = ?
		ORDER BY occurred_at ASC, event_id ASC
	`, kind)
}

func (s *EventStore) query(ctx context.Context, query string, args ...any) ([]*domain.EventRecord, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []*domain.EventRecord
	for rows.Next() {
		var r domain.EventRecord
		var payload string
		if err := rows.Scan(&r.EventID, &r.Kind, &r.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		r.Payload = []byte(payload)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return records, nil
}
