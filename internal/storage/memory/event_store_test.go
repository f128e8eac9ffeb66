package memory

import (
	"context"
	"errors"
	"testing"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

func TestEventStore_AppendAndQuery(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	records := []*domain.EventRecord{
		{EventID: "e1", Kind: "season_created", OccurredAt: 100, Payload: []byte(`{"season_id":0}`)},
		{EventID: "e2", Kind: "season_entered", OccurredAt: 200, Payload: []byte(`{}`)},
		{EventID: "e3", Kind: "season_entered", OccurredAt: 150, Payload: []byte(`{}`)},
	}
	for _, r := range records {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entered, err := store.GetByKind(ctx, "season_entered")
	if err != nil {
		t.Fatalf("GetByKind failed: %v", err)
	}
	if len(entered) != 2 || entered[0].EventID != "e3" || entered[1].EventID != "e2" {
		t.Errorf("unexpected kind result: %+v", entered)
	}

	ranged, err := store.GetByTimeRange(ctx, 100, 150)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("expected 2 records in range, got %d", len(ranged))
	}

	if err := store.Append(ctx, records[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := store.Append(ctx, &domain.EventRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
