package domain

// EventRecord is a persisted notification.
// Corresponds to arena_events table in ClickHouse.
type EventRecord struct {
	EventID    string // uuid
	Kind       string // agent_registered | season_created | ...
	OccurredAt int64  // unix seconds from the arena clock
	Payload    []byte // JSON-encoded payload
}
