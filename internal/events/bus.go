package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"signal-arena/internal/observability"
	"signal-arena/internal/storage"
)

// Publisher accepts notifications. Delivery is best effort: Publish never
// fails the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Sink is one delivery target of a Bus.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, e Event) error
}

// Bus delivers every published event to each sink in order.
type Bus struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewBus creates a Bus. A nil logger discards delivery warnings.
func NewBus(logger *zap.Logger, sinks ...Sink) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{sinks: sinks, logger: logger}
}

// Compile-time interface check.
var _ Publisher = (*Bus)(nil)

// Publish delivers e to every sink, logging sink failures.
func (b *Bus) Publish(ctx context.Context, e Event) {
	observability.RecordEventPublished(string(e.Kind))
	for _, s := range b.sinks {
		if err := s.Deliver(ctx, e); err != nil {
			observability.RecordSinkError(s.Name())
			b.logger.Warn("event delivery failed",
				zap.String("sink", s.Name()),
				zap.String("kind", string(e.Kind)),
				zap.String("event_id", e.ID),
				zap.Error(err),
			)
		}
	}
}

// Discard is a Publisher that drops everything.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, Event) {}

// StoreSink persists events to an EventStore.
type StoreSink struct {
	store storage.EventStore
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(store storage.EventStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "store" }

// Deliver encodes and appends e.
func (s *StoreSink) Deliver(ctx context.Context, e Event) error {
	rec, err := e.Record()
	if err != nil {
		return err
	}
	return s.store.Append(ctx, rec)
}

// LogSink writes events to a zap logger at info level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

// Deliver logs e.
func (s *LogSink) Deliver(_ context.Context, e Event) error {
	s.logger.Info("arena event",
		zap.String("kind", string(e.Kind)),
		zap.String("event_id", e.ID),
		zap.Int64("occurred_at", e.OccurredAt),
		zap.Any("payload", e.Payload),
	)
	return nil
}

// Recorder keeps every delivered event in memory. It is both a Sink and a Publisher.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Name() string { return "recorder" }

// Deliver appends e.
func (r *Recorder) Deliver(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Publish appends e.
func (r *Recorder) Publish(ctx context.Context, e Event) {
	_ = r.Deliver(ctx, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds recorded so far, in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}
