package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage/memory"
)

func TestEvent_Record(t *testing.T) {
	var agent domain.Address
	agent[0] = 7

	e := New(KindPredictionResolved, 1_700_000_000, PredictionResolved{
		Agent: agent, WasCorrect: true, ScoreDelta: 130, Rank: domain.RankSilver,
	})
	require.NotEmpty(t, e.ID)

	rec, err := e.Record()
	require.NoError(t, err)
	assert.Equal(t, e.ID, rec.EventID)
	assert.Equal(t, "prediction_resolved", rec.Kind)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &decoded))
	assert.Equal(t, agent.String(), decoded["agent"])
	assert.Equal(t, float64(130), decoded["score_delta"])
	assert.Equal(t, "SILVER", decoded["rank"])
}

func TestEvent_UniqueIDs(t *testing.T) {
	a := New(KindSeasonCreated, 0, SeasonCreated{})
	b := New(KindSeasonCreated, 0, SeasonCreated{})
	assert.NotEqual(t, a.ID, b.ID)
}

type failingSink struct{}

func (failingSink) Name() string                         { return "failing" }
func (failingSink) Deliver(context.Context, Event) error { return errors.New("down") }

func TestBus_DeliversToAllSinksDespiteFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := memory.NewEventStore()
	rec := &Recorder{}

	bus := NewBus(zap.New(core), failingSink{}, NewStoreSink(store), rec)
	bus.Publish(context.Background(), New(KindSeasonEntered, 10, SeasonEntered{SeasonID: 1}))

	assert.Equal(t, []Kind{KindSeasonEntered}, rec.Kinds())

	stored, err := store.GetByKind(context.Background(), string(KindSeasonEntered))
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "event delivery failed", logs.All()[0].Message)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	require.NoError(t, sink.Deliver(context.Background(), New(KindTreasuryWithdrawn, 5, TreasuryWithdrawn{Amount: 9})))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "treasury_withdrawn", logs.All()[0].ContextMap()["kind"])
}

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	assert.Equal(t, 1, b.Subscribers())

	first := New(KindAgentRegistered, 1, AgentRegistered{Name: "a"})
	second := New(KindAgentRegistered, 2, AgentRegistered{Name: "b"})
	require.NoError(t, b.Deliver(context.Background(), first))
	// Buffer is full: the second event is dropped, not blocked on.
	require.NoError(t, b.Deliver(context.Background(), second))

	got := <-ch
	assert.Equal(t, first.ID, got.ID)

	cancel()
	cancel()
	assert.Equal(t, 0, b.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}
