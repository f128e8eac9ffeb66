package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/idhash"
)

func TestSubmitPrediction(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	agent := h.register(alice, "alpha")
	h.register(bob, "bravo")
	s := h.season(0, 7, 9000)
	h.fund(alice, 1000)
	h.enter(s.ID, alice)

	hash := idhash.Commitment("BTC>70000")
	p0, err := h.eng.SubmitPrediction(h.ctx, s.ID, agent.Address, alice, hash, 300)
	require.NoError(t, err)
	assert.Equal(t, domain.PredictionCommitted, p0.Status)
	assert.Equal(t, uint64(0), p0.Sequence)
	assert.Equal(t, h.eng.Addresses().Prediction(agent.Address, s.Address, 0), p0.Address)

	p1, err := h.eng.SubmitPrediction(h.ctx, s.ID, agent.Address, alice, hash, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p1.Sequence)
	assert.NotEqual(t, p0.Address, p1.Address)

	assert.Equal(t, uint64(700), h.balance(alice))
	escrow, err := h.eng.PredictionVaultBalance(h.ctx, p0.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), escrow)

	got, err := h.eng.Agent(h.ctx, agent.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.SubmittedPredictions)
	assert.Zero(t, got.TotalPredictions)

	t.Run("not entered", func(t *testing.T) {
		_, err := h.eng.SubmitPrediction(h.ctx, s.ID, h.agentOf(bob), bob, hash, 0)
		assert.ErrorIs(t, err, ErrNotEntered)
	})

	t.Run("not owner", func(t *testing.T) {
		_, err := h.eng.SubmitPrediction(h.ctx, s.ID, agent.Address, bob, hash, 0)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("stake exceeds balance", func(t *testing.T) {
		_, err := h.eng.SubmitPrediction(h.ctx, s.ID, agent.Address, alice, hash, 701)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		got, err := h.eng.Agent(h.ctx, agent.Address)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), got.SubmittedPredictions)
		assert.Equal(t, uint64(700), h.balance(alice))
	})

	t.Run("season closed", func(t *testing.T) {
		h.clock.Set(s.EndTime)
		_, err := h.eng.DistributePrizes(h.ctx, s.ID, authority, [3]domain.Address{})
		require.NoError(t, err)
		_, err = h.eng.SubmitPrediction(h.ctx, s.ID, agent.Address, alice, hash, 0)
		assert.ErrorIs(t, err, ErrSeasonNotActive)
	})
}

func TestRevealPrediction(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	agent := h.register(alice, "alpha")
	s := h.season(0, 7, 9000)
	h.enter(s.ID, alice)

	const data = "ETH<3000 by friday"
	p, err := h.eng.SubmitPrediction(h.ctx, s.ID, agent.Address, alice, idhash.Commitment(data), 0)
	require.NoError(t, err)

	_, err = h.eng.RevealPrediction(h.ctx, p.Address, alice, data+" ")
	assert.ErrorIs(t, err, ErrHashMismatch)

	_, err = h.eng.RevealPrediction(h.ctx, p.Address, bob, data)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = h.eng.RevealPrediction(h.ctx, p.Address, alice, strings.Repeat("x", domain.MaxPredictionDataLen+1))
	assert.ErrorIs(t, err, ErrPredictionDataTooLong)

	h.clock.Advance(time.Hour)
	revealed, err := h.eng.RevealPrediction(h.ctx, p.Address, alice, data)
	require.NoError(t, err)
	assert.Equal(t, domain.PredictionRevealed, revealed.Status)
	assert.Equal(t, data, revealed.PredictionData)
	assert.Equal(t, startTime+3600, revealed.RevealedAt)

	_, err = h.eng.RevealPrediction(h.ctx, p.Address, alice, data)
	assert.ErrorIs(t, err, ErrInvalidPredictionStatus)

	_, err = h.eng.RevealPrediction(h.ctx, testAddr(99), alice, data)
	assert.ErrorIs(t, err, ErrPredictionNotFound)

	kinds := h.rec.Kinds()
	assert.Equal(t, events.KindPredictionRevealed, kinds[len(kinds)-1])
	assert.Equal(t, 1, countKind(kinds, events.KindPredictionRevealed))
}

func countKind(kinds []events.Kind, k events.Kind) int {
	n := 0
	for _, got := range kinds {
		if got == k {
			n++
		}
	}
	return n
}

func TestPredictionStep(t *testing.T) {
	tests := []struct {
		status domain.PredictionStatus
		from   domain.PredictionStatus
		want   domain.PredictionStatus
		ok     bool
	}{
		{domain.PredictionCommitted, domain.PredictionCommitted, domain.PredictionRevealed, true},
		{domain.PredictionRevealed, domain.PredictionRevealed, domain.PredictionResolved, true},
		{domain.PredictionRevealed, domain.PredictionCommitted, "", false},
		{domain.PredictionResolved, domain.PredictionResolved, "", false},
		{"EXPIRED", "EXPIRED", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"_from_"+string(tt.from), func(t *testing.T) {
			got, err := predictionStep(&domain.Prediction{Status: tt.status}, tt.from)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPredictionStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
