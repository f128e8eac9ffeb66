package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
)

func TestDistributePrizes(t *testing.T) {
	tests := []struct {
		name     string
		fee      uint64
		wantPaid [3]uint64
		wantDust uint64
	}{
		{"even pool", 1000, [3]uint64{500, 300, 200}, 0},
		{"truncated pool", 999, [3]uint64{499, 299, 199}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, principalToTreasury)
			h.register(alice, "alpha")
			s := h.season(tt.fee, 1, domain.MaxBps)
			h.fund(alice, tt.fee)
			h.enter(s.ID, alice)
			h.fund(bob, 0)
			h.fund(carol, 0)

			h.clock.Set(s.EndTime)
			dist, err := h.eng.DistributePrizes(h.ctx, s.ID, authority, [3]domain.Address{alice, bob, carol})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaid, dist.Amounts)
			assert.Equal(t, tt.wantDust, dist.Dust)

			assert.Equal(t, tt.wantPaid[0], h.balance(alice))
			assert.Equal(t, tt.wantPaid[1], h.balance(bob))
			assert.Equal(t, tt.wantPaid[2], h.balance(carol))
			vault, err := h.eng.SeasonVaultBalance(h.ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDust, vault)

			got, err := h.eng.Season(h.ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.SeasonCompleted, got.Status)

			evs := h.rec.Events()
			last := evs[len(evs)-1]
			require.Equal(t, events.KindPrizesDistributed, last.Kind)
			assert.Equal(t, tt.wantDust, last.Payload.(events.PrizesDistributed).Dust)
		})
	}
}

func TestDistributePrizes_Guards(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	s := h.season(0, 2, 9000)
	winners := [3]domain.Address{alice, bob, carol}

	_, err := h.eng.DistributePrizes(h.ctx, s.ID, authority, winners)
	assert.ErrorIs(t, err, ErrSeasonNotEnded)

	h.clock.Set(s.EndTime - 1)
	_, err = h.eng.DistributePrizes(h.ctx, s.ID, authority, winners)
	assert.ErrorIs(t, err, ErrSeasonNotEnded)

	h.clock.Set(s.EndTime)
	_, err = h.eng.DistributePrizes(h.ctx, s.ID, mallory, winners)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = h.eng.DistributePrizes(h.ctx, s.ID, authority, winners)
	require.NoError(t, err)
	_, err = h.eng.DistributePrizes(h.ctx, s.ID, authority, winners)
	assert.ErrorIs(t, err, ErrInvalidSeasonStatus)

	assert.Equal(t, 1, countKind(h.rec.Kinds(), events.KindPrizesDistributed))
}

func TestDistributePrizes_SkipsMissingRecipients(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	h.register(alice, "alpha")
	s := h.season(1000, 1, domain.MaxBps)
	h.fund(alice, 1000)
	h.enter(s.ID, alice)
	h.clock.Set(s.EndTime)

	// bob never held an account; third place is empty.
	dist, err := h.eng.DistributePrizes(h.ctx, s.ID, authority, [3]domain.Address{alice, bob})
	require.NoError(t, err)
	assert.Equal(t, [3]uint64{500, 0, 0}, dist.Amounts)
	assert.Equal(t, uint64(500), dist.Paid)
	assert.Equal(t, uint64(500), dist.Dust)
	assert.Zero(t, h.balance(bob))

	vault, err := h.eng.SeasonVaultBalance(h.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), vault)
}

func TestStandingsAndTopWinners(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	for _, owner := range []domain.Address{alice, bob, carol} {
		h.register(owner, owner.String()[:8])
		h.fund(owner, 1000)
	}
	s := h.season(0, 7, 9000)
	for _, owner := range []domain.Address{alice, bob, carol} {
		h.enter(s.ID, owner)
	}

	h.play(s.ID, bob, "b1", 100, true)   // 110
	h.play(s.ID, carol, "c1", 200, true) // 220
	h.play(s.ID, alice, "a1", 100, false)

	standings, err := h.eng.Standings(h.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, carol, standings[0].Player)
	assert.Equal(t, bob, standings[1].Player)
	assert.Equal(t, alice, standings[2].Player)

	winners, err := h.eng.TopWinners(h.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, [3]domain.Address{carol, bob, alice}, winners)

	_, err = h.eng.Standings(h.ctx, 9)
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestTopWinners_FewerThanThree(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	h.register(alice, "alpha")
	s := h.season(0, 7, 9000)
	h.enter(s.ID, alice)

	winners, err := h.eng.TopWinners(h.ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, [3]domain.Address{alice}, winners)
}

func TestLeaderboard(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	a := h.register(alice, "alpha")
	b := h.register(bob, "bravo")
	c := h.register(carol, "charlie")

	_, err := h.eng.AwardAchievement(h.ctx, b.Address, authority, domain.AchievementStreak5)
	require.NoError(t, err)
	_, err = h.eng.AwardAchievement(h.ctx, c.Address, authority, domain.AchievementFirstWin)
	require.NoError(t, err)

	board, err := h.eng.Leaderboard(h.ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, b.Address, board[0].Address)
	assert.Equal(t, c.Address, board[1].Address)
	assert.Equal(t, a.Address, board[2].Address)

	top, err := h.eng.Leaderboard(h.ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestDueSeasons(t *testing.T) {
	h := newHarness(t, principalToTreasury)
	short := h.season(0, 1, 9000)
	h.season(0, 5, 9000)

	due, err := h.eng.DueSeasons(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	h.clock.Set(short.EndTime)
	due, err = h.eng.DueSeasons(h.ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, short.ID, due[0].ID)
}

// Every lamport funded into the ledger is accounted for by some account at
// every step, and the treasury equals fees collected minus rewards paid and
// withdrawals.
func TestConservation(t *testing.T) {
	policies := []Policy{
		{StakeReturn: StakeReturnPrincipal, Forfeit: ForfeitTreasury},
		{StakeReturn: StakeReturnPrincipal, Forfeit: ForfeitBurn},
		{StakeReturn: StakeReturnDouble, Forfeit: ForfeitTreasury},
		{StakeReturn: StakeReturnDouble, Forfeit: ForfeitBurn},
	}

	for _, policy := range policies {
		t.Run(policy.String(), func(t *testing.T) {
			h := newHarness(t, policy)
			const seed = uint64(5000)
			h.fund(treasury, seed)
			players := []domain.Address{alice, bob, carol}
			for _, p := range players {
				h.register(p, p.String()[:8])
				h.fund(p, 10_000)
			}
			funded := seed + 3*10_000

			s := h.season(1000, 1, 9000)
			accounts := []domain.Address{authority, treasury, alice, bob, carol, h.eng.Addresses().SeasonVault(s.Address)}
			check := func(step string) {
				t.Helper()
				var total uint64
				for _, a := range accounts {
					total += h.balance(a)
				}
				assert.Equal(t, funded, total, "after %s", step)
			}

			for _, p := range players {
				h.enter(s.ID, p)
			}
			check("entries")

			// Rejected operations move nothing.
			_, err := h.eng.EnterSeason(h.ctx, s.ID, h.agentOf(alice), alice)
			require.ErrorIs(t, err, ErrAlreadyEntered)
			check("rejected entry")

			plays := []struct {
				owner   domain.Address
				data    string
				stake   uint64
				correct bool
			}{
				{alice, "a1", 100, true},
				{alice, "a2", 100, true},
				{alice, "a3", 100, true},
				{bob, "b1", 200, false},
				{carol, "c1", 50, true},
				{carol, "c2", 50, false},
			}
			for _, p := range plays {
				pred := h.reveal(s.ID, p.owner, p.data, p.stake)
				accounts = append(accounts, h.eng.Addresses().PredictionVault(pred.Address))
				check("submit " + p.data)
				_, err := h.eng.ResolvePrediction(h.ctx, pred.Address, authority, p.correct)
				require.NoError(t, err)
				check("resolve " + p.data)
			}

			h.clock.Set(s.EndTime)
			winners, err := h.eng.TopWinners(h.ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, [3]domain.Address{alice, carol, bob}, winners)
			dist, err := h.eng.DistributePrizes(h.ctx, s.ID, authority, winners)
			require.NoError(t, err)
			assert.Equal(t, [3]uint64{1350, 810, 540}, dist.Amounts)
			check("distribute")

			_, err = h.eng.WithdrawTreasury(h.ctx, authority, 100)
			require.NoError(t, err)
			check("withdraw")

			arena := h.arena()
			assert.Equal(t, seed+arena.TotalFeesCollected-arena.TotalRewardsPaid-100, h.balance(treasury))
		})
	}
}
