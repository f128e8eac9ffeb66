package postgres

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

func testAddr(b byte) domain.Address {
	var a domain.Address
	a[0] = b
	a[31] = 0xAA
	return a
}

func TestLedger(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ledger := NewLedger(pool)
	ctx := context.Background()

	arena := &domain.Arena{Address: testAddr(1), Authority: testAddr(2), Treasury: testAddr(3)}
	agent := &domain.Agent{
		Address: testAddr(10), Owner: testAddr(11), Name: "oracle", Endpoint: "https://oracle.example",
		Rank: domain.RankBronze, JoinedAt: 1_700_000_000,
	}
	season := &domain.Season{
		Address: testAddr(20), ID: 0, Authority: testAddr(2), EntryFee: 1000,
		StartTime: 1_700_000_000, EndTime: 1_700_086_400, PrizePoolBps: 9000, Status: domain.SeasonActive,
	}

	t.Run("InsertAndGet", func(t *testing.T) {
		err := ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			require.NoError(t, tx.InsertArena(ctx, arena))
			require.NoError(t, tx.InsertAgent(ctx, agent))
			require.NoError(t, tx.InsertSeason(ctx, season))
			return tx.InsertEntry(ctx, &domain.SeasonEntry{
				Address: testAddr(30), Season: season.Address, SeasonID: 0,
				Agent: agent.Address, Player: agent.Owner, EnteredAt: 1_700_000_100,
			})
		})
		require.NoError(t, err)

		err = ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			gotArena, err := tx.GetArena(ctx, arena.Address)
			require.NoError(t, err)
			assert.Equal(t, arena, gotArena)

			gotAgent, err := tx.GetAgent(ctx, agent.Address)
			require.NoError(t, err)
			assert.Equal(t, agent, gotAgent)

			gotSeason, err := tx.GetSeason(ctx, season.Address)
			require.NoError(t, err)
			assert.Equal(t, season, gotSeason)

			entries, err := tx.ListEntries(ctx, season.Address)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, agent.Owner, entries[0].Player)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		err := ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.InsertAgent(ctx, agent)
		})
		assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "got %v", err)
	})

	t.Run("NotFound", func(t *testing.T) {
		err := ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			_, err := tx.GetPrediction(ctx, testAddr(99))
			return err
		})
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("PredictionCompareAndSet", func(t *testing.T) {
		p := &domain.Prediction{
			Address: testAddr(40), Agent: agent.Address, Player: agent.Owner, SeasonID: 0, Sequence: 0,
			PredictionHash: [32]byte{1, 2, 3}, StakeAmount: 100, SubmittedAt: 1_700_000_200,
			Status: domain.PredictionCommitted,
		}
		require.NoError(t, ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.InsertPrediction(ctx, p)
		}))

		revealed := *p
		revealed.Status = domain.PredictionRevealed
		revealed.PredictionData = "SOL>200"
		revealed.RevealedAt = 1_700_000_300
		require.NoError(t, ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.UpdatePrediction(ctx, &revealed, domain.PredictionCommitted)
		}))

		err := ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.UpdatePrediction(ctx, &revealed, domain.PredictionCommitted)
		})
		assert.True(t, errors.Is(err, storage.ErrStaleStatus), "got %v", err)

		_ = ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			got, err := tx.GetPrediction(ctx, p.Address)
			require.NoError(t, err)
			assert.Equal(t, &revealed, got)

			list, err := tx.ListPredictions(ctx, agent.Address)
			require.NoError(t, err)
			assert.Len(t, list, 1)
			return nil
		})
	})

	t.Run("SeasonCompareAndSet", func(t *testing.T) {
		completed := *season
		completed.Status = domain.SeasonCompleted
		require.NoError(t, ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.UpdateSeason(ctx, &completed, domain.SeasonActive)
		}))

		err := ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.UpdateSeason(ctx, &completed, domain.SeasonActive)
		})
		assert.True(t, errors.Is(err, storage.ErrStaleStatus), "got %v", err)

		missing := completed
		missing.Address = testAddr(98)
		err = ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.UpdateSeason(ctx, &missing, domain.SeasonActive)
		})
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("TransferAndRollback", func(t *testing.T) {
		payer, payee := testAddr(50), testAddr(51)
		require.NoError(t, ledger.Fund(ctx, payer, 1000))

		boom := errors.New("boom")
		err := ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			require.NoError(t, tx.Transfer(ctx, payer, payee, 400))
			return boom
		})
		require.ErrorIs(t, err, boom)

		err = ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.Transfer(ctx, payer, payee, 1001)
		})
		assert.True(t, errors.Is(err, storage.ErrInsufficientBalance), "got %v", err)

		require.NoError(t, ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.Transfer(ctx, payer, payee, 250)
		}))

		_ = ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			from, err := tx.Balance(ctx, payer)
			require.NoError(t, err)
			to, err := tx.Balance(ctx, payee)
			require.NoError(t, err)
			assert.Equal(t, uint64(750), from)
			assert.Equal(t, uint64(250), to)

			exists, err := tx.AccountExists(ctx, testAddr(52))
			require.NoError(t, err)
			assert.False(t, exists)
			return nil
		})
	})

	t.Run("AmountOutOfRange", func(t *testing.T) {
		err := ledger.Fund(ctx, testAddr(60), math.MaxUint64)
		assert.True(t, errors.Is(err, storage.ErrInvalidInput), "got %v", err)
	})

	t.Run("ViewIsReadOnly", func(t *testing.T) {
		err := ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.OpenAccount(ctx, testAddr(61))
		})
		assert.True(t, errors.Is(err, storage.ErrReadOnly), "got %v", err)
	})

	t.Run("Achievements", func(t *testing.T) {
		require.NoError(t, ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.InsertAchievement(ctx, &domain.Achievement{
				Address: testAddr(70), Agent: agent.Address,
				AchievementType: domain.AchievementFirstWin, AwardedAt: 1_700_000_500,
			})
		}))

		_ = ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			list, err := tx.ListAchievements(ctx, agent.Address)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, domain.AchievementFirstWin, list[0].AchievementType)
			return nil
		})
	})
	t.Run("UnknownRankRejected", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE agents SET rank = 'PLATINUM' WHERE address = $1`, agent.Address.String())
		require.NoError(t, err)

		err = ledger.View(ctx, func(ctx context.Context, tx storage.Tx) error {
			_, err := tx.GetAgent(ctx, agent.Address)
			return err
		})
		require.Error(t, err)
		assert.False(t, errors.Is(err, storage.ErrNotFound))
		assert.Contains(t, err.Error(), "PLATINUM")
	})
}
