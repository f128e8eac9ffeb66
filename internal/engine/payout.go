package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/observability"
	"signal-arena/internal/scoring"
	"signal-arena/internal/storage"
)

// Distribution is the outcome of paying out a season's prize pool.
type Distribution struct {
	Season  *domain.Season
	Winners [3]domain.Address
	Amounts [3]uint64 // paid per place; zero for skipped recipients
	Paid    uint64
	Dust    uint64 // retained in the season vault
}

// DistributePrizes pays the season pool 50/30/20 to winners and completes
// the season. A winner that is the zero address or has no account is
// skipped and its share stays in the vault.
func (e *Engine) DistributePrizes(ctx context.Context, seasonID uint64, authority domain.Address, winners [3]domain.Address) (*Distribution, error) {
	var dist *Distribution
	err := e.atomic(ctx, "distribute_prizes", func(ctx context.Context, tx storage.Tx, o *op) error {
		season, err := e.loadSeason(ctx, tx, seasonID)
		if err != nil {
			return err
		}
		if o.now < season.EndTime {
			return ErrSeasonNotEnded
		}
		if season.Status != domain.SeasonActive {
			return ErrInvalidSeasonStatus
		}
		if _, err := e.authorize(ctx, tx, authority); err != nil {
			return err
		}

		split := scoring.SplitPrizePool(season.TotalPool)
		dist = &Distribution{Season: season, Winners: winners}
		v := e.seasonVault(season.Address)
		for i, w := range winners {
			amount := split.Places[i]
			if w.IsZero() || amount == 0 {
				continue
			}
			ok, err := tx.AccountExists(ctx, w)
			if err != nil {
				return fmt.Errorf("check winner %d: %w", i+1, err)
			}
			if !ok {
				continue
			}
			if err := v.release(ctx, tx, w, amount); err != nil {
				return fmt.Errorf("pay place %d: %w", i+1, err)
			}
			dist.Amounts[i] = amount
			dist.Paid += amount
		}
		dist.Dust = season.TotalPool - dist.Paid

		season.Status = domain.SeasonCompleted
		if err := tx.UpdateSeason(ctx, season, domain.SeasonActive); err != nil {
			return staleStatus(err, ErrInvalidSeasonStatus)
		}

		o.onCommit(func() { observability.RecordPrizes(dist.Paid, dist.Dust) })
		o.emit(events.KindPrizesDistributed, events.PrizesDistributed{
			SeasonID:  season.ID,
			TotalPool: season.TotalPool,
			Winners:   winners,
			Amounts:   dist.Amounts,
			Dust:      dist.Dust,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}

// Standings returns a season's entries best first: score desc, then
// predictions correct desc, then entry address.
func (e *Engine) Standings(ctx context.Context, seasonID uint64) ([]*domain.SeasonEntry, error) {
	var entries []*domain.SeasonEntry
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		season, err := e.loadSeason(ctx, tx, seasonID)
		if err != nil {
			return err
		}
		entries, err = tx.ListEntries(ctx, season.Address)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rankEntries(entries)
	return entries, nil
}

// TopWinners returns the players of the three best entries. Places with no
// entry are the zero address, which DistributePrizes skips.
func (e *Engine) TopWinners(ctx context.Context, seasonID uint64) ([3]domain.Address, error) {
	var winners [3]domain.Address
	standings, err := e.Standings(ctx, seasonID)
	if err != nil {
		return winners, err
	}
	for i := 0; i < len(winners) && i < len(standings); i++ {
		winners[i] = standings[i].Player
	}
	return winners, nil
}

func rankEntries(entries []*domain.SeasonEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PredictionsCorrect != b.PredictionsCorrect {
			return a.PredictionsCorrect > b.PredictionsCorrect
		}
		return bytes.Compare(a.Address[:], b.Address[:]) < 0
	})
}
