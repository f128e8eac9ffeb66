package engine

import (
	"context"
	"errors"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/observability"
	"signal-arena/internal/scoring"
	"signal-arena/internal/storage"
)

// EnterSeason charges the season's entry fee to player and records the
// agent's entry. The fee lands in the season vault, then the platform share
// moves on to the treasury.
func (e *Engine) EnterSeason(ctx context.Context, seasonID uint64, agentAddr, player domain.Address) (*domain.SeasonEntry, error) {
	var entry *domain.SeasonEntry
	err := e.atomic(ctx, "enter_season", func(ctx context.Context, tx storage.Tx, o *op) error {
		season, err := e.loadSeason(ctx, tx, seasonID)
		if err != nil {
			return err
		}
		if season.Status != domain.SeasonActive {
			return ErrSeasonNotActive
		}
		if o.now >= season.EndTime {
			return ErrSeasonEnded
		}

		agent, err := e.loadAgent(ctx, tx, agentAddr)
		if err != nil {
			return err
		}
		if player != agent.Owner {
			return ErrUnauthorized
		}

		entryAddr := e.ids.Entry(season.Address, agent.Address)
		if _, err := tx.GetEntry(ctx, entryAddr); err == nil {
			return ErrAlreadyEntered
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get entry: %w", err)
		}

		arena, err := e.loadArena(ctx, tx)
		if err != nil {
			return err
		}

		platformFee, prize, err := scoring.SplitEntryFee(season.EntryFee, season.PrizePoolBps)
		if err != nil {
			return overflow("split entry fee", err)
		}

		v := e.seasonVault(season.Address)
		if err := v.deposit(ctx, tx, player, season.EntryFee); err != nil {
			return fmt.Errorf("deposit entry fee: %w", err)
		}
		if err := v.release(ctx, tx, arena.Treasury, platformFee); err != nil {
			return fmt.Errorf("route platform fee: %w", err)
		}

		if arena.TotalFeesCollected, err = scoring.Add(arena.TotalFeesCollected, platformFee); err != nil {
			return overflow("total fees collected", err)
		}
		if season.TotalEntries, err = scoring.Inc(season.TotalEntries); err != nil {
			return overflow("total entries", err)
		}
		if season.TotalPool, err = scoring.Add(season.TotalPool, prize); err != nil {
			return overflow("total pool", err)
		}

		entry = &domain.SeasonEntry{
			Address:   entryAddr,
			Season:    season.Address,
			SeasonID:  season.ID,
			Agent:     agent.Address,
			Player:    player,
			EnteredAt: o.now,
		}
		if err := tx.InsertEntry(ctx, entry); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrAlreadyEntered
			}
			return fmt.Errorf("insert entry: %w", err)
		}
		if err := tx.UpdateSeason(ctx, season, domain.SeasonActive); err != nil {
			return staleStatus(err, ErrSeasonNotActive)
		}
		if err := tx.UpdateArena(ctx, arena); err != nil {
			return fmt.Errorf("update arena: %w", err)
		}

		o.onCommit(func() { observability.RecordFees(platformFee) })
		o.emit(events.KindSeasonEntered, events.SeasonEntered{
			SeasonID:          season.ID,
			Entry:             entryAddr,
			Agent:             agent.Address,
			Player:            player,
			EntryFee:          season.EntryFee,
			PlatformFee:       platformFee,
			PrizeContribution: prize,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
