package engine

import (
	"context"
	"errors"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/scoring"
	"signal-arena/internal/storage"
)

// Initialize creates the arena registry and opens the treasury account.
func (e *Engine) Initialize(ctx context.Context, authority, treasury domain.Address) (*domain.Arena, error) {
	if authority.IsZero() || treasury.IsZero() {
		return nil, ErrInvalidAddress
	}
	var arena *domain.Arena
	err := e.atomic(ctx, "initialize", func(ctx context.Context, tx storage.Tx, o *op) error {
		_, err := tx.GetArena(ctx, e.ids.Arena())
		switch {
		case err == nil:
			return ErrAlreadyInitialized
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("get arena: %w", err)
		}

		arena = &domain.Arena{
			Address:   e.ids.Arena(),
			Authority: authority,
			Treasury:  treasury,
		}
		if err := tx.InsertArena(ctx, arena); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrAlreadyInitialized
			}
			return fmt.Errorf("insert arena: %w", err)
		}
		if err := tx.OpenAccount(ctx, treasury); err != nil {
			return fmt.Errorf("open treasury: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return arena, nil
}

// RegisterAgent creates the owner's agent profile at rank Bronze.
func (e *Engine) RegisterAgent(ctx context.Context, owner domain.Address, name, endpoint string) (*domain.Agent, error) {
	if len(name) > domain.MaxAgentNameLen {
		return nil, ErrNameTooLong
	}
	if len(endpoint) > domain.MaxAgentEndpointLen {
		return nil, ErrEndpointTooLong
	}
	if owner.IsZero() {
		return nil, ErrInvalidAddress
	}

	var agent *domain.Agent
	err := e.atomic(ctx, "register_agent", func(ctx context.Context, tx storage.Tx, o *op) error {
		arena, err := e.loadArena(ctx, tx)
		if err != nil {
			return err
		}

		agent = &domain.Agent{
			Address:  e.ids.Agent(owner),
			Owner:    owner,
			Name:     name,
			Endpoint: endpoint,
			Rank:     domain.RankBronze,
			JoinedAt: o.now,
		}
		if err := tx.InsertAgent(ctx, agent); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrAgentExists
			}
			return fmt.Errorf("insert agent: %w", err)
		}

		if arena.TotalAgents, err = scoring.Inc(arena.TotalAgents); err != nil {
			return overflow("total agents", err)
		}
		if err := tx.UpdateArena(ctx, arena); err != nil {
			return fmt.Errorf("update arena: %w", err)
		}

		o.emit(events.KindAgentRegistered, events.AgentRegistered{
			Agent:    agent.Address,
			Owner:    owner,
			Name:     name,
			Endpoint: endpoint,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// CreateSeason opens a new Active season. Only the arena authority may call it.
func (e *Engine) CreateSeason(ctx context.Context, authority domain.Address, entryFee uint64, durationDays uint32, prizePoolBps uint16) (*domain.Season, error) {
	if prizePoolBps > domain.MaxBps {
		return nil, ErrInvalidPrizeSplit
	}

	var season *domain.Season
	err := e.atomic(ctx, "create_season", func(ctx context.Context, tx storage.Tx, o *op) error {
		arena, err := e.authorize(ctx, tx, authority)
		if err != nil {
			return err
		}

		// durationDays*86400 fits in int64 for every uint32 input.
		end := o.now + int64(durationDays)*domain.SecondsPerDay
		if end < o.now {
			return overflow("season end time", scoring.ErrOverflow)
		}

		id := arena.TotalSeasons
		season = &domain.Season{
			Address:      e.ids.Season(id),
			ID:           id,
			Authority:    authority,
			EntryFee:     entryFee,
			StartTime:    o.now,
			EndTime:      end,
			PrizePoolBps: prizePoolBps,
			Status:       domain.SeasonActive,
		}
		if err := tx.InsertSeason(ctx, season); err != nil {
			return fmt.Errorf("insert season %d: %w", id, err)
		}
		if err := tx.OpenAccount(ctx, e.seasonVault(season.Address).addr); err != nil {
			return fmt.Errorf("open season vault: %w", err)
		}

		if arena.TotalSeasons, err = scoring.Inc(arena.TotalSeasons); err != nil {
			return overflow("total seasons", err)
		}
		if err := tx.UpdateArena(ctx, arena); err != nil {
			return fmt.Errorf("update arena: %w", err)
		}

		o.emit(events.KindSeasonCreated, events.SeasonCreated{
			SeasonID:     id,
			Season:       season.Address,
			EntryFee:     entryFee,
			StartTime:    season.StartTime,
			EndTime:      season.EndTime,
			PrizePoolBps: prizePoolBps,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return season, nil
}
