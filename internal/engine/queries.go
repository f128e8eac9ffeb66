package engine

import (
	"context"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// Arena returns the registry record.
func (e *Engine) Arena(ctx context.Context) (*domain.Arena, error) {
	var arena *domain.Arena
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		arena, err = e.loadArena(ctx, tx)
		return err
	})
	return arena, err
}

// Agent returns an agent by address.
func (e *Engine) Agent(ctx context.Context, addr domain.Address) (*domain.Agent, error) {
	var agent *domain.Agent
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		agent, err = e.loadAgent(ctx, tx, addr)
		return err
	})
	return agent, err
}

// AgentByOwner returns the agent registered by owner.
func (e *Engine) AgentByOwner(ctx context.Context, owner domain.Address) (*domain.Agent, error) {
	return e.Agent(ctx, e.ids.Agent(owner))
}

// Agents returns every agent in join order.
func (e *Engine) Agents(ctx context.Context) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		if agents, err = tx.ListAgents(ctx); err != nil {
			return fmt.Errorf("list agents: %w", err)
		}
		return nil
	})
	return agents, err
}

// Leaderboard returns agents best first: rank tier desc, reputation desc,
// correct predictions desc, then address. limit <= 0 returns all.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]*domain.Agent, error) {
	agents, _, err := e.QueryAgents(ctx, AgentQuery{SortBy: SortRank, Limit: limit})
	return agents, err
}

// Season returns a season by id.
func (e *Engine) Season(ctx context.Context, id uint64) (*domain.Season, error) {
	var season *domain.Season
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		season, err = e.loadSeason(ctx, tx, id)
		return err
	})
	return season, err
}

// Seasons returns every season in id order.
func (e *Engine) Seasons(ctx context.Context) ([]*domain.Season, error) {
	var seasons []*domain.Season
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		if seasons, err = tx.ListSeasons(ctx); err != nil {
			return fmt.Errorf("list seasons: %w", err)
		}
		return nil
	})
	return seasons, err
}

// DueSeasons returns Active seasons whose end time has passed.
func (e *Engine) DueSeasons(ctx context.Context) ([]*domain.Season, error) {
	seasons, err := e.Seasons(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	due := seasons[:0]
	for _, s := range seasons {
		if s.Status == domain.SeasonActive && now >= s.EndTime {
			due = append(due, s)
		}
	}
	return due, nil
}

// Entry returns an agent's entry in a season.
func (e *Engine) Entry(ctx context.Context, seasonID uint64, agent domain.Address) (*domain.SeasonEntry, error) {
	var entry *domain.SeasonEntry
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		season, err := e.loadSeason(ctx, tx, seasonID)
		if err != nil {
			return err
		}
		entry, err = tx.GetEntry(ctx, e.ids.Entry(season.Address, agent))
		return notFound(err, ErrNotEntered)
	})
	return entry, err
}

// Prediction returns a prediction by address.
func (e *Engine) Prediction(ctx context.Context, addr domain.Address) (*domain.Prediction, error) {
	var pred *domain.Prediction
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		pred, err = e.loadPrediction(ctx, tx, addr)
		return err
	})
	return pred, err
}

// Predictions returns an agent's predictions in submission order.
func (e *Engine) Predictions(ctx context.Context, agent domain.Address) ([]*domain.Prediction, error) {
	var preds []*domain.Prediction
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := e.loadAgent(ctx, tx, agent); err != nil {
			return err
		}
		var err error
		if preds, err = tx.ListPredictions(ctx, agent); err != nil {
			return fmt.Errorf("list predictions: %w", err)
		}
		return nil
	})
	return preds, err
}

// Achievements returns an agent's badges in award order.
func (e *Engine) Achievements(ctx context.Context, agent domain.Address) ([]*domain.Achievement, error) {
	var achs []*domain.Achievement
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := e.loadAgent(ctx, tx, agent); err != nil {
			return err
		}
		var err error
		if achs, err = tx.ListAchievements(ctx, agent); err != nil {
			return fmt.Errorf("list achievements: %w", err)
		}
		return nil
	})
	return achs, err
}

// Balance returns the balance held by addr, zero for unknown accounts.
func (e *Engine) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	var balance uint64
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		balance, err = tx.Balance(ctx, addr)
		return err
	})
	return balance, err
}

// SeasonVaultBalance returns what the season vault currently holds.
func (e *Engine) SeasonVaultBalance(ctx context.Context, seasonID uint64) (uint64, error) {
	var balance uint64
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		season, err := e.loadSeason(ctx, tx, seasonID)
		if err != nil {
			return err
		}
		balance, err = e.seasonVault(season.Address).balance(ctx, tx)
		return err
	})
	return balance, err
}

// PredictionVaultBalance returns the stake still escrowed for a prediction.
func (e *Engine) PredictionVaultBalance(ctx context.Context, pred domain.Address) (uint64, error) {
	var balance uint64
	err := e.view(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		balance, err = e.predictionVault(pred).balance(ctx, tx)
		return err
	})
	return balance, err
}
