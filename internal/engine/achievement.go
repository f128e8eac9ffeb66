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

// AwardAchievement appends a badge to an agent and adds its reputation.
// Eligibility is the authority's call; no criteria are checked here.
func (e *Engine) AwardAchievement(ctx context.Context, agentAddr, authority domain.Address, kind domain.AchievementType) (*domain.Achievement, error) {
	delta, ok := kind.Reputation()
	if !ok {
		return nil, ErrInvalidAchievement
	}

	var ach *domain.Achievement
	err := e.atomic(ctx, "award_achievement", func(ctx context.Context, tx storage.Tx, o *op) error {
		if _, err := e.authorize(ctx, tx, authority); err != nil {
			return err
		}
		agent, err := e.loadAgent(ctx, tx, agentAddr)
		if err != nil {
			return err
		}

		ach = &domain.Achievement{
			Address:         e.ids.Achievement(agent.Address, agent.ReputationScore),
			Agent:           agent.Address,
			AchievementType: kind,
			AwardedAt:       o.now,
		}
		if err := tx.InsertAchievement(ctx, ach); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("achievement at reputation %d exists: %w", agent.ReputationScore, err)
			}
			return fmt.Errorf("insert achievement: %w", err)
		}

		if agent.ReputationScore, err = scoring.Add(agent.ReputationScore, delta); err != nil {
			return overflow("reputation", err)
		}
		if err := tx.UpdateAgent(ctx, agent); err != nil {
			return fmt.Errorf("update agent: %w", err)
		}

		o.emit(events.KindAchievementAwarded, events.AchievementAwarded{
			Agent:           agent.Address,
			Achievement:     ach.Address,
			AchievementType: kind,
			ReputationDelta: delta,
			ReputationScore: agent.ReputationScore,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ach, nil
}
