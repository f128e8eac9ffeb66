package engine

import (
	"context"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/observability"
	"signal-arena/internal/scoring"
	"signal-arena/internal/storage"
)

// Resolution is the outcome of settling one prediction.
type Resolution struct {
	Prediction    *domain.Prediction
	Agent         *domain.Agent
	Entry         *domain.SeasonEntry
	ScoreDelta    uint64
	StakeReturned uint64 // principal released to the player
	Bonus         uint64 // paid from the treasury under StakeReturnDouble
	Forfeited     uint64 // lost stake, routed or burned per policy
}

// ResolvePrediction settles a revealed prediction as correct or incorrect,
// updating the agent's streak, rank and season score and moving the stake
// according to the engine's policy. Only the arena authority may resolve.
func (e *Engine) ResolvePrediction(ctx context.Context, predAddr, authority domain.Address, wasCorrect bool) (*Resolution, error) {
	var res *Resolution
	err := e.atomic(ctx, "resolve_prediction", func(ctx context.Context, tx storage.Tx, o *op) error {
		pred, err := e.loadPrediction(ctx, tx, predAddr)
		if err != nil {
			return err
		}
		next, err := predictionStep(pred, domain.PredictionRevealed)
		if err != nil {
			return err
		}
		arena, err := e.authorize(ctx, tx, authority)
		if err != nil {
			return err
		}

		agent, err := e.loadAgent(ctx, tx, pred.Agent)
		if err != nil {
			return err
		}
		season, err := e.loadSeason(ctx, tx, pred.SeasonID)
		if err != nil {
			return err
		}
		entry, err := tx.GetEntry(ctx, e.ids.Entry(season.Address, agent.Address))
		if err != nil {
			return notFound(err, ErrNotEntered)
		}

		res = &Resolution{Prediction: pred, Agent: agent, Entry: entry}
		if agent.TotalPredictions, err = scoring.Inc(agent.TotalPredictions); err != nil {
			return overflow("total predictions", err)
		}
		if entry.PredictionsMade, err = scoring.Inc(entry.PredictionsMade); err != nil {
			return overflow("predictions made", err)
		}

		v := e.predictionVault(pred.Address)
		if wasCorrect {
			err = e.settleCorrect(ctx, tx, arena, agent, entry, pred, v, res)
		} else {
			err = e.settleIncorrect(ctx, tx, arena, agent, pred, v, res)
		}
		if err != nil {
			return err
		}

		pred.WasCorrect = wasCorrect
		pred.ResolvedAt = o.now
		pred.Status = next
		if err := tx.UpdatePrediction(ctx, pred, domain.PredictionRevealed); err != nil {
			return staleStatus(err, ErrInvalidPredictionStatus)
		}
		if err := tx.UpdateAgent(ctx, agent); err != nil {
			return fmt.Errorf("update agent: %w", err)
		}
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		if err := tx.UpdateArena(ctx, arena); err != nil {
			return fmt.Errorf("update arena: %w", err)
		}

		forfeitDest := string(e.policy.Forfeit)
		o.onCommit(func() {
			if wasCorrect {
				observability.RecordStakeReturned(res.StakeReturned, res.Bonus)
			} else {
				observability.RecordStakeForfeited(forfeitDest, res.Forfeited)
			}
		})
		o.emit(events.KindPredictionResolved, events.PredictionResolved{
			Prediction:    pred.Address,
			Agent:         agent.Address,
			SeasonID:      pred.SeasonID,
			WasCorrect:    wasCorrect,
			ScoreDelta:    res.ScoreDelta,
			StakeReturned: res.StakeReturned,
			Bonus:         res.Bonus,
			Forfeited:     res.Forfeited,
			Streak:        agent.Streak,
			Rank:          agent.Rank,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) settleCorrect(ctx context.Context, tx storage.Tx, arena *domain.Arena, agent *domain.Agent, entry *domain.SeasonEntry, pred *domain.Prediction, v vault, res *Resolution) error {
	var err error
	if agent.Streak == ^uint32(0) {
		return overflow("streak", scoring.ErrOverflow)
	}
	agent.Streak++
	if agent.Streak > agent.BestStreak {
		agent.BestStreak = agent.Streak
	}
	if agent.CorrectPredictions, err = scoring.Inc(agent.CorrectPredictions); err != nil {
		return overflow("correct predictions", err)
	}
	if entry.PredictionsCorrect, err = scoring.Inc(entry.PredictionsCorrect); err != nil {
		return overflow("predictions correct", err)
	}
	if res.ScoreDelta, err = scoring.ScoreDelta(pred.StakeAmount, agent.Streak); err != nil {
		return overflow("score delta", err)
	}
	if entry.Score, err = scoring.Add(entry.Score, res.ScoreDelta); err != nil {
		return overflow("season score", err)
	}
	agent.Rank = scoring.ComputeRank(agent.CorrectPredictions, agent.TotalPredictions, agent.BestStreak)

	if e.policy.StakeReturn == StakeReturnDouble {
		res.Bonus = pred.StakeAmount
		// Checked before any funds move.
		treasury, err := tx.Balance(ctx, arena.Treasury)
		if err != nil {
			return fmt.Errorf("treasury balance: %w", err)
		}
		if treasury < res.Bonus {
			return fmt.Errorf("%w: treasury holds %d, bonus %d", ErrInsufficientFunds, treasury, res.Bonus)
		}
		if arena.TotalRewardsPaid, err = scoring.Add(arena.TotalRewardsPaid, res.Bonus); err != nil {
			return overflow("total rewards paid", err)
		}
	}

	res.StakeReturned = pred.StakeAmount
	if err := v.release(ctx, tx, pred.Player, res.StakeReturned); err != nil {
		return fmt.Errorf("release stake: %w", err)
	}
	if err := transfer(ctx, tx, arena.Treasury, pred.Player, res.Bonus); err != nil {
		return fmt.Errorf("pay bonus: %w", err)
	}
	return nil
}

func (e *Engine) settleIncorrect(ctx context.Context, tx storage.Tx, arena *domain.Arena, agent *domain.Agent, pred *domain.Prediction, v vault, res *Resolution) error {
	agent.Streak = 0
	res.Forfeited = pred.StakeAmount

	switch e.policy.Forfeit {
	case ForfeitTreasury:
		var err error
		if arena.TotalFeesCollected, err = scoring.Add(arena.TotalFeesCollected, res.Forfeited); err != nil {
			return overflow("total fees collected", err)
		}
		if err := v.release(ctx, tx, arena.Treasury, res.Forfeited); err != nil {
			return fmt.Errorf("forfeit stake: %w", err)
		}
	case ForfeitBurn:
		// The stake stays locked in the prediction vault.
	}
	return nil
}
