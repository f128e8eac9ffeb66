package engine

import (
	"context"
	"encoding/hex"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/idhash"
	"signal-arena/internal/scoring"
	"signal-arena/internal/storage"
)

// SubmitPrediction commits a hashed prediction for an entered agent and
// escrows stake in a vault derived from the new prediction's address.
func (e *Engine) SubmitPrediction(ctx context.Context, seasonID uint64, agentAddr, player domain.Address, hash [domain.HashLen]byte, stake uint64) (*domain.Prediction, error) {
	var pred *domain.Prediction
	err := e.atomic(ctx, "submit_prediction", func(ctx context.Context, tx storage.Tx, o *op) error {
		season, err := e.loadSeason(ctx, tx, seasonID)
		if err != nil {
			return err
		}
		if season.Status != domain.SeasonActive {
			return ErrSeasonNotActive
		}

		agent, err := e.loadAgent(ctx, tx, agentAddr)
		if err != nil {
			return err
		}
		if player != agent.Owner {
			return ErrUnauthorized
		}
		if _, err := tx.GetEntry(ctx, e.ids.Entry(season.Address, agent.Address)); err != nil {
			return notFound(err, ErrNotEntered)
		}

		seq := agent.SubmittedPredictions
		pred = &domain.Prediction{
			Address:        e.ids.Prediction(agent.Address, season.Address, seq),
			Agent:          agent.Address,
			Player:         player,
			SeasonID:       season.ID,
			Sequence:       seq,
			PredictionHash: hash,
			StakeAmount:    stake,
			SubmittedAt:    o.now,
			Status:         domain.PredictionCommitted,
		}
		if err := tx.InsertPrediction(ctx, pred); err != nil {
			return fmt.Errorf("insert prediction %d: %w", seq, err)
		}
		if agent.SubmittedPredictions, err = scoring.Inc(seq); err != nil {
			return overflow("submitted predictions", err)
		}
		if err := tx.UpdateAgent(ctx, agent); err != nil {
			return fmt.Errorf("update agent: %w", err)
		}

		if stake > 0 {
			if err := e.predictionVault(pred.Address).deposit(ctx, tx, player, stake); err != nil {
				return fmt.Errorf("escrow stake: %w", err)
			}
		}

		o.emit(events.KindPredictionSubmitted, events.PredictionSubmitted{
			Prediction:     pred.Address,
			Agent:          agent.Address,
			Player:         player,
			SeasonID:       season.ID,
			PredictionHash: hex.EncodeToString(hash[:]),
			StakeAmount:    stake,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pred, nil
}

// RevealPrediction discloses the data behind a commitment. The SHA-256 of
// data must equal the stored hash exactly.
func (e *Engine) RevealPrediction(ctx context.Context, predAddr, signer domain.Address, data string) (*domain.Prediction, error) {
	var pred *domain.Prediction
	err := e.atomic(ctx, "reveal_prediction", func(ctx context.Context, tx storage.Tx, o *op) error {
		var err error
		if pred, err = e.loadPrediction(ctx, tx, predAddr); err != nil {
			return err
		}
		next, err := predictionStep(pred, domain.PredictionCommitted)
		if err != nil {
			return err
		}
		if signer != pred.Player {
			return ErrUnauthorized
		}
		if len(data) > domain.MaxPredictionDataLen {
			return ErrPredictionDataTooLong
		}
		if idhash.Commitment(data) != pred.PredictionHash {
			return ErrHashMismatch
		}

		pred.PredictionData = data
		pred.RevealedAt = o.now
		pred.Status = next
		if err := tx.UpdatePrediction(ctx, pred, domain.PredictionCommitted); err != nil {
			return staleStatus(err, ErrInvalidPredictionStatus)
		}

		o.emit(events.KindPredictionRevealed, events.PredictionRevealed{
			Prediction:     pred.Address,
			Agent:          pred.Agent,
			PredictionData: data,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pred, nil
}

// predictionStep checks that p is at from and returns the status it moves to.
func predictionStep(p *domain.Prediction, from domain.PredictionStatus) (domain.PredictionStatus, error) {
	next, ok := p.Status.Next()
	if p.Status != from || !ok {
		return "", ErrInvalidPredictionStatus
	}
	return next, nil
}
