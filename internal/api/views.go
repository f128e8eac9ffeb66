package api

import (
	"encoding/hex"
	"math/big"

	"github.com/shopspring/decimal"

	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
)

// solDecimals is the lamport exponent: 1 SOL = 10^9 lamports.
const solDecimals = 9

// sol renders lamports as a SOL amount, e.g. 1500000000 -> "1.5".
func sol(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -solDecimals).String()
}

type arenaView struct {
	Address            domain.Address `json:"address"`
	Authority          domain.Address `json:"authority"`
	Treasury           domain.Address `json:"treasury"`
	TreasuryBalance    uint64         `json:"treasury_balance"`
	TreasuryBalanceSOL string         `json:"treasury_balance_sol"`
	TotalSeasons       uint64         `json:"total_seasons"`
	TotalAgents        uint64         `json:"total_agents"`
	TotalFeesCollected uint64         `json:"total_fees_collected"`
	TotalRewardsPaid   uint64         `json:"total_rewards_paid"`
	Policy             string         `json:"policy"`
}

func newArenaView(a *domain.Arena, treasury uint64, policy engine.Policy) arenaView {
	return arenaView{
		Address:            a.Address,
		Authority:          a.Authority,
		Treasury:           a.Treasury,
		TreasuryBalance:    treasury,
		TreasuryBalanceSOL: sol(treasury),
		TotalSeasons:       a.TotalSeasons,
		TotalAgents:        a.TotalAgents,
		TotalFeesCollected: a.TotalFeesCollected,
		TotalRewardsPaid:   a.TotalRewardsPaid,
		Policy:             policy.String(),
	}
}

type agentView struct {
	Address            domain.Address `json:"address"`
	Owner              domain.Address `json:"owner"`
	Name               string         `json:"name"`
	Endpoint           string         `json:"endpoint"`
	TotalPredictions   uint64         `json:"total_predictions"`
	CorrectPredictions uint64         `json:"correct_predictions"`
	Streak             uint32         `json:"streak"`
	BestStreak         uint32         `json:"best_streak"`
	Rank               domain.Rank    `json:"rank"`
	ReputationScore    uint64         `json:"reputation_score"`
	JoinedAt           int64          `json:"joined_at"`
}

func newAgentView(a *domain.Agent) agentView {
	return agentView{
		Address:            a.Address,
		Owner:              a.Owner,
		Name:               a.Name,
		Endpoint:           a.Endpoint,
		TotalPredictions:   a.TotalPredictions,
		CorrectPredictions: a.CorrectPredictions,
		Streak:             a.Streak,
		BestStreak:         a.BestStreak,
		Rank:               a.Rank,
		ReputationScore:    a.ReputationScore,
		JoinedAt:           a.JoinedAt,
	}
}

func newAgentViews(agents []*domain.Agent) []agentView {
	out := make([]agentView, len(agents))
	for i, a := range agents {
		out[i] = newAgentView(a)
	}
	return out
}

type seasonView struct {
	Address      domain.Address      `json:"address"`
	ID           uint64              `json:"id"`
	EntryFee     uint64              `json:"entry_fee"`
	EntryFeeSOL  string              `json:"entry_fee_sol"`
	StartTime    int64               `json:"start_time"`
	EndTime      int64               `json:"end_time"`
	PrizePoolBps uint16              `json:"prize_pool_bps"`
	TotalEntries uint64              `json:"total_entries"`
	TotalPool    uint64              `json:"total_pool"`
	TotalPoolSOL string              `json:"total_pool_sol"`
	Status       domain.SeasonStatus `json:"status"`
}

func newSeasonView(s *domain.Season) seasonView {
	return seasonView{
		Address:      s.Address,
		ID:           s.ID,
		EntryFee:     s.EntryFee,
		EntryFeeSOL:  sol(s.EntryFee),
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		PrizePoolBps: s.PrizePoolBps,
		TotalEntries: s.TotalEntries,
		TotalPool:    s.TotalPool,
		TotalPoolSOL: sol(s.TotalPool),
		Status:       s.Status,
	}
}

type entryView struct {
	Place              int            `json:"place,omitempty"`
	Address            domain.Address `json:"address"`
	SeasonID           uint64         `json:"season_id"`
	Agent              domain.Address `json:"agent"`
	Player             domain.Address `json:"player"`
	Score              uint64         `json:"score"`
	PredictionsMade    uint64         `json:"predictions_made"`
	PredictionsCorrect uint64         `json:"predictions_correct"`
	EnteredAt          int64          `json:"entered_at"`
}

func newEntryView(e *domain.SeasonEntry, place int) entryView {
	return entryView{
		Place:              place,
		Address:            e.Address,
		SeasonID:           e.SeasonID,
		Agent:              e.Agent,
		Player:             e.Player,
		Score:              e.Score,
		PredictionsMade:    e.PredictionsMade,
		PredictionsCorrect: e.PredictionsCorrect,
		EnteredAt:          e.EnteredAt,
	}
}

type predictionView struct {
	Address        domain.Address          `json:"address"`
	Agent          domain.Address          `json:"agent"`
	Player         domain.Address          `json:"player"`
	SeasonID       uint64                  `json:"season_id"`
	Sequence       uint64                  `json:"sequence"`
	PredictionHash string                  `json:"prediction_hash"`
	PredictionData string                  `json:"prediction_data,omitempty"`
	StakeAmount    uint64                  `json:"stake_amount"`
	StakeAmountSOL string                  `json:"stake_amount_sol"`
	SubmittedAt    int64                   `json:"submitted_at"`
	RevealedAt     int64                   `json:"revealed_at,omitempty"`
	ResolvedAt     int64                   `json:"resolved_at,omitempty"`
	WasCorrect     bool                    `json:"was_correct"`
	Status         domain.PredictionStatus `json:"status"`
}

func newPredictionView(p *domain.Prediction) predictionView {
	return predictionView{
		Address:        p.Address,
		Agent:          p.Agent,
		Player:         p.Player,
		SeasonID:       p.SeasonID,
		Sequence:       p.Sequence,
		PredictionHash: hex.EncodeToString(p.PredictionHash[:]),
		PredictionData: p.PredictionData,
		StakeAmount:    p.StakeAmount,
		StakeAmountSOL: sol(p.StakeAmount),
		SubmittedAt:    p.SubmittedAt,
		RevealedAt:     p.RevealedAt,
		ResolvedAt:     p.ResolvedAt,
		WasCorrect:     p.WasCorrect,
		Status:         p.Status,
	}
}

type achievementView struct {
	Address         domain.Address         `json:"address"`
	Agent           domain.Address         `json:"agent"`
	AchievementType domain.AchievementType `json:"achievement_type"`
	AwardedAt       int64                  `json:"awarded_at"`
}

func newAchievementView(a *domain.Achievement) achievementView {
	return achievementView{
		Address:         a.Address,
		Agent:           a.Agent,
		AchievementType: a.AchievementType,
		AwardedAt:       a.AwardedAt,
	}
}

type resolutionView struct {
	Prediction    predictionView `json:"prediction"`
	ScoreDelta    uint64         `json:"score_delta"`
	SeasonScore   uint64         `json:"season_score"`
	StakeReturned uint64         `json:"stake_returned"`
	Bonus         uint64         `json:"bonus"`
	Forfeited     uint64         `json:"forfeited"`
	Streak        uint32         `json:"streak"`
	Rank          domain.Rank    `json:"rank"`
}

func newResolutionView(r *engine.Resolution) resolutionView {
	return resolutionView{
		Prediction:    newPredictionView(r.Prediction),
		ScoreDelta:    r.ScoreDelta,
		SeasonScore:   r.Entry.Score,
		StakeReturned: r.StakeReturned,
		Bonus:         r.Bonus,
		Forfeited:     r.Forfeited,
		Streak:        r.Agent.Streak,
		Rank:          r.Agent.Rank,
	}
}

type distributionView struct {
	SeasonID   uint64            `json:"season_id"`
	Winners    [3]domain.Address `json:"winners"`
	Amounts    [3]uint64         `json:"amounts"`
	AmountsSOL [3]string         `json:"amounts_sol"`
	Paid       uint64            `json:"paid"`
	Dust       uint64            `json:"dust"`
}

func newDistributionView(d *engine.Distribution) distributionView {
	v := distributionView{
		SeasonID: d.Season.ID,
		Winners:  d.Winners,
		Amounts:  d.Amounts,
		Paid:     d.Paid,
		Dust:     d.Dust,
	}
	for i, amt := range d.Amounts {
		v.AmountsSOL[i] = sol(amt)
	}
	return v
}

type balanceView struct {
	Address domain.Address `json:"address"`
	Balance uint64         `json:"balance"`
	SOL     string         `json:"sol"`
}
