// Package events defines arena notifications and fans them out to sinks.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"signal-arena/internal/domain"
)

// Kind names a notification.
type Kind string

const (
	KindAgentRegistered     Kind = "agent_registered"
	KindSeasonCreated       Kind = "season_created"
	KindSeasonEntered       Kind = "season_entered"
	KindPredictionSubmitted Kind = "prediction_submitted"
	KindPredictionRevealed  Kind = "prediction_revealed"
	KindPredictionResolved  Kind = "prediction_resolved"
	KindAchievementAwarded  Kind = "achievement_awarded"
	KindPrizesDistributed   Kind = "prizes_distributed"
	KindTreasuryWithdrawn   Kind = "treasury_withdrawn"
)

// Event is one notification emitted after a successful operation.
type Event struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	OccurredAt int64  `json:"occurred_at"`
	Payload    any    `json:"payload"`
}

// New stamps a payload with a fresh id.
func New(kind Kind, occurredAt int64, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: occurredAt,
		Payload:    payload,
	}
}

// Record encodes the event for an EventStore.
func (e Event) Record() (*domain.EventRecord, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Kind, err)
	}
	return &domain.EventRecord{
		EventID:    e.ID,
		Kind:       string(e.Kind),
		OccurredAt: e.OccurredAt,
		Payload:    payload,
	}, nil
}

type AgentRegistered struct {
	Agent    domain.Address `json:"agent"`
	Owner    domain.Address `json:"owner"`
	Name     string         `json:"name"`
	Endpoint string         `json:"endpoint"`
}

type SeasonCreated struct {
	SeasonID     uint64         `json:"season_id"`
	Season       domain.Address `json:"season"`
	EntryFee     uint64         `json:"entry_fee"`
	StartTime    int64          `json:"start_time"`
	EndTime      int64          `json:"end_time"`
	PrizePoolBps uint16         `json:"prize_pool_bps"`
}

type SeasonEntered struct {
	SeasonID          uint64         `json:"season_id"`
	Entry             domain.Address `json:"entry"`
	Agent             domain.Address `json:"agent"`
	Player            domain.Address `json:"player"`
	EntryFee          uint64         `json:"entry_fee"`
	PlatformFee       uint64         `json:"platform_fee"`
	PrizeContribution uint64         `json:"prize_contribution"`
}

type PredictionSubmitted struct {
	Prediction     domain.Address `json:"prediction"`
	Agent          domain.Address `json:"agent"`
	Player         domain.Address `json:"player"`
	SeasonID       uint64         `json:"season_id"`
	PredictionHash string         `json:"prediction_hash"` // hex
	StakeAmount    uint64         `json:"stake_amount"`
}

type PredictionRevealed struct {
	Prediction     domain.Address `json:"prediction"`
	Agent          domain.Address `json:"agent"`
	PredictionData string         `json:"prediction_data"`
}

// PredictionResolved carries the score earned by this resolution, not the cumulative score.
type PredictionResolved struct {
	Prediction    domain.Address `json:"prediction"`
	Agent         domain.Address `json:"agent"`
	SeasonID      uint64         `json:"season_id"`
	WasCorrect    bool           `json:"was_correct"`
	ScoreDelta    uint64         `json:"score_delta"`
	StakeReturned uint64         `json:"stake_returned"`
	Bonus         uint64         `json:"bonus"`
	Forfeited     uint64         `json:"forfeited"`
	Streak        uint32         `json:"streak"`
	Rank          domain.Rank    `json:"rank"`
}

type AchievementAwarded struct {
	Agent           domain.Address         `json:"agent"`
	Achievement     domain.Address         `json:"achievement"`
	AchievementType domain.AchievementType `json:"achievement_type"`
	ReputationDelta uint64                 `json:"reputation_delta"`
	ReputationScore uint64                 `json:"reputation_score"`
}

type PrizesDistributed struct {
	SeasonID  uint64            `json:"season_id"`
	TotalPool uint64            `json:"total_pool"`
	Winners   [3]domain.Address `json:"winners"`
	Amounts   [3]uint64         `json:"amounts"` // zero for skipped recipients
	Dust      uint64            `json:"dust"`
}

type TreasuryWithdrawn struct {
	Authority domain.Address `json:"authority"`
	Amount    uint64         `json:"amount"`
	Remaining uint64         `json:"remaining"`
}
