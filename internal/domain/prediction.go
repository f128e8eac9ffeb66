package domain

// HashLen is the size of a prediction commitment.
const HashLen = 32

// MaxPredictionDataLen bounds the revealed payload, in bytes.
const MaxPredictionDataLen = 256

// Prediction is a single commit-reveal submission and its staked escrow.
type Prediction struct {
	Address        Address
	Agent          Address
	Player         Address // staking principal; receives released stake
	SeasonID       uint64
	Sequence       uint64 // agent submission counter used as address seed
	PredictionHash [HashLen]byte
	PredictionData string // empty until revealed
	StakeAmount    uint64
	SubmittedAt    int64
	RevealedAt     int64
	ResolvedAt     int64
	WasCorrect     bool
	Status         PredictionStatus
}

// PredictionStatus is the commit-reveal state. Transitions only move forward:
// COMMITTED -> REVEALED -> RESOLVED.
type PredictionStatus string

const (
	PredictionCommitted PredictionStatus = "COMMITTED"
	PredictionRevealed  PredictionStatus = "REVEALED"
	PredictionResolved  PredictionStatus = "RESOLVED"
)

// String returns the string representation of PredictionStatus.
func (s PredictionStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value.
func (s PredictionStatus) IsValid() bool {
	switch s {
	case PredictionCommitted, PredictionRevealed, PredictionResolved:
		return true
	}
	return false
}

// Next returns the only status s may move to, and false for the terminal state.
func (s PredictionStatus) Next() (PredictionStatus, bool) {
	switch s {
	case PredictionCommitted:
		return PredictionRevealed, true
	case PredictionRevealed:
		return PredictionResolved, true
	}
	return "", false
}
