package domain

// Length bounds for agent profile fields, in bytes.
const (
	MaxAgentNameLen     = 32
	MaxAgentEndpointLen = 128
)

// Agent is a registered participant profile and its lifetime performance.
type Agent struct {
	Address              Address
	Owner                Address
	Name                 string
	Endpoint             string
	SubmittedPredictions uint64 // seeds prediction addresses; bumps on every submit
	TotalPredictions     uint64 // resolved predictions
	CorrectPredictions   uint64
	Streak               uint32 // consecutive correct, reset on any incorrect resolution
	BestStreak           uint32
	Rank                 Rank
	ReputationScore      uint64
	JoinedAt             int64 // unix seconds
}

// Rank is the derived performance tier of an agent.
type Rank string

const (
	RankBronze  Rank = "BRONZE"
	RankSilver  Rank = "SILVER"
	RankGold    Rank = "GOLD"
	RankDiamond Rank = "DIAMOND"
	RankLegend  Rank = "LEGEND"
)

// String returns the string representation of Rank.
func (r Rank) String() string {
	return string(r)
}

// IsValid checks if the rank is a known tier.
func (r Rank) IsValid() bool {
	switch r {
	case RankBronze, RankSilver, RankGold, RankDiamond, RankLegend:
		return true
	}
	return false
}

// Level orders tiers from 0 (Bronze) to 4 (Legend). Unknown ranks are -1.
func (r Rank) Level() int {
	switch r {
	case RankBronze:
		return 0
	case RankSilver:
		return 1
	case RankGold:
		return 2
	case RankDiamond:
		return 3
	case RankLegend:
		return 4
	}
	return -1
}
