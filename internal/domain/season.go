package domain

// SecondsPerDay converts season durations from days.
const SecondsPerDay = 86400

// MaxBps is 100% in basis points.
const MaxBps = 10000

// Season is a time-boxed competition window with its own prize pool.
type Season struct {
	Address      Address
	ID           uint64
	Authority    Address
	EntryFee     uint64
	StartTime    int64
	EndTime      int64
	PrizePoolBps uint16 // share of each entry fee retained for the prize pool
	TotalEntries uint64
	TotalPool    uint64 // accumulated prize contributions
	Status       SeasonStatus
}

// SeasonStatus is the lifecycle state of a season.
type SeasonStatus string

const (
	SeasonActive    SeasonStatus = "ACTIVE"
	SeasonCompleted SeasonStatus = "COMPLETED"
	SeasonCancelled SeasonStatus = "CANCELLED"
)

// String returns the string representation of SeasonStatus.
func (s SeasonStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value.
func (s SeasonStatus) IsValid() bool {
	switch s {
	case SeasonActive, SeasonCompleted, SeasonCancelled:
		return true
	}
	return false
}

// SeasonEntry is one agent's participation in one season.
type SeasonEntry struct {
	Address            Address
	Season             Address
	SeasonID           uint64
	Agent              Address
	Player             Address // principal that paid the entry fee
	Score              uint64
	PredictionsMade    uint64
	PredictionsCorrect uint64
	EnteredAt          int64
}
