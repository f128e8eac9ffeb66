package domain

// Arena is the singleton registry record.
type Arena struct {
	Address            Address
	Authority          Address // owning principal; creates seasons, resolves, awards, withdraws
	Treasury           Address // fee sink
	TotalSeasons       uint64  // next season id
	TotalAgents        uint64
	TotalFeesCollected uint64 // platform fees + forfeited stakes routed to treasury
	TotalRewardsPaid   uint64 // bonus stakes paid out of treasury
}
