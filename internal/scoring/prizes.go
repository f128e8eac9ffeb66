package scoring

// Prize shares in percent for first, second and third place.
var PrizeShares = [3]uint64{50, 30, 20}

// PrizeSplit is the distribution of a season's prize pool.
type PrizeSplit struct {
	Places [3]uint64
	Dust   uint64 // rounding remainder kept in the vault
}

// SplitPrizePool divides pool 50/30/20 with truncating integer division.
func SplitPrizePool(pool uint64) PrizeSplit {
	var split PrizeSplit
	var paid uint64
	for i, share := range PrizeShares {
		// share <= 100, so pool*share/100 <= pool and never overflows.
		amount, _ := MulDiv(pool, share, 100)
		split.Places[i] = amount
		paid += amount
	}
	split.Dust = pool - paid
	return split
}
