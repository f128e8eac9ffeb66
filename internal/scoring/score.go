package scoring

// Streak bonus parameters: each consecutive win adds 10% to the base multiplier.
const (
	baseMultiplier  = 100
	streakBonusStep = 10
)

// ScoreDelta returns the score earned by a correct prediction.
// Formula: stake * (100 + streak*10) / 100, where streak already counts this win.
func ScoreDelta(stake uint64, streak uint32) (uint64, error) {
	multiplier := uint64(baseMultiplier) + uint64(streak)*streakBonusStep
	return MulDiv(stake, multiplier, baseMultiplier)
}
