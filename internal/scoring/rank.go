package scoring

import (
	"github.com/holiman/uint256"

	"signal-arena/internal/domain"
)

// Accuracy returns correct*100/total, or 0 when nothing has been resolved.
func Accuracy(correct, total uint64) uint64 {
	if total == 0 {
		return 0
	}
	// correct <= total, so the 256-bit path cannot overflow after division.
	acc, err := MulDiv(correct, 100, total)
	if err != nil {
		return 0
	}
	return acc
}

// ComputeRank evaluates the tier table in priority order; first match wins.
//
//	Legend  accuracy >= 80 and correct >= 50
//	Diamond accuracy >= 70 and best streak >= 10
//	Gold    accuracy >= 60 and best streak >= 5
//	Silver  accuracy >= 50 and best streak >= 3
//	Bronze  otherwise
func ComputeRank(correct, total uint64, bestStreak uint32) domain.Rank {
	acc := Accuracy(correct, total)
	switch {
	case acc >= 80 && correct >= 50:
		return domain.RankLegend
	case acc >= 70 && bestStreak >= 10:
		return domain.RankDiamond
	case acc >= 60 && bestStreak >= 5:
		return domain.RankGold
	case acc >= 50 && bestStreak >= 3:
		return domain.RankSilver
	default:
		return domain.RankBronze
	}
}

// AccuracyAtLeast reports whether correct/total is at least minBps basis
// points. Nothing resolved counts as zero accuracy.
func AccuracyAtLeast(correct, total, minBps uint64) bool {
	if total == 0 {
		return minBps == 0
	}
	lhs := new(uint256.Int).Mul(uint256.NewInt(correct), uint256.NewInt(10_000))
	rhs := new(uint256.Int).Mul(uint256.NewInt(minBps), uint256.NewInt(total))
	return lhs.Cmp(rhs) >= 0
}

// CompareAccuracy compares c1/t1 with c2/t2 exactly, returning -1, 0 or 1.
func CompareAccuracy(c1, t1, c2, t2 uint64) int {
	if t1 == 0 {
		c1, t1 = 0, 1
	}
	if t2 == 0 {
		c2, t2 = 0, 1
	}
	lhs := new(uint256.Int).Mul(uint256.NewInt(c1), uint256.NewInt(t2))
	rhs := new(uint256.Int).Mul(uint256.NewInt(c2), uint256.NewInt(t1))
	return lhs.Cmp(rhs)
}
