package domain

// Achievement is an append-only reputation badge.
type Achievement struct {
	Address         Address
	Agent           Address
	AchievementType AchievementType
	AwardedAt       int64
}

// AchievementType is the closed set of badges.
type AchievementType string

const (
	AchievementFirstWin    AchievementType = "FIRST_WIN"
	AchievementStreak3     AchievementType = "STREAK_3"
	AchievementStreak5     AchievementType = "STREAK_5"
	AchievementStreak10    AchievementType = "STREAK_10"
	AchievementRankSilver  AchievementType = "RANK_SILVER"
	AchievementRankGold    AchievementType = "RANK_GOLD"
	AchievementRankDiamond AchievementType = "RANK_DIAMOND"
	AchievementRankLegend  AchievementType = "RANK_LEGEND"
)

// String returns the string representation of AchievementType.
func (t AchievementType) String() string {
	return string(t)
}

// IsValid checks if the badge is a known type.
func (t AchievementType) IsValid() bool {
	_, ok := t.Reputation()
	return ok
}

// Reputation returns the fixed reputation delta granted by the badge.
func (t AchievementType) Reputation() (uint64, bool) {
	switch t {
	case AchievementFirstWin:
		return 10, true
	case AchievementStreak3:
		return 25, true
	case AchievementStreak5:
		return 50, true
	case AchievementStreak10:
		return 100, true
	case AchievementRankSilver:
		return 15, true
	case AchievementRankGold:
		return 30, true
	case AchievementRankDiamond:
		return 60, true
	case AchievementRankLegend:
		return 100, true
	}
	return 0, false
}
