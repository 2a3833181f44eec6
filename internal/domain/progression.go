package domain

// RequiredXP returns the experience needed to advance past the given level.
// Strictly increasing in level.
func RequiredXP(level int) int64 {
	return 100 + 150*int64(level)
}

// ApplyExperience adds amount to the current xp and resolves at most one
// level-up: when the threshold is crossed the remainder carries over and the
// level increments exactly once per call.
func ApplyExperience(level int, xp, amount int64) (newLevel int, newXP int64, leveledUp bool) {
	newXP = xp + amount
	need := RequiredXP(level)
	if newXP >= need {
		return level + 1, newXP - need, true
	}
	return level, newXP, false
}

// PrestigeCost returns the price of the next prestige purchase: p^2 * base
// for current prestige p. Players start at prestige 1, so the first purchase
// costs exactly base.
func PrestigeCost(prestige, base int64) int64 {
	return prestige * prestige * base
}

// PrestigeResetCurrency is the balance a user holds right after prestiging.
func PrestigeResetCurrency(newPrestige int64) int64 {
	return 1000 * newPrestige
}

// TickIncome is one tick's passive income for a single owned building type.
func TickIncome(count, income, prestige int64) int64 {
	return count * income * prestige
}
