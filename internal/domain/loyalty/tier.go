package loyalty

// Tier is a customer loyalty tier derived from lifetime points
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// tierThresholds is ordered from highest to lowest
var tierThresholds = []struct {
	tier Tier
	min  int64
}{
	{TierPlatinum, 10000},
	{TierGold, 5000},
	{TierSilver, 1000},
	{TierBronze, 0},
}

// TierFor returns the tier earned by the given lifetime points
func TierFor(lifetimePoints int64) Tier {
	for _, t := range tierThresholds {
		if lifetimePoints >= t.min {
			return t.tier
		}
	}
	return TierBronze
}

// NextTier returns the next tier and the points still needed to reach it.
// At the top tier it returns the current tier and zero.
func NextTier(lifetimePoints int64) (Tier, int64) {
	next := TierPlatinum
	var need int64
	for _, t := range tierThresholds {
		if lifetimePoints >= t.min {
			break
		}
		next = t.tier
		need = t.min - lifetimePoints
	}
	if need == 0 {
		return TierFor(lifetimePoints), 0
	}
	return next, need
}

// IsValid reports whether the tier is known
func (t Tier) IsValid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}
