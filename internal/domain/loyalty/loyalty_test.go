package loyalty

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int64
		want   Tier
	}{
		{0, TierBronze},
		{999, TierBronze},
		{1000, TierSilver},
		{4999, TierSilver},
		{5000, TierGold},
		{9999, TierGold},
		{10000, TierPlatinum},
		{250000, TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.points), "points=%d", tt.points)
	}
}

func TestNextTier(t *testing.T) {
	tier, need := NextTier(0)
	assert.Equal(t, TierSilver, tier)
	assert.Equal(t, int64(1000), need)

	tier, need = NextTier(4200)
	assert.Equal(t, TierGold, tier)
	assert.Equal(t, int64(800), need)

	tier, need = NextTier(12000)
	assert.Equal(t, TierPlatinum, tier)
	assert.Equal(t, int64(0), need)
}

func TestPointsForAmount(t *testing.T) {
	assert.Equal(t, int64(99), PointsForAmount(decimal.RequireFromString("99.99"), decimal.NewFromInt(1)))
	assert.Equal(t, int64(199), PointsForAmount(decimal.RequireFromString("99.99"), decimal.NewFromInt(2)))
	assert.Equal(t, int64(0), PointsForAmount(decimal.RequireFromString("-5"), decimal.NewFromInt(1)))
}

func TestValueOfPoints(t *testing.T) {
	assert.True(t, decimal.RequireFromString("5.00").Equal(ValueOfPoints(500, decimal.RequireFromString("0.01"))))
	assert.True(t, decimal.Zero.Equal(ValueOfPoints(0, decimal.RequireFromString("0.01"))))
}

func TestTier_IsValid(t *testing.T) {
	assert.True(t, TierGold.IsValid())
	assert.False(t, Tier("DIAMOND").IsValid())
}
