package recommendation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func rec(id uuid.UUID, s Strategy, score float64) Recommendation {
	return Recommendation{ProductID: id, Strategy: s, Confidence: ConfidenceOf(s), Score: score}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, MaxLimit, NormalizeLimit(500))
}

func TestMerge_KeepsHighestConfidencePerProduct(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	out := Merge(10,
		[]Recommendation{rec(a, StrategyContentBased, 9), rec(b, StrategyContentBased, 3)},
		[]Recommendation{rec(a, StrategyCollaborative, 1)},
	)

	assert.Len(t, out, 2)
	assert.Equal(t, a, out[0].ProductID)
	assert.Equal(t, StrategyCollaborative, out[0].Strategy)
	assert.Equal(t, b, out[1].ProductID)
}

func TestMerge_OrdersByConfidenceThenScore(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	out := Merge(10,
		[]Recommendation{rec(a, StrategyContentBased, 1), rec(b, StrategyContentBased, 5)},
		[]Recommendation{rec(c, StrategyCollaborative, 2)},
		[]Recommendation{rec(d, StrategyBestSeller, 100)},
	)

	ids := []uuid.UUID{out[0].ProductID, out[1].ProductID, out[2].ProductID, out[3].ProductID}
	assert.Equal(t, []uuid.UUID{c, b, a, d}, ids)
}

func TestMerge_Truncates(t *testing.T) {
	var list []Recommendation
	for i := 0; i < 20; i++ {
		list = append(list, rec(uuid.New(), StrategyBestSeller, float64(i)))
	}

	out := Merge(5, list)

	assert.Len(t, out, 5)
	assert.Equal(t, float64(19), out[0].Score)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(10))
}
