package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSummarize(t *testing.T) {
	values := mat.NewDense(2, 3, []float64{
		1, -2, 0,
		-3, 2, 0,
	})
	summary := Summarize(values)
	assert.Equal(t, []float64{2, 2, 0}, summary)
}

func TestAggregate(t *testing.T) {
	t.Run("averages and ranks descending", func(t *testing.T) {
		summaries := [][]float64{
			{0.1, 0.5, 0.3},
			{0.3, 0.7, 0.3},
		}
		ranked, err := Aggregate(summaries, []string{"age", "prior_admits", "stay_days"})
		require.NoError(t, err)
		require.Len(t, ranked, 3)

		assert.Equal(t, "prior_admits", ranked[0].Name)
		assert.InDelta(t, 0.6, ranked[0].Importance, 1e-9)
		assert.Equal(t, "stay_days", ranked[1].Name)
		assert.Equal(t, "age", ranked[2].Name)
	})

	t.Run("a failed fold is simply absent", func(t *testing.T) {
		// Five folds ran; attribution failed for one, so only four summaries
		// arrive. Aggregation must use the four and not error.
		summaries := [][]float64{
			{1, 0},
			{2, 0},
			{3, 0},
			{2, 0},
		}
		ranked, err := Aggregate(summaries, nil)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.InDelta(t, 2.0, ranked[0].Importance, 1e-9)
	})

	t.Run("no summaries yields an empty ranking", func(t *testing.T) {
		ranked, err := Aggregate(nil, nil)
		require.NoError(t, err)
		assert.Empty(t, ranked)
	})

	t.Run("mismatched widths are rejected", func(t *testing.T) {
		_, err := Aggregate([][]float64{{1, 2}, {1}}, nil)
		require.Error(t, err)
	})
}
