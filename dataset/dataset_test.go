package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	x := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	ds, err := New(x, []float64{0, 1, 0, 1}, []string{"age", "stay_days"})
	require.NoError(t, err)
	return ds
}

func TestNew(t *testing.T) {
	t.Run("rejects non-binary labels", func(t *testing.T) {
		x := mat.NewDense(2, 1, []float64{1, 2})
		_, err := New(x, []float64{0, 2}, nil)
		require.Error(t, err)
	})

	t.Run("rejects label length mismatch", func(t *testing.T) {
		x := mat.NewDense(2, 1, []float64{1, 2})
		_, err := New(x, []float64{0}, nil)
		require.Error(t, err)
	})

	t.Run("rejects feature name mismatch", func(t *testing.T) {
		x := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
		_, err := New(x, []float64{0, 1}, []string{"only_one"})
		require.Error(t, err)
	})
}

func TestSubset(t *testing.T) {
	ds := newTestDataset(t)
	sub := ds.Subset([]int{3, 1})

	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 4.0, sub.X.At(0, 0))
	assert.Equal(t, 40.0, sub.X.At(0, 1))
	assert.Equal(t, 2.0, sub.X.At(1, 0))
	assert.Equal(t, []float64{1, 1}, sub.Y)

	// The subset owns its storage.
	sub.X.Set(0, 0, -1)
	assert.Equal(t, 4.0, ds.X.At(3, 0))
}

func TestClassCounts(t *testing.T) {
	ds := newTestDataset(t)
	counts := ds.Counts()
	assert.Equal(t, ClassCounts{Positives: 2, Negatives: 2}, counts)
	assert.Equal(t, 0.5, counts.PosRatio())
	assert.Equal(t, 1.0, counts.ScalePosWeight())

	imbalanced := ClassCounts{Positives: 2, Negatives: 8}
	assert.Equal(t, 4.0, imbalanced.ScalePosWeight())
	assert.Equal(t, 1.0, ClassCounts{Negatives: 5}.ScalePosWeight())
}

// recordingImputer marks rows so tests can tell fit-transform from transform.
type recordingImputer struct {
	fitCalls       int
	transformCalls int
}

func (ri *recordingImputer) FitTransform(train *Dataset) (*Dataset, error) {
	ri.fitCalls++
	return train, nil
}

func (ri *recordingImputer) Transform(other *Dataset) (*Dataset, error) {
	ri.transformCalls++
	return other, nil
}

type recordingOversampler struct {
	calls int
	k     int
	ratio float64
}

func (ro *recordingOversampler) Oversample(train *Dataset, neighborCount int, targetRatio float64) (*Dataset, error) {
	ro.calls++
	ro.k = neighborCount
	ro.ratio = targetRatio
	return train, nil
}

func TestPipeline(t *testing.T) {
	t.Run("nil pipeline passes data through", func(t *testing.T) {
		ds := newTestDataset(t)
		var p *Pipeline

		out, err := p.PrepareTrain(ds)
		require.NoError(t, err)
		assert.Same(t, ds, out)

		out, err = p.PrepareEval(ds)
		require.NoError(t, err)
		assert.Same(t, ds, out)
	})

	t.Run("training side imputes then oversamples", func(t *testing.T) {
		ds := newTestDataset(t)
		imputer := &recordingImputer{}
		oversampler := &recordingOversampler{}
		p := &Pipeline{
			Imputer:       imputer,
			Oversampler:   oversampler,
			NeighborCount: 5,
			TargetRatio:   1.0,
		}

		_, err := p.PrepareTrain(ds)
		require.NoError(t, err)
		assert.Equal(t, 1, imputer.fitCalls)
		assert.Equal(t, 1, oversampler.calls)
		assert.Equal(t, 5, oversampler.k)
		assert.Equal(t, 1.0, oversampler.ratio)
	})

	t.Run("evaluation side never oversamples", func(t *testing.T) {
		ds := newTestDataset(t)
		imputer := &recordingImputer{}
		oversampler := &recordingOversampler{}
		p := &Pipeline{Imputer: imputer, Oversampler: oversampler}

		_, err := p.PrepareEval(ds)
		require.NoError(t, err)
		assert.Equal(t, 0, imputer.fitCalls)
		assert.Equal(t, 1, imputer.transformCalls)
		assert.Equal(t, 0, oversampler.calls)
	})
}
