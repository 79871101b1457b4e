package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinstat/readmit/boost"
	"github.com/clinstat/readmit/dataset"
	"github.com/clinstat/readmit/metrics"
	"github.com/clinstat/readmit/pkg/errors"
	"github.com/clinstat/readmit/split"
)

// flakyTrainer fails its first failures calls, then delegates.
type flakyTrainer struct {
	delegate boost.Trainer
	failures int
	calls    int
}

func (tr *flakyTrainer) Train(ctx context.Context, train, valid *dataset.Dataset, cfg boost.Config, maxRounds, earlyStoppingRounds int) (boost.Model, error) {
	tr.calls++
	if tr.calls <= tr.failures {
		return nil, errors.New("training diverged")
	}
	return tr.delegate.Train(ctx, train, valid, cfg, maxRounds, earlyStoppingRounds)
}

func newInnerEvaluator(trainer boost.Trainer) *InnerEvaluator {
	return &InnerEvaluator{
		Trainer:   trainer,
		MaxRounds: 200,
		Patience:  20,
		Policy:    metrics.ZeroOnDegenerate,
		Logger:    discardLogger(),
	}
}

func TestInnerEvaluate(t *testing.T) {
	ds := syntheticDataset(t, 150)
	folds, err := split.Partition(ds.Y, 5, 3)
	require.NoError(t, err)

	ie := newInnerEvaluator(&recordingTrainer{bestIter: 37})
	result, err := ie.Evaluate(context.Background(), ds, Candidate{Index: 0}, folds)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Evaluated)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 37.0, result.MeanBestIteration)
	assert.Greater(t, result.Mean.AUC, 0.5)
	assert.LessOrEqual(t, result.Mean.AUC, 1.0)
	assert.GreaterOrEqual(t, result.Mean.F1, 0.0)
}

func TestInnerEvaluateSkipsFailedFolds(t *testing.T) {
	ds := syntheticDataset(t, 150)
	folds, err := split.Partition(ds.Y, 5, 3)
	require.NoError(t, err)

	ie := newInnerEvaluator(&flakyTrainer{
		delegate: &recordingTrainer{bestIter: 37},
		failures: 2,
	})
	result, err := ie.Evaluate(context.Background(), ds, Candidate{Index: 0}, folds)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Evaluated)
	assert.Equal(t, 2, result.Failed)
}

func TestInnerEvaluateAllFoldsFailed(t *testing.T) {
	ds := syntheticDataset(t, 150)
	folds, err := split.Partition(ds.Y, 5, 3)
	require.NoError(t, err)

	ie := newInnerEvaluator(&flakyTrainer{failures: 5})
	_, err = ie.Evaluate(context.Background(), ds, Candidate{Index: 2}, folds)
	require.Error(t, err)

	var trainerErr *errors.TrainerError
	require.ErrorAs(t, err, &trainerErr)
	assert.Equal(t, "tuning", trainerErr.Stage)
	assert.Equal(t, 2, trainerErr.Candidate)
}
