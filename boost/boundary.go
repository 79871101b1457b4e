// Package boost defines the boundary to the gradient-boosted-tree trainer. The
// evaluation engine consumes training as an opaque, deterministic capability;
// the boosting algorithm itself lives outside this repository.
package boost

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/clinstat/readmit/dataset"
)

// Config is the immutable hyperparameter tuple for one training run. Field
// names and JSON keys follow the LightGBM parameter vocabulary.
type Config struct {
	LearningRate    float64 `json:"learning_rate"`
	MaxDepth        int     `json:"max_depth"`
	NumLeaves       int     `json:"num_leaves"`
	MinChildSamples int     `json:"min_child_samples"`
	FeatureFraction float64 `json:"feature_fraction"`
	BaggingFraction float64 `json:"bagging_fraction"`
	BaggingFreq     int     `json:"bagging_freq"`
	RegAlpha        float64 `json:"lambda_l1"`
	RegLambda       float64 `json:"lambda_l2"`

	// ScalePosWeight is negatives/positives of the training split, computed by
	// the caller per split rather than baked into the grid.
	ScalePosWeight float64 `json:"scale_pos_weight"`
}

// WithScalePosWeight returns a copy with the class-imbalance weight set.
func (c Config) WithScalePosWeight(w float64) Config {
	c.ScalePosWeight = w
	return c
}

// Model is a trained boosted-tree ensemble. Predict returns raw margin scores
// on the log-odds scale and is deterministic for a given model.
type Model interface {
	Predict(x *mat.Dense) ([]float64, error)
	// BestIteration is the round at which the best monitored validation metric
	// was observed; without early stopping it equals the round budget.
	BestIteration() int
}

// Trainer trains a boosted-tree model.
//
// When valid is non-nil and earlyStoppingRounds > 0, training stops once the
// monitored validation metric fails to improve for that many consecutive
// rounds. When valid is nil, training runs exactly maxRounds iterations.
// A malformed configuration or non-finite training loss is reported as an
// error, which the grid search treats as disqualifying the candidate rather
// than aborting the run.
type Trainer interface {
	Train(ctx context.Context, train, valid *dataset.Dataset, cfg Config, maxRounds, earlyStoppingRounds int) (Model, error)
}
