package eval

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/clinstat/readmit/metrics"
	"github.com/clinstat/readmit/pkg/errors"
)

// RunConfig parameterizes one full nested-cross-validation run.
type RunConfig struct {
	OuterFolds          int    `json:"outer_folds" validate:"gte=2"`
	InnerFolds          int    `json:"inner_folds" validate:"gte=2"`
	Seed                uint64 `json:"seed"`
	MaxRounds           int    `json:"max_rounds" validate:"gte=1"`
	EarlyStoppingRounds int    `json:"early_stopping_rounds" validate:"gte=0"`

	// Policy is the degenerate-denominator policy applied uniformly across the
	// inner loop and the final evaluation.
	Policy metrics.DegeneratePolicy `json:"policy" validate:"gte=0,lte=1"`

	// FoldTimeout bounds one outer fold's work, zero meaning no bound.
	FoldTimeout time.Duration `json:"fold_timeout" validate:"gte=0"`

	// Parallel enables candidate-level parallelism during tuning.
	Parallel bool `json:"parallel"`

	Grid Grid `json:"grid"`
}

var validate = validator.New()

// Validate checks the configuration's structural constraints.
func (c RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid run configuration")
	}
	if len(c.Grid.Enumerate()) == 0 {
		return errors.New("empty hyperparameter grid")
	}
	return nil
}

// DefaultRunConfig mirrors the protocol used for the readmission study: 5x5
// nested CV, 5000-round cap with 50-round patience.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		OuterFolds:          5,
		InnerFolds:          5,
		Seed:                42,
		MaxRounds:           5000,
		EarlyStoppingRounds: 50,
		Policy:              metrics.ZeroOnDegenerate,
	}
}
