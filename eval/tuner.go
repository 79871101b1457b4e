package eval

import (
	"context"
	"log/slog"
	"math"

	"github.com/clinstat/readmit/dataset"
	"github.com/clinstat/readmit/pkg/errors"
	"github.com/clinstat/readmit/pkg/log"
	"github.com/clinstat/readmit/pkg/parallel"
	"github.com/clinstat/readmit/split"
)

// parallelThreshold keeps tiny grids sequential; each candidate is expensive so
// the threshold is low.
const parallelThreshold = 1

// InnerRunner evaluates one candidate configuration over a set of inner folds.
// *InnerEvaluator is the production implementation.
type InnerRunner interface {
	Evaluate(ctx context.Context, outerTrain *dataset.Dataset, cand Candidate, folds []split.Fold) (InnerResult, error)
}

// GridSearchTuner enumerates a hyperparameter grid and selects the candidate
// with the maximum mean inner-fold AUC.
type GridSearchTuner struct {
	Inner    InnerRunner
	Parallel bool
	Logger   *slog.Logger
}

// TuneResult reports the selected candidate and its tuning evidence.
type TuneResult struct {
	Best Candidate
	// MeanAUC is the selected candidate's mean inner AUC.
	MeanAUC float64
	// Rounds is the selected candidate's mean best iteration rounded to the
	// nearest integer (minimum 1): the round budget for the final model.
	Rounds int
	// Ineligible counts candidates disqualified by trainer failures.
	Ineligible int
}

// Tune partitions outerTrain into innerFolds stratified folds (deterministic in
// seed) and evaluates every candidate on them. Candidates run independently —
// in parallel when enabled — and selection happens only after the join, so the
// result is identical either way: maximum mean inner AUC, exact ties broken by
// the lowest enumeration index.
func (t *GridSearchTuner) Tune(ctx context.Context, outerTrain *dataset.Dataset, grid Grid, innerFolds int, seed uint64) (TuneResult, error) {
	candidates := grid.Enumerate()
	if len(candidates) == 0 {
		return TuneResult{}, errors.New("empty hyperparameter grid")
	}

	folds, err := split.Partition(outerTrain.Y, innerFolds, seed)
	if err != nil {
		return TuneResult{}, err
	}

	type outcome struct {
		result InnerResult
		err    error
	}
	outcomes := make([]outcome, len(candidates))

	run := func(start, end int) {
		for i := start; i < end; i++ {
			result, err := t.Inner.Evaluate(ctx, outerTrain, candidates[i], folds)
			outcomes[i] = outcome{result: result, err: err}
		}
	}
	if t.Parallel {
		parallel.ParallelizeWithThreshold(len(candidates), parallelThreshold, run)
	} else {
		run(0, len(candidates))
	}

	best := -1
	bestAUC := math.Inf(-1)
	var bestResult InnerResult
	ineligible := 0

	for i, oc := range outcomes {
		if oc.err != nil {
			ineligible++
			t.logger().Warn("candidate disqualified",
				"candidate", candidates[i].Index,
				log.ErrAttr(oc.err),
			)
			continue
		}
		if oc.result.Mean.AUC > bestAUC {
			bestAUC = oc.result.Mean.AUC
			best = i
			bestResult = oc.result
		}
	}

	if best < 0 {
		return TuneResult{}, errors.Newf("grid search: all %d candidates ineligible", len(candidates))
	}

	rounds := int(math.Round(bestResult.MeanBestIteration))
	if rounds < 1 {
		rounds = 1
	}

	t.logger().Info("grid search selected candidate",
		"candidate", candidates[best].Index,
		"mean_inner_auc", bestAUC,
		"rounds", rounds,
		"ineligible", ineligible,
	)

	return TuneResult{
		Best:       candidates[best],
		MeanAUC:    bestAUC,
		Rounds:     rounds,
		Ineligible: ineligible,
	}, nil
}

func (t *GridSearchTuner) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
