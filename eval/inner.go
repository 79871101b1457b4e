package eval

import (
	"context"
	"log/slog"
	"math"

	"github.com/clinstat/readmit/boost"
	"github.com/clinstat/readmit/calibration"
	"github.com/clinstat/readmit/dataset"
	"github.com/clinstat/readmit/metrics"
	"github.com/clinstat/readmit/pkg/errors"
	"github.com/clinstat/readmit/pkg/log"
	"github.com/clinstat/readmit/split"
)

// InnerEvaluator runs the inner folds for one hyperparameter configuration.
//
// At this stage calibration and thresholding are fit on the same inner
// validation predictions that are then scored. Only the relative ranking of
// configurations matters here, so the optimistic bias is acceptable; the outer
// loop is where leakage is forbidden.
type InnerEvaluator struct {
	Trainer    boost.Trainer
	Preprocess *dataset.Pipeline
	MaxRounds  int
	Patience   int
	Policy     metrics.DegeneratePolicy
	Logger     *slog.Logger
}

// InnerResult is the averaged outcome of the inner folds for one candidate.
type InnerResult struct {
	Mean              metrics.Report
	MeanBestIteration float64
	Evaluated         int
	Failed            int
}

// Evaluate trains and scores cand on each inner fold of outerTrain, averaging
// the seven metrics and the early-stopping best iteration across folds that
// produced finite metrics. Folds that fail (trainer error, calibration
// non-convergence) are counted and skipped; a candidate with no surviving fold
// is ineligible and returns an error.
func (ie *InnerEvaluator) Evaluate(ctx context.Context, outerTrain *dataset.Dataset, cand Candidate, folds []split.Fold) (InnerResult, error) {
	var (
		reports        []metrics.Report
		bestIterations []float64
		failed         int
	)

	for foldIdx, fold := range folds {
		report, bestIter, err := ie.evaluateFold(ctx, outerTrain, cand, fold)
		if err != nil {
			failed++
			ie.logger().Warn("inner fold failed",
				"inner_fold", foldIdx,
				"candidate", cand.Index,
				log.ErrAttr(err),
			)
			continue
		}
		reports = append(reports, report)
		bestIterations = append(bestIterations, float64(bestIter))
	}

	if len(reports) == 0 {
		return InnerResult{}, errors.NewTrainerError("tuning", cand.Index,
			errors.Newf("all %d inner folds failed", len(folds)))
	}

	mean, _ := metrics.MeanStd(reports)
	sumIter := 0.0
	for _, it := range bestIterations {
		sumIter += it
	}

	return InnerResult{
		Mean:              mean,
		MeanBestIteration: sumIter / float64(len(bestIterations)),
		Evaluated:         len(reports),
		Failed:            failed,
	}, nil
}

func (ie *InnerEvaluator) evaluateFold(ctx context.Context, outerTrain *dataset.Dataset, cand Candidate, fold split.Fold) (metrics.Report, int, error) {
	trainSet, err := ie.Preprocess.PrepareTrain(outerTrain.Subset(fold.Train))
	if err != nil {
		return metrics.Report{}, 0, err
	}
	validSet, err := ie.Preprocess.PrepareEval(outerTrain.Subset(fold.Valid))
	if err != nil {
		return metrics.Report{}, 0, err
	}

	cfg := cand.Config.WithScalePosWeight(trainSet.Counts().ScalePosWeight())

	model, err := ie.Trainer.Train(ctx, trainSet, validSet, cfg, ie.MaxRounds, ie.Patience)
	if err != nil {
		return metrics.Report{}, 0, errors.NewTrainerError("tuning", cand.Index, err)
	}

	raw, err := model.Predict(validSet.X)
	if err != nil {
		return metrics.Report{}, 0, errors.NewTrainerError("tuning", cand.Index, err)
	}

	platt := calibration.NewPlatt()
	if err := platt.Fit(raw, validSet.Y); err != nil {
		return metrics.Report{}, 0, err
	}
	calibrated, err := platt.Transform(raw)
	if err != nil {
		return metrics.Report{}, 0, err
	}

	threshold := metrics.OptimalThreshold(calibrated, validSet.Y)
	report, err := metrics.Score(calibrated, validSet.Y, threshold, ie.Policy)
	if err != nil {
		return metrics.Report{}, 0, err
	}
	if math.IsNaN(report.AUC) {
		return metrics.Report{}, 0, errors.NewValueError("eval.evaluateFold", "non-finite AUC")
	}
	return report, model.BestIteration(), nil
}

func (ie *InnerEvaluator) logger() *slog.Logger {
	if ie.Logger != nil {
		return ie.Logger
	}
	return slog.Default()
}
