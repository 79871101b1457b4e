package eval

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clinstat/readmit/attribution"
	"github.com/clinstat/readmit/boost"
	"github.com/clinstat/readmit/calibration"
	"github.com/clinstat/readmit/dataset"
	"github.com/clinstat/readmit/metrics"
	"github.com/clinstat/readmit/pkg/errors"
	"github.com/clinstat/readmit/pkg/log"
	"github.com/clinstat/readmit/split"
)

// foldSeedStride separates the derived per-fold seeds so every partitioning
// call has its own deterministic stream, independent of iteration order.
const foldSeedStride = 9973

// OuterOrchestrator drives the outer cross-validation loop: per fold it tunes
// hyperparameters on the outer-training portion, trains the final model, fits
// calibration on out-of-fold outer-train predictions, evaluates the calibrated
// outer-test predictions, and finally aggregates fold-wise and pooled metrics.
//
// The decision threshold for the test fold is selected on the out-of-fold
// outer-train predictions and reused, so no outer-test label influences any
// fitted quantity or the threshold.
type OuterOrchestrator struct {
	Trainer    boost.Trainer
	Explainer  attribution.Explainer // optional
	Preprocess *dataset.Pipeline     // optional
	Config     RunConfig
	Logger     *slog.Logger
}

// Run executes the full nested-cross-validation protocol over ds.
//
// Fatal conditions (impossible partition, final-training failure, a fold with
// no eligible candidate) abort the run and name the failing stage and fold.
// Recoverable conditions (calibration non-convergence, attribution failure)
// are logged, recorded on the fold, and the run completes with partial results
// and an explicit skipped-fold count.
func (o *OuterOrchestrator) Run(ctx context.Context, ds *dataset.Dataset) (*RunResult, error) {
	if err := o.Config.Validate(); err != nil {
		return nil, err
	}

	outerFolds, err := split.Partition(ds.Y, o.Config.OuterFolds, o.Config.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "outer partition")
	}

	result := &RunResult{RunID: uuid.New()}

	for foldIdx, fold := range outerFolds {
		foldResult, err := o.runFoldWithTimeout(ctx, ds, fold, foldIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "outer fold %d", foldIdx)
		}
		result.Folds = append(result.Folds, foldResult)
	}

	o.aggregate(ds, result)
	return result, nil
}

func (o *OuterOrchestrator) runFoldWithTimeout(ctx context.Context, ds *dataset.Dataset, fold split.Fold, foldIdx int) (FoldResult, error) {
	if o.Config.FoldTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Config.FoldTimeout)
		defer cancel()
	}
	return o.runFold(ctx, ds, fold, foldIdx)
}

func (o *OuterOrchestrator) runFold(ctx context.Context, ds *dataset.Dataset, fold split.Fold, foldIdx int) (FoldResult, error) {
	outerTrain := ds.Subset(fold.Train)
	outerTest := ds.Subset(fold.Valid)
	foldSeed := o.Config.Seed + uint64(foldIdx+1)*foldSeedStride

	// Tune: inner grid search over the outer-training portion only.
	tuner := &GridSearchTuner{
		Inner: &InnerEvaluator{
			Trainer:    o.Trainer,
			Preprocess: o.Preprocess,
			MaxRounds:  o.Config.MaxRounds,
			Patience:   o.Config.EarlyStoppingRounds,
			Policy:     o.Config.Policy,
			Logger:     o.logger(),
		},
		Parallel: o.Config.Parallel,
		Logger:   o.logger(),
	}
	tuned, err := tuner.Tune(ctx, outerTrain, o.Config.Grid, o.Config.InnerFolds, foldSeed)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "tune stage")
	}

	// TrainFinal: the selected configuration on the entire outer-training
	// portion, round budget fixed by the inner loop, no early stopping.
	trainSet, err := o.Preprocess.PrepareTrain(outerTrain)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "preprocess stage")
	}
	testSet, err := o.Preprocess.PrepareEval(outerTest)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "preprocess stage")
	}
	trainCounts := trainSet.Counts()
	cfg := tuned.Best.Config.WithScalePosWeight(trainCounts.ScalePosWeight())

	finalModel, err := o.Trainer.Train(ctx, trainSet, nil, cfg, tuned.Rounds, 0)
	if err != nil {
		return FoldResult{}, errors.NewTrainerError("final", tuned.Best.Index, err)
	}

	// CalibrateOnCVOutOfFold: every outer-train row is scored by a model that
	// did not see it, and the calibrator only ever sees those scores.
	oofRaw, oofLabels, err := o.outOfFoldScores(ctx, outerTrain, cfg, tuned, foldSeed+1)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "oof_calibration stage")
	}

	platt := calibration.NewPlatt()
	if err := platt.Fit(oofRaw, oofLabels); err != nil {
		var convErr *errors.CalibrationConvergenceError
		if errors.As(err, &convErr) {
			o.logger().Warn("calibration did not converge, skipping fold",
				"fold", foldIdx,
				"candidate", tuned.Best.Index,
				log.ErrAttr(err),
			)
			return FoldResult{Fold: foldIdx, Skipped: true, SkipReason: err}, nil
		}
		return FoldResult{}, errors.Wrap(err, "calibration stage")
	}

	// Threshold: selected on calibrated out-of-fold outer-train predictions,
	// never on outer-test labels.
	oofCalibrated, err := platt.Transform(oofRaw)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "calibration stage")
	}
	threshold := metrics.OptimalThreshold(oofCalibrated, oofLabels)

	// Predict + Score on the held-out outer-test portion.
	testRaw, err := finalModel.Predict(testSet.X)
	if err != nil {
		return FoldResult{}, errors.NewTrainerError("predict", tuned.Best.Index, err)
	}
	testCalibrated, err := platt.Transform(testRaw)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "calibration stage")
	}

	report, err := metrics.Score(testCalibrated, outerTest.Y, threshold, o.Config.Policy)
	if err != nil {
		return FoldResult{}, errors.Wrap(err, "score stage")
	}

	foldResult := FoldResult{
		Fold: foldIdx,
		Evaluation: Evaluation{
			Report:    report,
			Threshold: threshold,
			Candidate: tuned.Best,
		},
		Model:       finalModel,
		Calibration: platt,
		RawScores:   testRaw,
		Calibrated:  testCalibrated,
		Labels:      outerTest.Y,
		TrainCounts: trainCounts,
	}

	o.explainFold(finalModel, testSet, foldIdx, &foldResult)

	o.logger().Info("outer fold complete",
		"fold", foldIdx,
		"candidate", tuned.Best.Index,
		"threshold", threshold,
		"auc", report.AUC,
		"f1", report.F1,
	)
	return foldResult, nil
}

// outOfFoldScores cross-validates the selected configuration over the
// outer-training portion so every row receives a raw score from a model that
// did not train on it.
func (o *OuterOrchestrator) outOfFoldScores(ctx context.Context, outerTrain *dataset.Dataset, cfg boost.Config, tuned TuneResult, seed uint64) ([]float64, []float64, error) {
	folds, err := split.Partition(outerTrain.Y, o.Config.InnerFolds, seed)
	if err != nil {
		return nil, nil, err
	}

	var raw, labels []float64
	for _, fold := range folds {
		trainSet, err := o.Preprocess.PrepareTrain(outerTrain.Subset(fold.Train))
		if err != nil {
			return nil, nil, err
		}
		holdout, err := o.Preprocess.PrepareEval(outerTrain.Subset(fold.Valid))
		if err != nil {
			return nil, nil, err
		}

		foldCfg := cfg.WithScalePosWeight(trainSet.Counts().ScalePosWeight())
		model, err := o.Trainer.Train(ctx, trainSet, nil, foldCfg, tuned.Rounds, 0)
		if err != nil {
			return nil, nil, errors.NewTrainerError("oof_calibration", tuned.Best.Index, err)
		}
		scores, err := model.Predict(holdout.X)
		if err != nil {
			return nil, nil, errors.NewTrainerError("oof_calibration", tuned.Best.Index, err)
		}
		raw = append(raw, scores...)
		labels = append(labels, holdout.Y...)
	}
	return raw, labels, nil
}

// explainFold runs the attribution boundary for one fold. Failure is
// recoverable: it is logged with the fold context, retained on the result, and
// the fold is simply absent from the importance aggregate.
func (o *OuterOrchestrator) explainFold(model boost.Model, testSet *dataset.Dataset, foldIdx int, foldResult *FoldResult) {
	if o.Explainer == nil {
		return
	}
	values, err := o.Explainer.Explain(model, testSet.X)
	if err != nil {
		wrapped := errors.NewExternalComputationError("attribution", foldIdx, err)
		o.logger().Warn("attribution failed for fold",
			"fold", foldIdx,
			log.ErrAttr(wrapped),
		)
		foldResult.AttributionErr = wrapped
		return
	}
	foldResult.AttributionSummary = attribution.Summarize(values)
}

// aggregate fills the across-fold mean/std and the pooled dataset-level
// metrics from the non-skipped folds.
func (o *OuterOrchestrator) aggregate(ds *dataset.Dataset, result *RunResult) {
	var (
		reports       []metrics.Report
		pooledPreds   []float64
		pooledLabels  []float64
		foldSummaries [][]float64
		skipped       int
	)
	for _, fr := range result.Folds {
		if fr.Skipped {
			skipped++
			continue
		}
		reports = append(reports, fr.Evaluation.Report)
		pooledPreds = append(pooledPreds, fr.Calibrated...)
		pooledLabels = append(pooledLabels, fr.Labels...)
		if fr.AttributionSummary != nil {
			foldSummaries = append(foldSummaries, fr.AttributionSummary)
		}
	}
	result.SkippedFolds = skipped

	if len(reports) == 0 {
		o.logger().Warn("all outer folds skipped, no aggregate metrics", "skipped", skipped)
		return
	}

	result.Mean, result.Std = metrics.MeanStd(reports)

	result.PooledThreshold = metrics.OptimalThreshold(pooledPreds, pooledLabels)
	pooled, err := metrics.Score(pooledPreds, pooledLabels, result.PooledThreshold, o.Config.Policy)
	if err != nil {
		o.logger().Warn("pooled scoring failed", log.ErrAttr(err))
	} else {
		result.Pooled = pooled
	}

	importances, err := attribution.Aggregate(foldSummaries, ds.FeatureNames)
	if err != nil {
		o.logger().Warn("importance aggregation failed", log.ErrAttr(err))
	} else {
		result.Importances = importances
	}

	o.logger().Info("run complete",
		"run_id", result.RunID.String(),
		"folds", len(result.Folds),
		"skipped", skipped,
		"mean_auc", result.Mean.AUC,
		"pooled_auc", result.Pooled.AUC,
	)
}

func (o *OuterOrchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
