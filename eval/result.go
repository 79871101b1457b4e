package eval

import (
	"github.com/google/uuid"

	"github.com/clinstat/readmit/attribution"
	"github.com/clinstat/readmit/boost"
	"github.com/clinstat/readmit/calibration"
	"github.com/clinstat/readmit/dataset"
	"github.com/clinstat/readmit/metrics"
)

// Evaluation is one scored prediction set: the seven-metric report, the
// decision threshold it was scored at, and the configuration that produced it.
type Evaluation struct {
	Report    metrics.Report `json:"report"`
	Threshold float64        `json:"threshold"`
	Candidate Candidate      `json:"candidate"`
}

// FoldResult is the complete, immutable outcome of one outer fold. It owns its
// model and calibration model exclusively; nothing mutates it after the fold
// completes.
type FoldResult struct {
	Fold       int
	Evaluation Evaluation

	Model       boost.Model
	Calibration *calibration.Platt

	// RawScores and Calibrated are the outer-test predictions; Labels the
	// outer-test truth, aligned by index.
	RawScores  []float64
	Calibrated []float64
	Labels     []float64

	// TrainCounts is the training partition's class balance, computed once
	// during the fold and reused by reporting.
	TrainCounts dataset.ClassCounts

	// AttributionSummary is the per-feature mean-|attribution| for this fold;
	// nil when attribution failed or was not requested, with AttributionErr
	// retaining the failure reason.
	AttributionSummary []float64
	AttributionErr     error

	// Skipped marks a fold excluded from aggregation, with the reason kept for
	// the run report.
	Skipped    bool
	SkipReason error
}

// RunResult is the across-fold aggregate. It is derived from Folds and always
// recomputable from them.
type RunResult struct {
	RunID uuid.UUID

	Folds []FoldResult

	// Mean and Std aggregate the per-fold reports over non-skipped folds.
	Mean metrics.Report
	Std  metrics.Report

	// Pooled is the dataset-level report over the concatenated calibrated test
	// predictions of all non-skipped folds, at PooledThreshold. Pooled AUC is
	// not the mean of per-fold AUCs and the two may legitimately differ.
	Pooled          metrics.Report
	PooledThreshold float64

	// SkippedFolds counts outer folds excluded from aggregation.
	SkippedFolds int

	// Importances ranks features by mean-absolute attribution over the folds
	// whose attribution succeeded.
	Importances []attribution.Importance
}
