// Package report exposes the run outcome as structured, immutable records and
// writes them as JSON. Where and how the records are persisted beyond the
// writer is an external concern.
package report

import (
	"encoding/json"
	"io"

	"github.com/clinstat/readmit/attribution"
	"github.com/clinstat/readmit/dataset"
	"github.com/clinstat/readmit/eval"
	"github.com/clinstat/readmit/metrics"
)

// FoldRecord is the reportable slice of one outer fold.
type FoldRecord struct {
	Fold        int                 `json:"fold"`
	Skipped     bool                `json:"skipped"`
	SkipReason  string              `json:"skip_reason,omitempty"`
	Candidate   *eval.Candidate     `json:"candidate,omitempty"`
	Threshold   float64             `json:"threshold"`
	Metrics     *metrics.Report     `json:"metrics,omitempty"`
	TrainCounts dataset.ClassCounts `json:"train_counts"`
	RawScores   []float64           `json:"raw_scores,omitempty"`
	Calibrated  []float64           `json:"calibrated,omitempty"`
	Labels      []float64           `json:"labels,omitempty"`
	Intercept   float64             `json:"calibration_intercept"`
	Slope       float64             `json:"calibration_slope"`
}

// RunRecord is the full run outcome: per-fold records plus the pooled view.
type RunRecord struct {
	RunID           string                   `json:"run_id"`
	Folds           []FoldRecord             `json:"folds"`
	Mean            metrics.Report           `json:"mean"`
	Std             metrics.Report           `json:"std"`
	Pooled          metrics.Report           `json:"pooled"`
	PooledThreshold float64                  `json:"pooled_threshold"`
	SkippedFolds    int                      `json:"skipped_folds"`
	Importances     []attribution.Importance `json:"importances,omitempty"`
}

// FromResult converts an eval.RunResult into its reportable record.
func FromResult(result *eval.RunResult) RunRecord {
	record := RunRecord{
		RunID:           result.RunID.String(),
		Mean:            result.Mean,
		Std:             result.Std,
		Pooled:          result.Pooled,
		PooledThreshold: result.PooledThreshold,
		SkippedFolds:    result.SkippedFolds,
		Importances:     result.Importances,
	}
	for i := range result.Folds {
		fr := &result.Folds[i]
		fold := FoldRecord{
			Fold:        fr.Fold,
			Skipped:     fr.Skipped,
			TrainCounts: fr.TrainCounts,
		}
		if fr.Skipped {
			if fr.SkipReason != nil {
				fold.SkipReason = fr.SkipReason.Error()
			}
		} else {
			cand := fr.Evaluation.Candidate
			rep := fr.Evaluation.Report
			fold.Candidate = &cand
			fold.Metrics = &rep
			fold.Threshold = fr.Evaluation.Threshold
			fold.RawScores = fr.RawScores
			fold.Calibrated = fr.Calibrated
			fold.Labels = fr.Labels
			if fr.Calibration != nil {
				fold.Intercept = fr.Calibration.Intercept
				fold.Slope = fr.Calibration.Slope
			}
		}
		record.Folds = append(record.Folds, fold)
	}
	return record
}

// WriteJSON emits the record as indented JSON.
func WriteJSON(w io.Writer, record RunRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
