// Package attribution defines the feature-attribution boundary (SHAP-style
// per-row per-feature contributions, computed externally) and aggregates
// per-fold attribution summaries into a global importance ranking.
package attribution

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/clinstat/readmit/boost"
	"github.com/clinstat/readmit/pkg/errors"
)

// Explainer computes per-row, per-feature attribution values for a trained
// model. Implementations are external collaborators; a failure for one fold is
// recoverable at the pipeline level.
type Explainer interface {
	Explain(model boost.Model, x *mat.Dense) (*mat.Dense, error)
}

// Summarize reduces an attribution matrix (rows x features) to the
// mean-absolute attribution per feature.
func Summarize(values *mat.Dense) []float64 {
	rows, cols := values.Dims()
	summary := make([]float64, cols)
	if rows == 0 {
		return summary
	}
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			v := values.At(i, j)
			if v < 0 {
				v = -v
			}
			sum += v
		}
		summary[j] = sum / float64(rows)
	}
	return summary
}

// Importance is one feature's rank entry.
type Importance struct {
	Feature    int     `json:"feature"`
	Name       string  `json:"name,omitempty"`
	Importance float64 `json:"importance"`
}

// Aggregate averages per-fold summaries and returns features ranked by
// descending mean importance. Folds whose attribution failed are simply absent
// from summaries; an empty input yields an empty ranking. Summaries of
// mismatched width are rejected.
func Aggregate(summaries [][]float64, featureNames []string) ([]Importance, error) {
	if len(summaries) == 0 {
		return nil, nil
	}

	width := len(summaries[0])
	for _, s := range summaries[1:] {
		if len(s) != width {
			return nil, errors.NewDimensionError("attribution.Aggregate", width, len(s), 1)
		}
	}
	if featureNames != nil && len(featureNames) != width {
		return nil, errors.NewDimensionError("attribution.Aggregate", width, len(featureNames), 1)
	}

	ranked := make([]Importance, width)
	for j := 0; j < width; j++ {
		sum := 0.0
		for _, s := range summaries {
			sum += s[j]
		}
		ranked[j] = Importance{Feature: j, Importance: sum / float64(len(summaries))}
		if featureNames != nil {
			ranked[j].Name = featureNames[j]
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Importance > ranked[b].Importance
	})
	return ranked, nil
}
