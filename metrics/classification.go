// Package metrics computes the confusion-matrix-derived metric report, the
// rank-based AUC and Brier score, the F1-optimal decision threshold, and the
// across-fold aggregations used by the evaluation engine.
package metrics

import (
	"math"
	"sort"

	"github.com/clinstat/readmit/pkg/errors"
)

// DegeneratePolicy decides what a ratio metric evaluates to when its
// denominator is zero. The pipeline constructs one policy and applies it
// uniformly: the grid-search inner loop and the final evaluation must never mix
// policies.
type DegeneratePolicy int

const (
	// ZeroOnDegenerate substitutes 0 for a zero-denominator metric.
	ZeroOnDegenerate DegeneratePolicy = iota
	// NaNOnDegenerate substitutes NaN for a zero-denominator metric.
	NaNOnDegenerate
)

// Report is the seven-metric tuple produced for every scored prediction set.
type Report struct {
	Accuracy    float64 `json:"accuracy"`
	Specificity float64 `json:"specificity"`
	Recall      float64 `json:"recall"`
	Precision   float64 `json:"precision"`
	F1          float64 `json:"f1"`
	AUC         float64 `json:"auc"`
	Brier       float64 `json:"brier"`
}

// Confusion holds the 2x2 confusion counts at a fixed threshold.
type Confusion struct {
	TP, FP, TN, FN int
}

// Confuse classifies pred > threshold as positive and tallies the counts.
func Confuse(preds, labels []float64, threshold float64) Confusion {
	var c Confusion
	for i, p := range preds {
		predicted := p > threshold
		actual := labels[i] == 1
		switch {
		case predicted && actual:
			c.TP++
		case predicted && !actual:
			c.FP++
		case !predicted && !actual:
			c.TN++
		default:
			c.FN++
		}
	}
	return c
}

// ratio resolves numerator/denominator under the policy, emitting an
// UndefinedMetricWarning when the denominator is zero.
func ratio(metric string, num, den int, policy DegeneratePolicy) float64 {
	if den == 0 {
		fallback := 0.0
		if policy == NaNOnDegenerate {
			fallback = math.NaN()
		}
		errors.Warn(errors.NewUndefinedMetricWarning(metric, "no samples in denominator", fallback))
		return fallback
	}
	return float64(num) / float64(den)
}

// Derive computes the threshold-dependent metrics from confusion counts.
func (c Confusion) Derive(policy DegeneratePolicy) (accuracy, specificity, recall, precision, f1 float64) {
	total := c.TP + c.FP + c.TN + c.FN
	accuracy = ratio("accuracy", c.TP+c.TN, total, policy)
	specificity = ratio("specificity", c.TN, c.TN+c.FP, policy)
	recall = ratio("recall", c.TP, c.TP+c.FN, policy)
	precision = ratio("precision", c.TP, c.TP+c.FP, policy)
	if precision+recall == 0 || math.IsNaN(precision) || math.IsNaN(recall) {
		fallback := 0.0
		if policy == NaNOnDegenerate {
			fallback = math.NaN()
		}
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision + recall is zero", fallback))
		f1 = fallback
		return
	}
	f1 = 2 * precision * recall / (precision + recall)
	return
}

// Score computes the full seven-metric report for predictions against true
// labels at the given decision threshold. AUC and Brier are threshold
// independent and computed from the raw prediction values.
func Score(preds, labels []float64, threshold float64, policy DegeneratePolicy) (Report, error) {
	if len(preds) == 0 {
		return Report{}, errors.ErrEmptyData
	}
	if len(preds) != len(labels) {
		return Report{}, errors.NewDimensionError("metrics.Score", len(preds), len(labels), 0)
	}

	auc, err := AUC(preds, labels)
	if err != nil {
		return Report{}, err
	}

	c := Confuse(preds, labels, threshold)
	accuracy, specificity, recall, precision, f1 := c.Derive(policy)

	return Report{
		Accuracy:    accuracy,
		Specificity: specificity,
		Recall:      recall,
		Precision:   precision,
		F1:          f1,
		AUC:         auc,
		Brier:       Brier(preds, labels),
	}, nil
}

// AUC computes the area under the ROC curve by the rank statistic, with average
// ranks for tied predictions. When only one class is present the area is
// undefined and 0.5 is returned.
func AUC(preds, labels []float64) (float64, error) {
	if len(preds) != len(labels) {
		return 0, errors.NewDimensionError("metrics.AUC", len(preds), len(labels), 0)
	}

	nPos, nNeg := 0, 0
	for _, label := range labels {
		switch label {
		case 1:
			nPos++
		case 0:
			nNeg++
		default:
			return 0, errors.NewValueError("metrics.AUC", "labels must be 0 or 1")
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present", 0.5))
		return 0.5, nil
	}

	order := make([]int, len(preds))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return preds[order[a]] < preds[order[b]]
	})

	// Average ranks over tie groups, then sum positive-class ranks.
	ranks := make([]float64, len(preds))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && preds[order[j]] == preds[order[i]] {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[order[k]] = avgRank
		}
		i = j
	}

	sumPosRanks := 0.0
	for i, label := range labels {
		if label == 1 {
			sumPosRanks += ranks[i]
		}
	}

	u := sumPosRanks - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// Brier computes the mean squared error between the predicted probability and
// the binary outcome.
func Brier(preds, labels []float64) float64 {
	if len(preds) == 0 {
		return 0
	}
	sum := 0.0
	for i, p := range preds {
		diff := p - labels[i]
		sum += diff * diff
	}
	return sum / float64(len(preds))
}
