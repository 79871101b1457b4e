package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanStd reduces per-fold reports to their arithmetic mean and sample standard
// deviation per metric. NaN entries (possible under NaNOnDegenerate) are
// skipped per metric, matching how failed inner folds are averaged.
func MeanStd(reports []Report) (mean Report, std Report) {
	fields := func(r *Report) []*float64 {
		return []*float64{&r.Accuracy, &r.Specificity, &r.Recall, &r.Precision, &r.F1, &r.AUC, &r.Brier}
	}

	meanFields := fields(&mean)
	stdFields := fields(&std)

	for fi := 0; fi < len(meanFields); fi++ {
		var values []float64
		for i := range reports {
			v := *fields(&reports[i])[fi]
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			*meanFields[fi] = math.NaN()
			*stdFields[fi] = math.NaN()
			continue
		}
		*meanFields[fi] = stat.Mean(values, nil)
		if len(values) > 1 {
			*stdFields[fi] = stat.StdDev(values, nil)
		}
	}
	return mean, std
}
