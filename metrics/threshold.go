package metrics

const (
	thresholdMin  = 0.10
	thresholdMax  = 0.90
	thresholdStep = 0.01
)

// OptimalThreshold scans decision thresholds 0.10, 0.11, ..., 0.90 and returns
// the one maximizing F1, ties broken by the first occurrence in ascending
// order. The scan always uses the zero fallback for degenerate precision and
// recall so that every point yields a finite F1 and the argmax is well defined,
// regardless of the pipeline's reporting policy.
func OptimalThreshold(preds, labels []float64) float64 {
	best := thresholdMin
	bestF1 := -1.0

	for i := 0; ; i++ {
		t := thresholdMin + float64(i)*thresholdStep
		if t > thresholdMax+thresholdStep/2 {
			break
		}
		c := Confuse(preds, labels, t)
		_, _, _, _, f1 := c.Derive(ZeroOnDegenerate)
		if f1 > bestF1 {
			bestF1 = f1
			best = t
		}
	}
	return best
}
