// Package calibration implements Platt scaling: a one-dimensional logistic
// regression of the true labels on the model's raw margin scores, producing
// monotonic probability recalibration.
//
// Raw scores are on the log-odds scale (the boosted model's margin before the
// sigmoid), so an already calibrated model fits to intercept ~= 0, slope ~= 1.
package calibration

import (
	"math"

	"github.com/clinstat/readmit/pkg/errors"
)

// Platt is the fitted recalibration model: two scalars defining
// calibrated = sigmoid(Intercept + Slope*raw).
type Platt struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`

	maxIter int
	tol     float64

	fitted bool
}

// Option is a functional option for Platt.
type Option func(*Platt)

// WithMaxIter sets the maximum number of Newton iterations.
func WithMaxIter(maxIter int) Option {
	return func(p *Platt) {
		p.maxIter = maxIter
	}
}

// WithTol sets the max-gradient convergence tolerance.
func WithTol(tol float64) Option {
	return func(p *Platt) {
		p.tol = tol
	}
}

// NewPlatt creates an unfitted Platt calibrator.
func NewPlatt(opts ...Option) *Platt {
	p := &Platt{
		maxIter: 100,
		tol:     1e-6,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fit estimates intercept and slope by Newton-Raphson on the logistic
// log-likelihood, stopping when the largest gradient component falls below the
// tolerance. Perfectly separated scores have no interior maximum and are
// rejected; a singular Hessian or an exhausted iteration budget likewise
// returns CalibrationConvergenceError. The caller must treat the calibrator as
// unusable then, never silently fall back to identity.
//
// The scores passed to Fit must be held out from the population later scored
// with this model: calibration is fit on cross-validated training-population
// scores and applied to an independent test population.
func (p *Platt) Fit(raw, labels []float64) error {
	if len(raw) == 0 {
		return errors.ErrEmptyData
	}
	if len(raw) != len(labels) {
		return errors.NewDimensionError("calibration.Fit", len(raw), len(labels), 0)
	}

	// Perfectly separated scores (including a single-class label vector) have
	// no finite likelihood maximum: the slope diverges. Reject up front
	// instead of letting the iteration stall toward it.
	maxNeg, minNeg := math.Inf(-1), math.Inf(1)
	maxPos, minPos := math.Inf(-1), math.Inf(1)
	for i, x := range raw {
		if labels[i] == 1 {
			maxPos = math.Max(maxPos, x)
			minPos = math.Min(minPos, x)
		} else {
			maxNeg = math.Max(maxNeg, x)
			minNeg = math.Min(minNeg, x)
		}
	}
	if maxNeg < minPos || maxPos < minNeg {
		return errors.NewCalibrationConvergenceError(0, math.Inf(1), p.tol)
	}

	n := float64(len(raw))
	intercept, slope := 0.0, 0.0
	maxGrad := math.Inf(1)

	for iter := 0; iter < p.maxIter; iter++ {
		var g0, g1, h00, h01, h11 float64
		for i, x := range raw {
			prob := sigmoid(intercept + slope*x)
			err := prob - labels[i]
			w := prob * (1 - prob)
			g0 += err
			g1 += err * x
			h00 += w
			h01 += w * x
			h11 += w * x * x
		}
		g0 /= n
		g1 /= n
		h00 /= n
		h01 /= n
		h11 /= n

		maxGrad = math.Max(math.Abs(g0), math.Abs(g1))
		if maxGrad < p.tol {
			p.Intercept = intercept
			p.Slope = slope
			p.fitted = true
			return nil
		}

		det := h00*h11 - h01*h01
		if det <= 1e-12 || math.IsNaN(det) {
			// Flat or singular curvature: the likelihood has no interior
			// maximum, as with perfectly separated scores.
			return errors.NewCalibrationConvergenceError(iter, maxGrad, p.tol)
		}

		intercept -= (h11*g0 - h01*g1) / det
		slope -= (h00*g1 - h01*g0) / det
	}

	return errors.NewCalibrationConvergenceError(p.maxIter, maxGrad, p.tol)
}

// Transform maps raw margin scores to calibrated probabilities in (0, 1).
func (p *Platt) Transform(raw []float64) ([]float64, error) {
	if !p.fitted {
		return nil, errors.NewNotFittedError("Platt", "Transform")
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		out[i] = sigmoid(p.Intercept + p.Slope*x)
	}
	return out, nil
}

// IsFitted reports whether Fit has completed successfully.
func (p *Platt) IsFitted() bool {
	return p.fitted
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
