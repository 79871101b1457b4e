// Package dataset defines the immutable feature-matrix / label-vector pair that
// flows through the evaluation pipeline, plus the preprocessing boundary
// (imputation, synthetic oversampling) consumed as opaque transforms.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/clinstat/readmit/pkg/errors"
)

// Dataset pairs an encoded feature matrix with a binary label vector. It is
// treated as immutable once constructed; every derivation (Subset, imputation,
// oversampling) produces a new Dataset.
type Dataset struct {
	X            *mat.Dense
	Y            []float64
	FeatureNames []string
}

// New validates shapes and label values and wraps them into a Dataset.
func New(x *mat.Dense, y []float64, featureNames []string) (*Dataset, error) {
	rows, cols := x.Dims()
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("dataset.New", rows, len(y), 0)
	}
	if featureNames != nil && len(featureNames) != cols {
		return nil, errors.NewDimensionError("dataset.New", cols, len(featureNames), 1)
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, errors.Newf("readmit: dataset.New: label at row %d is %v, want 0 or 1", i, label)
		}
	}
	return &Dataset{X: x, Y: y, FeatureNames: featureNames}, nil
}

// Len returns the number of cases.
func (d *Dataset) Len() int {
	rows, _ := d.X.Dims()
	return rows
}

// NumFeatures returns the number of encoded feature columns.
func (d *Dataset) NumFeatures() int {
	_, cols := d.X.Dims()
	return cols
}

// Subset copies the given rows into a new Dataset. Indices are taken in the
// order given.
func (d *Dataset) Subset(indices []int) *Dataset {
	_, cols := d.X.Dims()
	x := mat.NewDense(len(indices), cols, nil)
	y := make([]float64, len(indices))
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			x.Set(i, j, d.X.At(idx, j))
		}
		y[i] = d.Y[idx]
	}
	return &Dataset{X: x, Y: y, FeatureNames: d.FeatureNames}
}

// ClassCounts holds the per-fold class-balance statistics. They are computed
// once per training partition and stored alongside the fold result instead of
// being recomputed for reporting.
type ClassCounts struct {
	Positives int `json:"positives"`
	Negatives int `json:"negatives"`
}

// Counts tallies positive and negative labels.
func (d *Dataset) Counts() ClassCounts {
	var c ClassCounts
	for _, label := range d.Y {
		if label == 1 {
			c.Positives++
		} else {
			c.Negatives++
		}
	}
	return c
}

// PosRatio returns the positive-class fraction.
func (c ClassCounts) PosRatio() float64 {
	total := c.Positives + c.Negatives
	if total == 0 {
		return 0
	}
	return float64(c.Positives) / float64(total)
}

// ScalePosWeight returns negatives/positives, the class-imbalance weight passed
// to the trainer. Returns 1 when there are no positives.
func (c ClassCounts) ScalePosWeight() float64 {
	if c.Positives == 0 {
		return 1
	}
	return float64(c.Negatives) / float64(c.Positives)
}
