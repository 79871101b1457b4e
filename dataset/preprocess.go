package dataset

// Imputer completes missing values. Fit statistics come from the training
// partition only; validation and test partitions are transformed with those
// statistics, never refit.
type Imputer interface {
	// FitTransform learns imputation statistics from train and returns the
	// completed copy.
	FitTransform(train *Dataset) (*Dataset, error)
	// Transform applies the previously learned statistics.
	Transform(other *Dataset) (*Dataset, error)
}

// Oversampler synthesizes minority-class rows (SMOTE-NC shaped). It is applied
// to training partitions only; validation and test partitions must never
// contain synthetic cases.
type Oversampler interface {
	Oversample(train *Dataset, neighborCount int, targetRatio float64) (*Dataset, error)
}

// Pipeline bundles the optional preprocessing collaborators. A nil field is a
// pass-through.
type Pipeline struct {
	Imputer     Imputer
	Oversampler Oversampler
	// NeighborCount and TargetRatio parameterize the oversampler.
	NeighborCount int
	TargetRatio   float64
}

// PrepareTrain runs imputation then oversampling on a training partition.
func (p *Pipeline) PrepareTrain(train *Dataset) (*Dataset, error) {
	if p == nil {
		return train, nil
	}
	out := train
	var err error
	if p.Imputer != nil {
		out, err = p.Imputer.FitTransform(out)
		if err != nil {
			return nil, err
		}
	}
	if p.Oversampler != nil {
		out, err = p.Oversampler.Oversample(out, p.NeighborCount, p.TargetRatio)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PrepareEval runs imputation only, for validation and test partitions.
func (p *Pipeline) PrepareEval(other *Dataset) (*Dataset, error) {
	if p == nil || p.Imputer == nil {
		return other, nil
	}
	return p.Imputer.Transform(other)
}
