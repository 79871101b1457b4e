package eval

import (
	"github.com/clinstat/readmit/boost"
)

// Grid holds the candidate values for each hyperparameter knob. The search
// space is the Cartesian product of the non-empty lists; an empty list
// contributes the single default for that knob.
type Grid struct {
	LearningRates    []float64 `json:"learning_rate"`
	MaxDepths        []int     `json:"max_depth"`
	NumLeaves        []int     `json:"num_leaves"`
	MinChildSamples  []int     `json:"min_child_samples"`
	FeatureFractions []float64 `json:"feature_fraction"`
	BaggingFractions []float64 `json:"bagging_fraction"`
	BaggingFreqs     []int     `json:"bagging_freq"`
	RegAlphas        []float64 `json:"lambda_l1"`
	RegLambdas       []float64 `json:"lambda_l2"`
}

// Candidate is one enumerated configuration. Index is the stable enumeration
// position and is the tie-break key during selection.
type Candidate struct {
	Index  int          `json:"index"`
	Config boost.Config `json:"config"`
}

func orFloats(values []float64, def float64) []float64 {
	if len(values) == 0 {
		return []float64{def}
	}
	return values
}

func orInts(values []int, def int) []int {
	if len(values) == 0 {
		return []int{def}
	}
	return values
}

// Size returns the number of configurations the grid enumerates.
func (g Grid) Size() int {
	return len(g.Enumerate())
}

// Enumerate expands the grid in a fixed, reproducible order: knobs vary
// right-to-left in the order the Grid fields are declared, the last knob
// fastest. The same grid always enumerates to the same candidate sequence.
func (g Grid) Enumerate() []Candidate {
	learningRates := orFloats(g.LearningRates, 0.1)
	maxDepths := orInts(g.MaxDepths, -1)
	numLeaves := orInts(g.NumLeaves, 31)
	minChild := orInts(g.MinChildSamples, 20)
	featureFractions := orFloats(g.FeatureFractions, 1.0)
	baggingFractions := orFloats(g.BaggingFractions, 1.0)
	baggingFreqs := orInts(g.BaggingFreqs, 0)
	regAlphas := orFloats(g.RegAlphas, 0.0)
	regLambdas := orFloats(g.RegLambdas, 0.0)

	var candidates []Candidate
	index := 0
	for _, lr := range learningRates {
		for _, depth := range maxDepths {
			for _, leaves := range numLeaves {
				for _, child := range minChild {
					for _, ff := range featureFractions {
						for _, bf := range baggingFractions {
							for _, freq := range baggingFreqs {
								for _, alpha := range regAlphas {
									for _, lambda := range regLambdas {
										candidates = append(candidates, Candidate{
											Index: index,
											Config: boost.Config{
												LearningRate:    lr,
												MaxDepth:        depth,
												NumLeaves:       leaves,
												MinChildSamples: child,
												FeatureFraction: ff,
												BaggingFraction: bf,
												BaggingFreq:     freq,
												RegAlpha:        alpha,
												RegLambda:       lambda,
											},
										})
										index++
									}
								}
							}
						}
					}
				}
			}
		}
	}
	return candidates
}
