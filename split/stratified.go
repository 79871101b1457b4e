// Package split implements deterministic stratified k-fold partitioning of a
// binary label vector.
package split

import (
	"math/rand/v2"
	"sort"

	"github.com/clinstat/readmit/pkg/errors"
)

// Fold is one train/validation index pair. Valid sets across a partition are
// disjoint and their union covers the full index range.
type Fold struct {
	Train []int
	Valid []int
}

// Partition produces k stratified folds over labels, fully determined by
// (labels, k, seed): the same inputs always yield the same partition. The
// positive-class ratio of each validation fold stays within the stratification
// tolerance of the parent ratio (off by at most one case per class).
//
// Returns InvalidPartitionError when k < 2 or k exceeds the number of positive
// or negative cases, since some fold would then receive zero examples of a
// class.
func Partition(labels []float64, k int, seed uint64) ([]Fold, error) {
	n := len(labels)
	if n == 0 {
		return nil, errors.ErrEmptyData
	}

	// Group indices by class.
	var posIdx, negIdx []int
	for i, label := range labels {
		if label == 1 {
			posIdx = append(posIdx, i)
		} else {
			negIdx = append(negIdx, i)
		}
	}

	if k < 2 || k > len(posIdx) || k > len(negIdx) {
		return nil, errors.NewInvalidPartitionError(k, len(posIdx), len(negIdx))
	}

	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(posIdx), func(i, j int) {
		posIdx[i], posIdx[j] = posIdx[j], posIdx[i]
	})
	r.Shuffle(len(negIdx), func(i, j int) {
		negIdx[i], negIdx[j] = negIdx[j], negIdx[i]
	})

	folds := make([]Fold, k)

	// Deal each class across folds; the first (len % k) folds take one extra.
	for _, classIdx := range [][]int{posIdx, negIdx} {
		foldSize := len(classIdx) / k
		remainder := len(classIdx) % k

		cursor := 0
		for i := 0; i < k; i++ {
			take := foldSize
			if i < remainder {
				take++
			}
			folds[i].Valid = append(folds[i].Valid, classIdx[cursor:cursor+take]...)
			cursor += take
		}
	}

	// Build train sets as the complement of each validation set.
	for i := range folds {
		sort.Ints(folds[i].Valid)
		inValid := make(map[int]bool, len(folds[i].Valid))
		for _, idx := range folds[i].Valid {
			inValid[idx] = true
		}
		folds[i].Train = make([]int, 0, n-len(folds[i].Valid))
		for j := 0; j < n; j++ {
			if !inValid[j] {
				folds[i].Train = append(folds[i].Train, j)
			}
		}
	}

	return folds, nil
}
