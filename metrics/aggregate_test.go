package metrics

import (
	"math"
	"testing"
)

func TestMeanStd(t *testing.T) {
	t.Run("mean and sample std per metric", func(t *testing.T) {
		reports := []Report{
			{Accuracy: 0.8, AUC: 0.9, Brier: 0.10},
			{Accuracy: 0.6, AUC: 0.7, Brier: 0.20},
		}
		mean, std := MeanStd(reports)

		if math.Abs(mean.Accuracy-0.7) > 1e-9 || math.Abs(mean.AUC-0.8) > 1e-9 {
			t.Errorf("mean = %+v", mean)
		}
		wantStd := math.Sqrt(0.02) // sample std of {0.8, 0.6}
		if math.Abs(std.Accuracy-wantStd) > 1e-9 {
			t.Errorf("std.Accuracy = %v, want %v", std.Accuracy, wantStd)
		}
	})

	t.Run("NaN entries are skipped per metric", func(t *testing.T) {
		reports := []Report{
			{Precision: math.NaN(), AUC: 0.9},
			{Precision: 0.5, AUC: 0.7},
		}
		mean, _ := MeanStd(reports)
		if math.Abs(mean.Precision-0.5) > 1e-9 {
			t.Errorf("mean.Precision = %v, want 0.5", mean.Precision)
		}
		if math.Abs(mean.AUC-0.8) > 1e-9 {
			t.Errorf("mean.AUC = %v, want 0.8", mean.AUC)
		}
	})

	t.Run("single report has zero std", func(t *testing.T) {
		mean, std := MeanStd([]Report{{F1: 0.5}})
		if mean.F1 != 0.5 || std.F1 != 0 {
			t.Errorf("mean.F1=%v std.F1=%v", mean.F1, std.F1)
		}
	})
}

// AUC is non-linear, so the AUC of pooled predictions is allowed to differ
// from the mean of per-fold AUCs.
func TestPooledAUCMayDifferFromFoldMean(t *testing.T) {
	foldA := struct{ preds, labels []float64 }{
		preds:  []float64{0.1, 0.9, 0.8},
		labels: []float64{0, 1, 1},
	}
	foldB := struct{ preds, labels []float64 }{
		preds:  []float64{0.6, 0.4},
		labels: []float64{0, 1},
	}

	aucA, err := AUC(foldA.preds, foldA.labels)
	if err != nil {
		t.Fatal(err)
	}
	aucB, err := AUC(foldB.preds, foldB.labels)
	if err != nil {
		t.Fatal(err)
	}
	meanAUC := (aucA + aucB) / 2

	pooledPreds := append(append([]float64{}, foldA.preds...), foldB.preds...)
	pooledLabels := append(append([]float64{}, foldA.labels...), foldB.labels...)
	pooledAUC, err := AUC(pooledPreds, pooledLabels)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(meanAUC-0.5) > 1e-9 {
		t.Errorf("mean AUC = %v, want 0.5", meanAUC)
	}
	if math.Abs(pooledAUC-5.0/6.0) > 1e-9 {
		t.Errorf("pooled AUC = %v, want 5/6", pooledAUC)
	}
	if pooledAUC == meanAUC {
		t.Error("expected pooled and mean AUC to differ on this construction")
	}
}
