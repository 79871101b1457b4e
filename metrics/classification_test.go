package metrics

import (
	"math"
	"testing"

	"github.com/clinstat/readmit/pkg/errors"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:  1.0,
		},
		{
			name:  "Worst classifier",
			yTrue: []float64{0, 0, 0, 1, 1, 1},
			yPred: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:  0.0,
		},
		{
			name:  "Random classifier",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0.5, 0.5, 0.5, 0.5},
			want:  0.5,
		},
		{
			name:  "Typical case",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.75,
		},
		{
			name:  "All positive labels",
			yTrue: []float64{1, 1, 1, 1},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:  "All negative labels",
			yTrue: []float64{0, 0, 0, 0},
			yPred: []float64{0.1, 0.4, 0.35, 0.8},
			want:  0.5, // Undefined case, returns 0.5
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yPred:   []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.yPred, tt.yTrue)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("AUC() expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("AUC() unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreConfusionExample(t *testing.T) {
	// tp=5, fp=2, tn=10, fn=3 at threshold 0.5.
	var preds, labels []float64
	appendCases := func(count int, pred, label float64) {
		for i := 0; i < count; i++ {
			preds = append(preds, pred)
			labels = append(labels, label)
		}
	}
	appendCases(5, 0.9, 1)  // tp
	appendCases(2, 0.9, 0)  // fp
	appendCases(10, 0.1, 0) // tn
	appendCases(3, 0.1, 1)  // fn

	c := Confuse(preds, labels, 0.5)
	if c.TP != 5 || c.FP != 2 || c.TN != 10 || c.FN != 3 {
		t.Fatalf("Confuse() = %+v", c)
	}

	report, err := Score(preds, labels, 0.5, ZeroOnDegenerate)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"accuracy", report.Accuracy, 0.75},
		{"specificity", report.Specificity, 10.0 / 12.0},
		{"recall", report.Recall, 0.625},
		{"precision", report.Precision, 5.0 / 7.0},
		{"f1", report.F1, 2.0 * (5.0 / 7.0) * 0.625 / ((5.0 / 7.0) + 0.625)},
	}
	for _, check := range checks {
		if math.Abs(check.got-check.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", check.name, check.got, check.want)
		}
	}
}

func TestDegeneratePolicy(t *testing.T) {
	// No prediction exceeds the threshold: tp+fp = 0, precision degenerate.
	preds := []float64{0.1, 0.2, 0.1, 0.2}
	labels := []float64{0, 0, 1, 1}

	t.Run("zero policy substitutes zero", func(t *testing.T) {
		report, err := Score(preds, labels, 0.5, ZeroOnDegenerate)
		if err != nil {
			t.Fatalf("Score() error: %v", err)
		}
		if report.Precision != 0 || report.F1 != 0 {
			t.Errorf("precision=%v f1=%v, want both 0", report.Precision, report.F1)
		}
	})

	t.Run("nan policy substitutes NaN", func(t *testing.T) {
		report, err := Score(preds, labels, 0.5, NaNOnDegenerate)
		if err != nil {
			t.Fatalf("Score() error: %v", err)
		}
		if !math.IsNaN(report.Precision) || !math.IsNaN(report.F1) {
			t.Errorf("precision=%v f1=%v, want both NaN", report.Precision, report.F1)
		}
	})

	t.Run("degenerate metric emits a warning", func(t *testing.T) {
		var captured []error
		errors.SetWarningHandler(func(w error) { captured = append(captured, w) })
		defer errors.SetWarningHandler(nil)

		if _, err := Score(preds, labels, 0.5, ZeroOnDegenerate); err != nil {
			t.Fatalf("Score() error: %v", err)
		}
		if len(captured) == 0 {
			t.Fatal("expected an UndefinedMetricWarning")
		}
		var undefined *errors.UndefinedMetricWarning
		found := false
		for _, w := range captured {
			if errors.As(w, &undefined) {
				found = true
			}
		}
		if !found {
			t.Errorf("no UndefinedMetricWarning among %v", captured)
		}
	})
}

func TestBrier(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  float64
	}{
		{
			name:  "Perfect probabilities",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0, 1, 0, 1},
			want:  0,
		},
		{
			name:  "Uninformative probabilities",
			yTrue: []float64{0, 1, 0, 1},
			yPred: []float64{0.5, 0.5, 0.5, 0.5},
			want:  0.25,
		},
		{
			name:  "Mixed",
			yTrue: []float64{1, 0},
			yPred: []float64{0.8, 0.3},
			want:  (0.04 + 0.09) / 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Brier(tt.yPred, tt.yTrue)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Brier() = %v, want %v", got, tt.want)
			}
		})
	}
}
