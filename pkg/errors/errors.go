// Package errors provides the typed error taxonomy and warning system shared by
// the whole evaluation pipeline. Error types carry structured fields so that they
// can be logged with full context (fold index, candidate index, stage), and every
// constructor attaches a stack trace via cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("readmit-warning: %v\n", w)
	}
)

// SetWarningHandler overrides how non-fatal warnings (for example
// UndefinedMetricWarning from a degenerate confusion matrix) are reported.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// Warn reports a warning through the configured handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Pipeline error types
//
// ===========================================================================

// InvalidPartitionError reports that a stratified k-fold split is impossible
// for the given label vector: a fold would receive zero examples of a class.
// It is fatal to the run.
type InvalidPartitionError struct {
	Folds     int
	Positives int
	Negatives int
}

func (e *InvalidPartitionError) Error() string {
	return fmt.Sprintf("readmit: cannot stratify %d folds over %d positive / %d negative cases",
		e.Folds, e.Positives, e.Negatives)
}

// MarshalZerologObject adds the partition context to a zerolog event.
func (e *InvalidPartitionError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("folds", e.Folds).
		Int("positives", e.Positives).
		Int("negatives", e.Negatives).
		Str("type", "InvalidPartitionError")
}

// NewInvalidPartitionError creates an InvalidPartitionError with a stack trace.
func NewInvalidPartitionError(folds, positives, negatives int) error {
	err := &InvalidPartitionError{Folds: folds, Positives: positives, Negatives: negatives}
	return errors.WithStack(err)
}

// CalibrationConvergenceError reports that the Platt-scaling fit did not reach
// its gradient tolerance, e.g. on perfectly separated raw scores. The affected
// fold is excluded from aggregation; the run continues.
type CalibrationConvergenceError struct {
	Iterations  int
	MaxGradient float64
	Tolerance   float64
}

func (e *CalibrationConvergenceError) Error() string {
	return fmt.Sprintf("readmit: calibration did not converge after %d iterations (max |grad| %.3g, tol %.3g)",
		e.Iterations, e.MaxGradient, e.Tolerance)
}

// MarshalZerologObject adds the optimizer state to a zerolog event.
func (e *CalibrationConvergenceError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("iterations", e.Iterations).
		Float64("max_gradient", e.MaxGradient).
		Float64("tolerance", e.Tolerance).
		Str("type", "CalibrationConvergenceError")
}

// NewCalibrationConvergenceError creates a CalibrationConvergenceError with a
// stack trace.
func NewCalibrationConvergenceError(iterations int, maxGradient, tolerance float64) error {
	err := &CalibrationConvergenceError{Iterations: iterations, MaxGradient: maxGradient, Tolerance: tolerance}
	return errors.WithStack(err)
}

// TrainerError reports a failed training call: malformed hyperparameters or a
// non-finite training loss. During grid search it disqualifies the candidate
// configuration rather than ending the run.
type TrainerError struct {
	Stage     string // "tuning", "final", "oof_calibration"
	Candidate int    // enumeration index of the configuration, -1 if n/a
	Err       error
}

func (e *TrainerError) Error() string {
	if e.Candidate >= 0 {
		return fmt.Sprintf("readmit: trainer failed in %s stage for candidate %d: %v", e.Stage, e.Candidate, e.Err)
	}
	return fmt.Sprintf("readmit: trainer failed in %s stage: %v", e.Stage, e.Err)
}

func (e *TrainerError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the failing stage and candidate to a zerolog event.
func (e *TrainerError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", e.Stage).
		Int("candidate", e.Candidate).
		AnErr("cause", e.Err).
		Str("type", "TrainerError")
}

// NewTrainerError creates a TrainerError with a stack trace.
func NewTrainerError(stage string, candidate int, err error) error {
	trainerErr := &TrainerError{Stage: stage, Candidate: candidate, Err: err}
	return errors.WithStack(trainerErr)
}

// ExternalComputationError reports a failure in an external collaborator whose
// result is optional, such as per-fold feature attribution. It is logged and
// the fold is absent from the corresponding aggregate; the run continues.
type ExternalComputationError struct {
	Component string
	Fold      int
	Err       error
}

func (e *ExternalComputationError) Error() string {
	return fmt.Sprintf("readmit: %s failed for fold %d: %v", e.Component, e.Fold, e.Err)
}

func (e *ExternalComputationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the component and fold to a zerolog event.
func (e *ExternalComputationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("component", e.Component).
		Int("fold", e.Fold).
		AnErr("cause", e.Err).
		Str("type", "ExternalComputationError")
}

// NewExternalComputationError creates an ExternalComputationError with a stack
// trace.
func NewExternalComputationError(component string, fold int, err error) error {
	extErr := &ExternalComputationError{Component: component, Fold: fold, Err: err}
	return errors.WithStack(extErr)
}

// ===========================================================================
//
//	General structural errors
//
// ===========================================================================

// NotFittedError is returned when Transform or Predict is called on a model
// that has not been fitted yet.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("readmit: %s: not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the model and method to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports a mismatch between expected and actual input sizes.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("readmit: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the dimension context to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("readmit: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// UndefinedMetricWarning is raised when a confusion-matrix metric has a zero
// denominator and the configured degenerate policy substitutes a value.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // value substituted under the active policy
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	cockroachdb/errors passthroughs
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an operation receives no rows.
	ErrEmptyData = New("empty data")
)
