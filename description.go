package mlr

import (
	"fmt"
)

// Method tags a resampling strategy.
type Method string

const (
	// Holdout is a single train/test split.
	Holdout Method = "Holdout"
	// CV is k-fold cross-validation.
	CV Method = "CV"
	// RepCV is repeated k-fold cross-validation.
	RepCV Method = "RepCV"
	// LOO is leave-one-out cross-validation.
	LOO Method = "LOO"
	// Bootstrap draws the training set with replacement and tests on the
	// out-of-bag rows.
	Bootstrap Method = "Bootstrap"
	// Subsample repeats random train/test splits.
	Subsample Method = "Subsample"
)

// PredictSet selects which splits of an iteration predictions and measures
// are computed for.
type PredictSet uint8

const (
	// PredictTest computes predictions on the test split only.
	PredictTest PredictSet = iota
	// PredictTrain computes predictions on the training split only.
	PredictTrain
	// PredictBoth computes predictions on both splits.
	PredictBoth
)

func (p PredictSet) train() bool {
	return p == PredictTrain || p == PredictBoth
}

func (p PredictSet) test() bool {
	return p == PredictTest || p == PredictBoth
}

// Description is an abstract resampling strategy, independent of any dataset.
// It is immutable; the With* methods return modified copies.
type Description struct {
	Method   Method
	Folds    int     // folds per repetition for CV and RepCV
	Reps     int     // repetitions for RepCV
	Iters    int     // iterations for Bootstrap and Subsample
	Split    float64 // training proportion for Holdout and Subsample
	Stratify bool
	Predict  PredictSet
}

// NewHoldoutDescription describes a single split with the given training
// proportion.
func NewHoldoutDescription(split float64) Description {
	return Description{Method: Holdout, Split: split}
}

// NewCVDescription describes k-fold cross-validation.
func NewCVDescription(folds int) Description {
	return Description{Method: CV, Folds: folds}
}

// NewRepCVDescription describes repeated k-fold cross-validation.
func NewRepCVDescription(reps, folds int) Description {
	return Description{Method: RepCV, Folds: folds, Reps: reps}
}

// NewLOODescription describes leave-one-out cross-validation.
func NewLOODescription() Description {
	return Description{Method: LOO}
}

// NewBootstrapDescription describes out-of-bag bootstrap resampling.
func NewBootstrapDescription(iters int) Description {
	return Description{Method: Bootstrap, Iters: iters}
}

// NewSubsampleDescription describes repeated random splits with the given
// training proportion.
func NewSubsampleDescription(iters int, split float64) Description {
	return Description{Method: Subsample, Iters: iters, Split: split}
}

// Stratified returns a copy of the description with stratification enabled.
// Instantiation then requires a stratification vector and balances its levels
// across folds.
func (d Description) Stratified() Description {
	d.Stratify = true
	return d
}

// PredictOn returns a copy of the description with the given predict setting.
func (d Description) PredictOn(p PredictSet) Description {
	d.Predict = p
	return d
}

// Iterations returns the number of train/test pairs the description produces
// for a dataset of the given size.
func (d Description) Iterations(size int) int {
	switch d.Method {
	case Holdout:
		return 1
	case CV:
		return d.Folds
	case RepCV:
		return d.Reps * d.Folds
	case LOO:
		return size
	default:
		return d.Iters
	}
}

func (d Description) String() string {
	switch d.Method {
	case Holdout:
		return fmt.Sprintf("Holdout with %.2f training split", d.Split)
	case CV:
		return fmt.Sprintf("%d-fold cross-validation", d.Folds)
	case RepCV:
		return fmt.Sprintf("%d times repeated %d-fold cross-validation", d.Reps, d.Folds)
	case LOO:
		return "leave-one-out cross-validation"
	case Bootstrap:
		return fmt.Sprintf("out-of-bag bootstrapping with %d iterations", d.Iters)
	case Subsample:
		return fmt.Sprintf("subsampling with %d iterations and %.2f training split", d.Iters, d.Split)
	}
	return string(d.Method)
}
