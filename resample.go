// Package mlr provides a resampling engine for machine learning experiments:
// it materialises a resampling strategy into train/test index sets, drives
// the train/predict/score loop over them in parallel, captures per-iteration
// failures without aborting the run, and merges the per-iteration outcomes
// into a single result with per-measure aggregation.
package mlr

import (
	"log"
	"time"

	"github.com/mikimaus78/mlr/learner"
	"github.com/mikimaus78/mlr/measure"
	"github.com/mikimaus78/mlr/task"
)

// Resampling is anything that can be materialised into an instance for a
// task: a Description, or an *Instance built beforehand (for example to share
// one set of splits across several learners, or to fix the splits with a
// seeded random source).
type Resampling interface {
	Materialise(t *task.Task) (*Instance, error)
}

type resampleOptions struct {
	weights         []float64
	keepModels      bool
	keepPredictions bool
	extract         Extractor
	concurrency     int
	progress        bool
}

// ResampleWeights supplies case weights for training, overriding any weights
// attached to the task. The vector must have one entry per task row; it is
// sliced to each iteration's training set and never used for scoring.
func ResampleWeights(weights []float64) func(*resampleOptions) {
	return func(o *resampleOptions) {
		o.weights = weights
	}
}

// ResampleKeepModels retains the fitted model of every iteration on the
// result. Off by default, since models can be large.
func ResampleKeepModels() func(*resampleOptions) {
	return func(o *resampleOptions) {
		o.keepModels = true
	}
}

// ResampleKeepPredictions controls whether merged predictions are retained on
// the result. On by default; pooled aggregations still work when switched
// off, as merging happens before the predictions are discarded.
func ResampleKeepPredictions(keep bool) func(*resampleOptions) {
	return func(o *resampleOptions) {
		o.keepPredictions = keep
	}
}

// ResampleExtract applies fn to each successfully fitted model and stores the
// extracted values on the result, one per iteration.
func ResampleExtract(fn Extractor) func(*resampleOptions) {
	return func(o *resampleOptions) {
		o.extract = fn
	}
}

// ResampleConcurrency bounds the number of iterations running at once.
// Defaults to the number of CPUs; correctness does not depend on it.
func ResampleConcurrency(n int) func(*resampleOptions) {
	return func(o *resampleOptions) {
		o.concurrency = n
	}
}

// ResampleProgress shows a progress bar while iterations run.
func ResampleProgress(show bool) func(*resampleOptions) {
	return func(o *resampleOptions) {
		o.progress = show
	}
}

// Resample fits the learner on every training set of the resampling, predicts
// per the description's predict setting, scores the requested measures, and
// merges everything into a Result. Configuration problems fail fast before
// any iteration runs; training and prediction failures inside iterations are
// captured on the result instead of aborting the run.
func Resample(ln learner.Learner, t *task.Task, rs Resampling, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	start := time.Now()

	if ln == nil {
		return nil, configErrorf("no learner supplied")
	}
	if t == nil {
		return nil, configErrorf("no task supplied")
	}
	if rs == nil {
		return nil, configErrorf("no resampling strategy supplied")
	}

	opts := resampleOptions{keepPredictions: true}
	for _, option := range options {
		option(&opts)
	}

	weights := opts.weights
	if weights == nil {
		weights = t.Weights()
	}
	if weights != nil && len(weights) != t.Size() {
		return nil, configErrorf("%d case weights for task %s with %d rows", len(weights), t.Name(), t.Size())
	}

	in, err := rs.Materialise(t)
	if err != nil {
		return nil, err
	}

	log.Printf("resampling %s on task %s: %s, %d iterations\n", ln.Name(), t.Name(), in.Description.String(), in.Iterations())

	records, err := runAll(in.Iterations(), opts.concurrency, opts.progress, func(i int) record {
		return runIteration(i+1, ln, t, in.TrainSets[i], in.TestSets[i], weights, measures, in.Description.Predict, opts.extract)
	})
	if err != nil {
		return nil, err
	}

	return merge(ln.Name(), t.Name(), records, measures, in, opts.keepModels, opts.extract != nil, opts.keepPredictions, time.Since(start)), nil
}

// CrossValidation resamples with k-fold cross-validation.
func CrossValidation(ln learner.Learner, t *task.Task, folds int, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	return Resample(ln, t, NewCVDescription(folds), measures, options...)
}

// RepeatedCrossValidation resamples with repeated k-fold cross-validation.
func RepeatedCrossValidation(ln learner.Learner, t *task.Task, reps, folds int, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	return Resample(ln, t, NewRepCVDescription(reps, folds), measures, options...)
}

// HoldoutValidation resamples with a single split at the given training
// proportion.
func HoldoutValidation(ln learner.Learner, t *task.Task, split float64, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	return Resample(ln, t, NewHoldoutDescription(split), measures, options...)
}

// LeaveOneOut resamples with leave-one-out cross-validation.
func LeaveOneOut(ln learner.Learner, t *task.Task, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	return Resample(ln, t, NewLOODescription(), measures, options...)
}

// BootstrapValidation resamples with out-of-bag bootstrapping.
func BootstrapValidation(ln learner.Learner, t *task.Task, iters int, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	return Resample(ln, t, NewBootstrapDescription(iters), measures, options...)
}

// Subsampling resamples with repeated random splits.
func Subsampling(ln learner.Learner, t *task.Task, iters int, split float64, measures []measure.Measure, options ...func(*resampleOptions)) (*Result, error) {
	return Resample(ln, t, NewSubsampleDescription(iters, split), measures, options...)
}
