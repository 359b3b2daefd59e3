// Package task provides the supervised dataset abstraction consumed by learners,
// measures, and the resampling engine.
package task

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Task is a supervised dataset: a feature matrix, a target vector, and
// optionally case weights and a blocking/group assignment per row. Rows keep
// their identity in the original dataset through subsetting, so predictions
// made on a subset can always be mapped back to the row they came from.
type Task struct {
	name    string
	x       *mat.Dense
	y       []float64
	rows    []int
	weights []float64
	groups  []string
}

// TaskWeights attaches case weights to a task. The weight vector must have one
// entry per row.
func TaskWeights(weights []float64) func(*Task) {
	return func(t *Task) {
		t.weights = weights
	}
}

// TaskGroups attaches a blocking/group id to each row. Grouped resampling keeps
// all rows of a group on the same side of a split, and grouped aggregation
// averages within groups before averaging across them.
func TaskGroups(groups []string) func(*Task) {
	return func(t *Task) {
		t.groups = groups
	}
}

// New creates a task from a feature matrix and a target vector. The number of
// rows in x must match the length of y, as must any attached weight or group
// vectors.
func New(name string, x *mat.Dense, y []float64, options ...func(*Task)) (*Task, error) {
	n, _ := x.Dims()
	if n != len(y) {
		return nil, errors.Errorf("task %s: feature matrix has %d rows but target vector has %d", name, n, len(y))
	}

	t := &Task{
		name: name,
		x:    x,
		y:    y,
		rows: make([]int, n),
	}
	for i := range t.rows {
		t.rows[i] = i
	}

	for _, option := range options {
		option(t)
	}

	if t.weights != nil && len(t.weights) != n {
		return nil, errors.Errorf("task %s: %d weights for %d rows", name, len(t.weights), n)
	}
	if t.groups != nil && len(t.groups) != n {
		return nil, errors.Errorf("task %s: %d group ids for %d rows", name, len(t.groups), n)
	}

	return t, nil
}

// Name returns the identifier of the task.
func (t *Task) Name() string {
	return t.name
}

// Size returns the number of rows in the task.
func (t *Task) Size() int {
	return len(t.y)
}

// NumFeatures returns the number of feature columns.
func (t *Task) NumFeatures() int {
	_, c := t.x.Dims()
	return c
}

// Row returns the feature vector of row i.
func (t *Task) Row(i int) []float64 {
	return mat.Row(nil, i, t.x)
}

// Target returns the target value of row i.
func (t *Task) Target(i int) float64 {
	return t.y[i]
}

// Targets returns the full target vector.
func (t *Task) Targets() []float64 {
	return t.y
}

// X returns the feature matrix.
func (t *Task) X() *mat.Dense {
	return t.x
}

// RowID maps row i of this (possibly subsetted) task back to its index in the
// original dataset.
func (t *Task) RowID(i int) int {
	return t.rows[i]
}

// Weights returns the case weights, or nil when the task carries none.
func (t *Task) Weights() []float64 {
	return t.weights
}

// Groups returns the blocking/group vector, or nil when the task carries none.
func (t *Task) Groups() []string {
	return t.groups
}

// Strata returns a stratification vector derived from the targets, suitable
// for stratified resampling of classification tasks where the target holds
// discrete labels.
func (t *Task) Strata() []string {
	s := make([]string, len(t.y))
	for i, v := range t.y {
		s[i] = fmt.Sprintf("%v", v)
	}
	return s
}

// Subset returns a new task containing only the given rows, in the given
// order. Weights and groups are sliced along with the features, and row
// identity is preserved via RowID. An empty index set is an error, not a
// zero-row task.
func (t *Task) Subset(indices []int) (*Task, error) {
	if len(indices) == 0 {
		return nil, errors.Errorf("task %s: cannot subset to zero rows", t.name)
	}
	_, c := t.x.Dims()
	x := mat.NewDense(len(indices), c, nil)
	y := make([]float64, len(indices))
	rows := make([]int, len(indices))

	var weights []float64
	if t.weights != nil {
		weights = make([]float64, len(indices))
	}
	var groups []string
	if t.groups != nil {
		groups = make([]string, len(indices))
	}

	for i, idx := range indices {
		if idx < 0 || idx >= len(t.y) {
			return nil, errors.Errorf("task %s: subset index %d out of range [0,%d)", t.name, idx, len(t.y))
		}
		x.SetRow(i, mat.Row(nil, idx, t.x))
		y[i] = t.y[idx]
		rows[i] = t.rows[idx]
		if weights != nil {
			weights[i] = t.weights[idx]
		}
		if groups != nil {
			groups[i] = t.groups[idx]
		}
	}

	return &Task{
		name:    t.name,
		x:       x,
		y:       y,
		rows:    rows,
		weights: weights,
		groups:  groups,
	}, nil
}
