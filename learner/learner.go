// Package learner provides the learner and model abstractions used by the
// resampling engine, together with a small number of concrete learners.
package learner

import (
	"github.com/mikimaus78/mlr/task"
)

// Learner is an algorithm that can be fit to a task to produce a model.
type Learner interface {
	// Name is the identifier of the learner in result output.
	Name() string
	// Fit trains a model on a task. The weight vector, when non-nil, has one
	// entry per row of the task. A returned error marks the fit as failed;
	// no model is produced.
	Fit(t *task.Task, weights []float64) (Model, error)
}

// Model is a fitted model that can predict on a task.
type Model interface {
	// Predict produces one prediction row per row of the task.
	Predict(t *task.Task) (*Prediction, error)
}

// Set tags a prediction row as originating from the train or test side of a
// resampling iteration.
type Set string

const (
	// Train marks predictions made on the training split.
	Train Set = "train"
	// Test marks predictions made on the test split.
	Test Set = "test"
)

// Row is a single prediction: the original dataset row it belongs to, the true
// target value, and the model's response. Iteration and Set are filled in by
// the resampling engine when predictions from many iterations are merged.
type Row struct {
	Row       int     `json:"row"`
	Truth     float64 `json:"truth"`
	Response  float64 `json:"response"`
	Iteration int     `json:"iteration,omitempty"`
	Set       Set     `json:"set,omitempty"`
}

// Prediction is an ordered collection of prediction rows.
type Prediction struct {
	Rows []Row `json:"rows"`
}

// NewPrediction builds a prediction for a task from a response vector,
// pairing each response with the task's truth and original row identity.
func NewPrediction(t *task.Task, responses []float64) *Prediction {
	rows := make([]Row, len(responses))
	for i, r := range responses {
		rows[i] = Row{
			Row:      t.RowID(i),
			Truth:    t.Target(i),
			Response: r,
		}
	}
	return &Prediction{Rows: rows}
}

// Size returns the number of prediction rows.
func (p *Prediction) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Rows)
}

// Truths returns the truth column.
func (p *Prediction) Truths() []float64 {
	v := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		v[i] = r.Truth
	}
	return v
}

// Responses returns the response column.
func (p *Prediction) Responses() []float64 {
	v := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		v[i] = r.Response
	}
	return v
}

// Filter returns the rows tagged with the given set.
func (p *Prediction) Filter(s Set) *Prediction {
	if p == nil {
		return nil
	}
	f := &Prediction{}
	for _, r := range p.Rows {
		if r.Set == s {
			f.Rows = append(f.Rows, r)
		}
	}
	return f
}
