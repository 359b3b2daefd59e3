package learner

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/mikimaus78/mlr/task"
)

// FeaturelessMethod selects how a featureless learner summarises the targets
// it was trained on.
type FeaturelessMethod uint8

const (
	// Mean predicts the (weighted) mean of the training targets.
	Mean FeaturelessMethod = iota
	// Mode predicts the most frequent training target, breaking ties towards
	// the value seen first. Weights count towards the vote.
	Mode
)

// Featureless is a baseline learner that ignores all features. It predicts a
// single constant derived from the training targets.
type Featureless struct {
	method FeaturelessMethod
}

type featurelessModel struct {
	response float64
}

// NewFeatureless creates a featureless baseline learner.
func NewFeatureless(method FeaturelessMethod) Featureless {
	return Featureless{method: method}
}

func (l Featureless) Name() string {
	if l.method == Mode {
		return "featureless.mode"
	}
	return "featureless.mean"
}

func (l Featureless) Fit(t *task.Task, weights []float64) (Model, error) {
	if t.Size() == 0 {
		return nil, errors.New("cannot fit featureless learner on an empty task")
	}

	var response float64
	switch l.method {
	case Mode:
		votes := make(map[float64]float64)
		var order []float64
		for i := 0; i < t.Size(); i++ {
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			v := t.Target(i)
			if _, ok := votes[v]; !ok {
				order = append(order, v)
			}
			votes[v] += w
		}
		best := order[0]
		for _, v := range order {
			if votes[v] > votes[best] {
				best = v
			}
		}
		response = best
	default:
		response = stat.Mean(t.Targets(), weights)
	}

	return featurelessModel{response: response}, nil
}

func (m featurelessModel) Predict(t *task.Task) (*Prediction, error) {
	responses := make([]float64, t.Size())
	for i := range responses {
		responses[i] = m.response
	}
	return NewPrediction(t, responses), nil
}
