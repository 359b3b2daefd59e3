package measure

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/mikimaus78/mlr/learner"
)

type mse struct{}
type mae struct{}
type rmse struct{}
type rsq struct{}
type accuracy struct{}
type mmce struct{}

var (
	// MSE is the mean squared error, averaged across iterations.
	MSE = mse{}
	// MAE is the mean absolute error, averaged across iterations.
	MAE = mae{}
	// RMSE is the root mean squared error. It is aggregated by pooling: the
	// square root is taken over the squared errors of all test predictions at
	// once, not averaged per fold.
	RMSE = rmse{}
	// R2 is the coefficient of determination, averaged across iterations.
	R2 = rsq{}
	// Accuracy is the fraction of correctly predicted labels, averaged across
	// iterations.
	Accuracy = accuracy{}
	// MMCE is the mean misclassification error, averaged across iterations.
	MMCE = mmce{}
)

var errNoPredictions = errors.New("no predictions to score")

func (mse) Name() string {
	return "mse"
}

func (mse) Aggregation() string {
	return "test.mean"
}

func (m mse) Compute(p *learner.Prediction) (float64, error) {
	if p.Size() == 0 {
		return 0, errNoPredictions
	}
	var sum float64
	for _, r := range p.Rows {
		d := r.Response - r.Truth
		sum += d * d
	}
	return sum / float64(p.Size()), nil
}

func (m mse) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return MeanTest(test, train, groups, merged)
}

func (mae) Name() string {
	return "mae"
}

func (mae) Aggregation() string {
	return "test.mean"
}

func (m mae) Compute(p *learner.Prediction) (float64, error) {
	if p.Size() == 0 {
		return 0, errNoPredictions
	}
	var sum float64
	for _, r := range p.Rows {
		sum += math.Abs(r.Response - r.Truth)
	}
	return sum / float64(p.Size()), nil
}

func (m mae) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return MeanTest(test, train, groups, merged)
}

func (rmse) Name() string {
	return "rmse"
}

func (rmse) Aggregation() string {
	return "test.pooled"
}

func (m rmse) Compute(p *learner.Prediction) (float64, error) {
	v, err := MSE.Compute(p)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

func (m rmse) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return Pooled(m)(test, train, groups, merged)
}

func (rsq) Name() string {
	return "rsq"
}

func (rsq) Aggregation() string {
	return "test.mean"
}

func (m rsq) Compute(p *learner.Prediction) (float64, error) {
	if p.Size() < 2 {
		return 0, errors.New("rsq requires at least two predictions")
	}
	return stat.RSquaredFrom(p.Responses(), p.Truths(), nil), nil
}

func (m rsq) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return MeanTest(test, train, groups, merged)
}

func (accuracy) Name() string {
	return "acc"
}

func (accuracy) Aggregation() string {
	return "test.mean"
}

func (m accuracy) Compute(p *learner.Prediction) (float64, error) {
	if p.Size() == 0 {
		return 0, errNoPredictions
	}
	var correct float64
	for _, r := range p.Rows {
		if r.Response == r.Truth {
			correct++
		}
	}
	return correct / float64(p.Size()), nil
}

func (m accuracy) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return MeanTest(test, train, groups, merged)
}

func (mmce) Name() string {
	return "mmce"
}

func (mmce) Aggregation() string {
	return "test.mean"
}

func (m mmce) Compute(p *learner.Prediction) (float64, error) {
	acc, err := Accuracy.Compute(p)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

func (m mmce) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return MeanTest(test, train, groups, merged)
}
