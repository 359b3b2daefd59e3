package learner

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mikimaus78/mlr/task"
)

// LeastSquares fits a linear model with an intercept by QR-decomposed least
// squares. Case weights are applied by scaling each row and target by the
// square root of its weight.
type LeastSquares struct{}

type leastSquaresModel struct {
	beta *mat.Dense
}

// NewLeastSquares creates a linear least squares learner.
func NewLeastSquares() LeastSquares {
	return LeastSquares{}
}

func (LeastSquares) Name() string {
	return "regr.lm"
}

func (LeastSquares) Fit(t *task.Task, weights []float64) (Model, error) {
	n := t.Size()
	p := t.NumFeatures() + 1
	if n < p {
		return nil, errors.Errorf("least squares needs at least %d rows, got %d", p, n)
	}

	a := mat.NewDense(n, p, nil)
	b := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		s := 1.0
		if weights != nil {
			if weights[i] < 0 {
				return nil, errors.Errorf("negative case weight %f at row %d", weights[i], i)
			}
			s = math.Sqrt(weights[i])
		}
		a.Set(i, 0, s)
		for j, v := range t.Row(i) {
			a.Set(i, j+1, s*v)
		}
		b.Set(i, 0, s*t.Target(i))
	}

	var qr mat.QR
	qr.Factorize(a)
	beta := mat.NewDense(p, 1, nil)
	if err := qr.SolveTo(beta, false, b); err != nil {
		return nil, errors.Wrap(err, "solving least squares system")
	}

	return leastSquaresModel{beta: beta}, nil
}

func (m leastSquaresModel) Predict(t *task.Task) (*Prediction, error) {
	p, _ := m.beta.Dims()
	if t.NumFeatures()+1 != p {
		return nil, errors.Errorf("model was fit on %d features, task has %d", p-1, t.NumFeatures())
	}

	responses := make([]float64, t.Size())
	for i := range responses {
		y := m.beta.At(0, 0)
		for j, v := range t.Row(i) {
			y += m.beta.At(j+1, 0) * v
		}
		responses[i] = y
	}
	return NewPrediction(t, responses), nil
}
