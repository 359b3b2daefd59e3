package mlr

import (
	"log"

	goerrors "github.com/go-errors/errors"

	"github.com/mikimaus78/mlr/learner"
	"github.com/mikimaus78/mlr/measure"
	"github.com/mikimaus78/mlr/task"
)

// Failure holds the captured error messages of one resampling iteration. A
// nil slot means the phase did not fail; this keeps "no failure" apart from a
// failure that happened to carry an empty message.
type Failure struct {
	Train   *string `json:"train"`
	Predict *string `json:"predict"`
}

// Failed reports whether either phase of the iteration failed.
func (f Failure) Failed() bool {
	return f.Train != nil || f.Predict != nil
}

// Extractor pulls a user-defined summary out of a fitted model, for example
// variable importances. It is never invoked on a failed fit.
type Extractor func(learner.Model) interface{}

// record is the outcome of a single resampling iteration. It is owned by the
// iteration that produced it and consumed once by the merger.
type record struct {
	iteration int
	test      []measure.Cell
	train     []measure.Cell
	model     learner.Model
	testPred  *learner.Prediction
	trainPred *learner.Prediction
	failure   Failure
	extract   interface{}
}

func naCells(n int) []measure.Cell {
	cells := make([]measure.Cell, n)
	for i := range cells {
		cells[i] = measure.NA
	}
	return cells
}

func failCells(cells []measure.Cell) {
	for i := range cells {
		cells[i] = measure.Fail
	}
}

// runIteration trains, predicts and scores one train/test pair. It never
// returns an error: training and prediction failures, panics included, are
// captured in the record's failure slots and the affected measure cells are
// marked failed.
func runIteration(iteration int, ln learner.Learner, t *task.Task, trainIdx, testIdx []int, weights []float64, measures []measure.Measure, predict PredictSet, extract Extractor) record {
	rec := record{
		iteration: iteration,
		test:      naCells(len(measures)),
		train:     naCells(len(measures)),
	}

	fail := func(slot **string, err error) {
		msg := err.Error()
		*slot = &msg
		// A training failure forecloses measures on both sides; a prediction
		// failure is handled per side by the caller below.
	}

	trainTask, err := t.Subset(trainIdx)
	if err == nil {
		rec.model, rec.extract, err = fitProtected(ln, trainTask, sliceWeights(weights, trainIdx), extract)
	}
	if err != nil {
		fail(&rec.failure.Train, err)
		if predict.train() {
			failCells(rec.train)
		}
		if predict.test() {
			failCells(rec.test)
		}
		return rec
	}

	if predict.train() {
		p, err := predictProtected(rec.model, trainTask)
		if err != nil {
			fail(&rec.failure.Predict, err)
			failCells(rec.train)
		} else {
			tagPrediction(p, iteration, learner.Train)
			rec.trainPred = p
			computeCells(rec.train, measures, p)
		}
	}

	if predict.test() {
		testTask, err := t.Subset(testIdx)
		var p *learner.Prediction
		if err == nil {
			p, err = predictProtected(rec.model, testTask)
		}
		if err != nil {
			// A test-side failure must not disturb train-side results that
			// were already computed above.
			if rec.failure.Predict != nil {
				err = goerrors.Errorf("%s; %s", *rec.failure.Predict, err.Error())
			}
			fail(&rec.failure.Predict, err)
			failCells(rec.test)
		} else {
			tagPrediction(p, iteration, learner.Test)
			rec.testPred = p
			computeCells(rec.test, measures, p)
		}
	}

	return rec
}

// fitProtected trains the learner and applies the extractor, converting
// panics from either into ordinary errors. Panic stacks are logged so a
// misbehaving learner can still be debugged after the run.
func fitProtected(ln learner.Learner, t *task.Task, weights []float64, extract Extractor) (m learner.Model, x interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			e := goerrors.Wrap(r, 1)
			log.Println(e.ErrorStack())
			m, x, err = nil, nil, e
		}
	}()
	m, err = ln.Fit(t, weights)
	if err != nil {
		return nil, nil, err
	}
	if extract != nil {
		x = extract(m)
	}
	return m, x, nil
}

func predictProtected(m learner.Model, t *task.Task) (p *learner.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			e := goerrors.Wrap(r, 1)
			log.Println(e.ErrorStack())
			p, err = nil, e
		}
	}()
	return m.Predict(t)
}

// computeCells fills one measure cell per measure. Measures are computed
// independently: one measure failing, by error or panic, only marks its own
// cell.
func computeCells(cells []measure.Cell, measures []measure.Measure, p *learner.Prediction) {
	for i, m := range measures {
		cells[i] = computeCell(m, p)
	}
}

func computeCell(m measure.Measure, p *learner.Prediction) (cell measure.Cell) {
	defer func() {
		if r := recover(); r != nil {
			log.Println(goerrors.Wrap(r, 1).ErrorStack())
			cell = measure.Fail
		}
	}()
	v, err := m.Compute(p)
	if err != nil {
		return measure.Fail
	}
	return measure.Val(v)
}

func tagPrediction(p *learner.Prediction, iteration int, s learner.Set) {
	for i := range p.Rows {
		p.Rows[i].Iteration = iteration
		p.Rows[i].Set = s
	}
}

// sliceWeights restricts a case weight vector to the rows of one training
// set. Weights never flow into prediction or scoring.
func sliceWeights(weights []float64, indices []int) []float64 {
	if weights == nil {
		return nil
	}
	w := make([]float64, len(indices))
	for i, idx := range indices {
		w[i] = weights[idx]
	}
	return w
}
