package mlr_test

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mikimaus78/mlr"
	"github.com/mikimaus78/mlr/learner"
	"github.com/mikimaus78/mlr/measure"
	"github.com/mikimaus78/mlr/task"
)

// newTask builds a task whose single feature is the row index, with a binary
// target splitting the rows in half.
func newTask(t *testing.T, n int) *task.Task {
	t.Helper()
	x := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i))
		if i >= n/2 {
			y[i] = 1
		}
	}
	tk, err := task.New("synthetic", x, y)
	if err != nil {
		t.Fatal(err)
	}
	return tk
}

// oracleLearner trains instantly and predicts the true target, which makes
// measure values exact in tests.
type oracleLearner struct{}

type oracleModel struct{}

func (oracleLearner) Name() string {
	return "test.oracle"
}

func (oracleLearner) Fit(t *task.Task, weights []float64) (learner.Model, error) {
	return oracleModel{}, nil
}

func (oracleModel) Predict(t *task.Task) (*learner.Prediction, error) {
	return learner.NewPrediction(t, t.Targets()), nil
}

// markerLearner fails to train whenever the training split does not contain
// the row whose feature equals marker, which pins the failure to exactly the
// iteration that holds that row in its test set.
type markerLearner struct {
	marker float64
}

func (markerLearner) Name() string {
	return "test.marker"
}

func (l markerLearner) Fit(t *task.Task, weights []float64) (learner.Model, error) {
	for i := 0; i < t.Size(); i++ {
		if t.Row(i)[0] == l.marker {
			return oracleModel{}, nil
		}
	}
	return nil, errors.New("marker row missing from training data")
}

// fiveIterationInstance pairs up ten rows into five fixed test sets.
func fiveIterationInstance() *mlr.Instance {
	in := &mlr.Instance{
		Description: mlr.NewCVDescription(5),
		Size:        10,
	}
	for i := 0; i < 5; i++ {
		test := []int{2 * i, 2*i + 1}
		var train []int
		for j := 0; j < 10; j++ {
			if j != test[0] && j != test[1] {
				train = append(train, j)
			}
		}
		in.TestSets = append(in.TestSets, test)
		in.TrainSets = append(in.TrainSets, train)
	}
	return in
}

func TestCrossValidationEndToEnd(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.CrossValidation(oracleLearner{}, tk, 2, []measure.Measure{measure.Accuracy})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Test.Rows) != 2 {
		t.Fatalf("expected 2 test rows, got %d", len(result.Test.Rows))
	}
	agg := result.Aggregate("acc.test.mean")
	if agg.State != measure.Present {
		t.Fatalf("expected a present aggregate, got state %s", agg.State)
	}
	if agg.Value != 1 {
		t.Fatalf("an oracle learner should score accuracy 1, got %f", agg.Value)
	}

	// Every row must be predicted exactly once across the two folds.
	seen := make(map[int]int)
	for _, row := range result.Predictions.Rows {
		if row.Set != learner.Test {
			t.Fatalf("unexpected %s prediction", row.Set)
		}
		if row.Iteration < 1 || row.Iteration > 2 {
			t.Fatalf("prediction tagged with iteration %d", row.Iteration)
		}
		seen[row.Row]++
	}
	if len(seen) != 10 {
		t.Fatalf("predictions cover %d distinct rows, want 10", len(seen))
	}
	for row, n := range seen {
		if n != 1 {
			t.Fatalf("row %d predicted %d times", row, n)
		}
	}

	if result.Models != nil {
		t.Fatal("models must be absent unless requested")
	}
	if result.Extracts != nil {
		t.Fatal("extracts must be absent unless an extractor is configured")
	}
	if len(result.ID) == 0 {
		t.Fatal("result should carry a run id")
	}
}

func TestFailingIterationDoesNotAbortTheRun(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.Resample(markerLearner{marker: 2}, tk, fiveIterationInstance(), []measure.Measure{measure.Accuracy})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Test.Rows) != 5 {
		t.Fatalf("expected 5 rows even with a failed iteration, got %d", len(result.Test.Rows))
	}
	if len(result.Errors) != 5 {
		t.Fatalf("expected 5 error rows, got %d", len(result.Errors))
	}

	for i := 0; i < 5; i++ {
		cell := result.Test.Rows[i][0]
		if i == 1 {
			if result.Errors[i].Train == nil {
				t.Fatal("iteration 2 should carry a train-phase failure message")
			}
			if cell.State != measure.Failed {
				t.Fatalf("iteration 2 measure should be failed, got %s", cell.State)
			}
			continue
		}
		if result.Errors[i].Failed() {
			t.Fatalf("iteration %d should not have failed: %v", i+1, result.Errors[i])
		}
		if cell.State != measure.Present {
			t.Fatalf("iteration %d measure should be present, got %s", i+1, cell.State)
		}
	}

	if got := result.FailedIterations(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected iteration 2 to be the only failure, got %v", got)
	}
}

func TestMeanAggregationSkipsFailedCells(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.Resample(markerLearner{marker: 2}, tk, fiveIterationInstance(), []measure.Measure{measure.Accuracy})
	if err != nil {
		t.Fatal(err)
	}

	// The oracle model scores accuracy 1 on the four successful iterations;
	// the failed cell is skipped, not counted as zero.
	var sum float64
	var n int
	for _, cell := range result.Test.Column("acc") {
		if cell.State == measure.Present {
			sum += cell.Value
			n++
		}
	}
	if n != 4 {
		t.Fatalf("expected 4 present cells, got %d", n)
	}
	agg := result.Aggregate("acc.test.mean")
	if agg.State != measure.Present || agg.Value != sum/float64(n) {
		t.Fatalf("aggregate %v does not equal the mean of the present cells %f", agg, sum/float64(n))
	}
}

func TestKeepPredictionsOff(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.CrossValidation(oracleLearner{}, tk, 2, []measure.Measure{measure.RMSE},
		mlr.ResampleKeepPredictions(false))
	if err != nil {
		t.Fatal(err)
	}

	if result.Predictions != nil {
		t.Fatal("predictions should be absent")
	}
	if len(result.Test.Rows) != 2 {
		t.Fatalf("measure tables must stay populated, got %d rows", len(result.Test.Rows))
	}
	// Pooled aggregation merges predictions internally before they are
	// discarded.
	if agg := result.Aggregate("rmse.test.pooled"); agg.State != measure.Present {
		t.Fatalf("pooled aggregate should still be computed, got state %s", agg.State)
	}
}

func TestKeepModels(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.Resample(markerLearner{marker: 2}, tk, fiveIterationInstance(), []measure.Measure{measure.Accuracy},
		mlr.ResampleKeepModels())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Models) != 5 {
		t.Fatalf("expected 5 model handles, got %d", len(result.Models))
	}
	for i, m := range result.Models {
		if i == 1 {
			if m != nil {
				t.Fatal("the failed iteration must hold a nil model")
			}
			continue
		}
		if m == nil {
			t.Fatalf("iteration %d should hold a model", i+1)
		}
	}
}

func TestExtractor(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.Resample(markerLearner{marker: 2}, tk, fiveIterationInstance(), []measure.Measure{measure.Accuracy},
		mlr.ResampleExtract(func(m learner.Model) interface{} {
			return "summary"
		}))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Extracts) != 5 {
		t.Fatalf("expected 5 extracts, got %d", len(result.Extracts))
	}
	for i, x := range result.Extracts {
		if i == 1 {
			// The extractor must not run against a failed fit.
			if x != nil {
				t.Fatal("failed iteration should hold a nil extract")
			}
			continue
		}
		if x != "summary" {
			t.Fatalf("iteration %d extract = %v", i+1, x)
		}
	}
}

func TestPredictOnBoth(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.Resample(oracleLearner{}, tk, mlr.NewCVDescription(2).PredictOn(mlr.PredictBoth), []measure.Measure{measure.MSE})
	if err != nil {
		t.Fatal(err)
	}

	for i := range result.Train.Rows {
		if result.Train.Rows[i][0].State != measure.Present {
			t.Fatalf("iteration %d train measure should be present", i+1)
		}
	}
	if train := result.Predictions.Filter(learner.Train); train.Size() != 10 {
		t.Fatalf("expected 10 train predictions, got %d", train.Size())
	}
}

func TestTrainMeasuresNotApplicableByDefault(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.CrossValidation(oracleLearner{}, tk, 2, []measure.Measure{measure.MSE})
	if err != nil {
		t.Fatal(err)
	}

	for i := range result.Train.Rows {
		if result.Train.Rows[i][0].State != measure.NotApplicable {
			t.Fatalf("iteration %d train measure should be not applicable, got %s", i+1, result.Train.Rows[i][0].State)
		}
	}
}

func TestWeightVectorLengthValidation(t *testing.T) {
	tk := newTask(t, 10)

	_, err := mlr.CrossValidation(oracleLearner{}, tk, 2, []measure.Measure{measure.MSE},
		mlr.ResampleWeights([]float64{1, 2, 3}))
	if !mlr.IsConfiguration(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestInstanceSizeMismatchFailsFast(t *testing.T) {
	tk := newTask(t, 8)

	_, err := mlr.Resample(oracleLearner{}, tk, fiveIterationInstance(), []measure.Measure{measure.MSE})
	if !mlr.IsConfiguration(err) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

// weightLearner fails unless the weights it receives are exactly the task
// weights of its training rows.
type weightLearner struct{}

func (weightLearner) Name() string {
	return "test.weights"
}

func (weightLearner) Fit(t *task.Task, weights []float64) (learner.Model, error) {
	if len(weights) != t.Size() {
		return nil, errors.New("weights were not sliced to the training set")
	}
	for i := range weights {
		if weights[i] != float64(t.RowID(i)) {
			return nil, errors.New("weight does not match its row")
		}
	}
	return oracleModel{}, nil
}

func TestWeightsSlicedPerIteration(t *testing.T) {
	tk := newTask(t, 10)
	weights := make([]float64, 10)
	for i := range weights {
		weights[i] = float64(i)
	}

	result, err := mlr.CrossValidation(weightLearner{}, tk, 5, []measure.Measure{measure.Accuracy},
		mlr.ResampleWeights(weights))
	if err != nil {
		t.Fatal(err)
	}
	if failed := result.FailedIterations(); failed != nil {
		t.Fatalf("weight slicing failed in iterations %v: %v", failed, result.Errors)
	}
}

func TestEmptyTestSetIsCapturedAsFailure(t *testing.T) {
	tk := newTask(t, 3)

	// A bootstrap draw covering every row leaves an empty out-of-bag set.
	in := &mlr.Instance{
		Description: mlr.NewBootstrapDescription(1),
		Size:        3,
		TrainSets:   [][]int{{1, 2, 0}},
		TestSets:    [][]int{{}},
	}

	result, err := mlr.Resample(oracleLearner{}, tk, in, []measure.Measure{measure.Accuracy})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Test.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Test.Rows))
	}
	if result.Errors[0].Train != nil {
		t.Fatal("training on the full draw should succeed")
	}
	if result.Errors[0].Predict == nil {
		t.Fatal("the empty test set should be captured as a prediction failure")
	}
	if result.Test.Rows[0][0].State != measure.Failed {
		t.Fatalf("the test measure should be failed, got %s", result.Test.Rows[0][0].State)
	}
}

func TestEmptyTrainSetIsCapturedAsFailure(t *testing.T) {
	tk := newTask(t, 3)

	in := &mlr.Instance{
		Description: mlr.NewHoldoutDescription(0.5),
		Size:        3,
		TrainSets:   [][]int{{}},
		TestSets:    [][]int{{0, 1, 2}},
	}

	result, err := mlr.Resample(oracleLearner{}, tk, in, []measure.Measure{measure.Accuracy})
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors[0].Train == nil {
		t.Fatal("the empty training set should be captured as a train failure")
	}
	if result.Test.Rows[0][0].State != measure.Failed {
		t.Fatalf("the test measure should be failed, got %s", result.Test.Rows[0][0].State)
	}
}

func TestBootstrapOnTinyTaskCompletes(t *testing.T) {
	tk := newTask(t, 3)

	// On three rows many bootstrap draws cover every row, so some iterations
	// have no out-of-bag rows at all. The run must still complete with one
	// record per iteration.
	in, err := mlr.Instantiate(mlr.NewBootstrapDescription(50), 3,
		mlr.InstanceRand(rand.New(rand.NewSource(3))))
	if err != nil {
		t.Fatal(err)
	}

	result, err := mlr.Resample(oracleLearner{}, tk, in, []measure.Measure{measure.MSE})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Test.Rows) != 50 {
		t.Fatalf("expected 50 rows, got %d", len(result.Test.Rows))
	}

	empty := 0
	for i, test := range in.TestSets {
		if len(test) > 0 {
			if result.Errors[i].Failed() {
				t.Fatalf("iteration %d should not have failed: %v", i+1, result.Errors[i])
			}
			continue
		}
		empty++
		if result.Errors[i].Predict == nil {
			t.Fatalf("iteration %d has no test rows but no captured failure", i+1)
		}
		if result.Test.Rows[i][0].State != measure.Failed {
			t.Fatalf("iteration %d test measure should be failed, got %s", i+1, result.Test.Rows[i][0].State)
		}
	}
	if empty == 0 {
		t.Fatal("expected at least one empty out-of-bag set in 50 draws over 3 rows")
	}
}

// panickyLearner panics instead of returning an error.
type panickyLearner struct{}

func (panickyLearner) Name() string {
	return "test.panic"
}

func (panickyLearner) Fit(t *task.Task, weights []float64) (learner.Model, error) {
	panic("numerical meltdown")
}

func TestPanickingLearnerIsCaptured(t *testing.T) {
	tk := newTask(t, 10)

	result, err := mlr.CrossValidation(panickyLearner{}, tk, 2, []measure.Measure{measure.Accuracy})
	if err != nil {
		t.Fatal(err)
	}

	for i, f := range result.Errors {
		if f.Train == nil {
			t.Fatalf("iteration %d should carry a captured panic", i+1)
		}
	}
	if agg := result.Aggregate("acc.test.mean"); agg.State != measure.Failed {
		t.Fatalf("aggregating only failed cells should fail, got state %s", agg.State)
	}
}
