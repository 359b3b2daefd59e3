package measure_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/mikimaus78/mlr/learner"
	"github.com/mikimaus78/mlr/measure"
)

func prediction(set learner.Set, pairs ...float64) *learner.Prediction {
	p := &learner.Prediction{}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Rows = append(p.Rows, learner.Row{
			Row:      i / 2,
			Truth:    pairs[i],
			Response: pairs[i+1],
			Set:      set,
		})
	}
	return p
}

func TestMSECompute(t *testing.T) {
	p := prediction(learner.Test, 1, 2, 3, 3, 0, -2)
	v, err := measure.MSE.Compute(p)
	if err != nil {
		t.Fatal(err)
	}
	if v != (1.0+0.0+4.0)/3.0 {
		t.Fatalf("unexpected mse %f", v)
	}
}

func TestAccuracyCompute(t *testing.T) {
	p := prediction(learner.Test, 1, 1, 0, 1, 1, 1, 0, 0)
	v, err := measure.Accuracy.Compute(p)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0.75 {
		t.Fatalf("unexpected accuracy %f", v)
	}

	m, err := measure.MMCE.Compute(p)
	if err != nil {
		t.Fatal(err)
	}
	if m != 0.25 {
		t.Fatalf("unexpected mmce %f", m)
	}
}

func TestComputeOnEmptyPredictionFails(t *testing.T) {
	if _, err := measure.MSE.Compute(&learner.Prediction{}); err == nil {
		t.Fatal("expected an error for empty predictions")
	}
}

func TestMeanAggregationThreeStates(t *testing.T) {
	mixed := []measure.Cell{measure.Val(1), measure.Fail, measure.Val(3)}
	if agg := measure.MeanTest(mixed, nil, nil, nil); agg.State != measure.Present || agg.Value != 2 {
		t.Fatalf("mixed column should average the present cells, got %v", agg)
	}

	failed := []measure.Cell{measure.Fail, measure.Fail}
	if agg := measure.MeanTest(failed, nil, nil, nil); agg.State != measure.Failed {
		t.Fatalf("all-failed column should aggregate to failed, got %v", agg)
	}

	na := []measure.Cell{measure.NA, measure.NA}
	if agg := measure.MeanTest(na, nil, nil, nil); agg.State != measure.NotApplicable {
		t.Fatalf("never-requested column should aggregate to not applicable, got %v", agg)
	}
}

func TestMeanTestTrainJointAggregation(t *testing.T) {
	test := []measure.Cell{measure.Val(1), measure.Val(2)}
	train := []measure.Cell{measure.Val(3), measure.Fail}
	if agg := measure.MeanTestTrain(test, train, nil, nil); agg.Value != 2 {
		t.Fatalf("joint mean should be 2, got %v", agg)
	}
}

func TestPooledRMSEDiffersFromFoldMean(t *testing.T) {
	// Fold one has errors {0,0}, fold two has errors {2,2}: the mean of
	// per-fold rmse values is 1, the pooled rmse is sqrt(2).
	merged := &learner.Prediction{}
	merged.Rows = append(merged.Rows, prediction(learner.Test, 1, 1, 2, 2).Rows...)
	merged.Rows = append(merged.Rows, prediction(learner.Test, 1, 3, 2, 4).Rows...)

	agg := measure.RMSE.Aggregate(nil, nil, nil, merged)
	if agg.State != measure.Present {
		t.Fatalf("expected a present aggregate, got %v", agg)
	}
	if math.Abs(agg.Value-math.Sqrt(2)) > 1e-12 {
		t.Fatalf("pooled rmse should be sqrt(2), got %f", agg.Value)
	}
}

func TestGroupMeanAggregation(t *testing.T) {
	// Group a is perfectly predicted, group b is off by two everywhere. The
	// grouped mean weights both groups equally although b has twice the rows.
	groups := []string{"a", "a", "b", "b", "b", "b"}
	merged := &learner.Prediction{Rows: []learner.Row{
		{Row: 0, Truth: 1, Response: 1, Set: learner.Test},
		{Row: 1, Truth: 2, Response: 2, Set: learner.Test},
		{Row: 2, Truth: 1, Response: 3, Set: learner.Test},
		{Row: 3, Truth: 1, Response: 3, Set: learner.Test},
		{Row: 4, Truth: 2, Response: 4, Set: learner.Test},
		{Row: 5, Truth: 2, Response: 4, Set: learner.Test},
	}}

	agg := measure.GroupMeanTest(measure.MSE)(nil, nil, groups, merged)
	if agg.State != measure.Present {
		t.Fatalf("expected a present aggregate, got %v", agg)
	}
	if agg.Value != 2 {
		t.Fatalf("grouped mse should be (0+4)/2 = 2, got %f", agg.Value)
	}
}

func TestWithAggregation(t *testing.T) {
	m := measure.WithAggregation(measure.MSE, "testtrain.mean", measure.MeanTestTrain)
	if m.Name() != "mse" {
		t.Fatalf("wrapping must not change the measure name, got %s", m.Name())
	}
	if m.Aggregation() != "testtrain.mean" {
		t.Fatalf("unexpected aggregation name %s", m.Aggregation())
	}

	test := []measure.Cell{measure.Val(2)}
	train := []measure.Cell{measure.Val(4)}
	if agg := m.Aggregate(test, train, nil, nil); agg.Value != 3 {
		t.Fatalf("expected joint mean 3, got %v", agg)
	}
}

func TestCellJSONRoundTrip(t *testing.T) {
	for _, cell := range []measure.Cell{measure.Val(1.25), measure.NA, measure.Fail} {
		b, err := json.Marshal(cell)
		if err != nil {
			t.Fatal(err)
		}
		var back measure.Cell
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatal(err)
		}
		if back != cell {
			t.Fatalf("cell %v round-tripped to %v via %s", cell, back, b)
		}
	}
}

func TestCellStatesStayDistinguishable(t *testing.T) {
	na, _ := json.Marshal(measure.NA)
	failed, _ := json.Marshal(measure.Fail)
	zero, _ := json.Marshal(measure.Val(0))
	if string(na) == string(failed) || string(na) == string(zero) || string(failed) == string(zero) {
		t.Fatalf("states must encode distinctly: %s / %s / %s", na, failed, zero)
	}
}
