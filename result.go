package mlr

import (
	"time"

	"github.com/google/uuid"

	"github.com/mikimaus78/mlr/learner"
	"github.com/mikimaus78/mlr/measure"
)

// Table is a per-iteration grid of measure cells: one row per iteration, one
// column per measure.
type Table struct {
	Iterations []int            `json:"iterations"`
	Columns    []string         `json:"columns"`
	Rows       [][]measure.Cell `json:"rows"`
}

// Column returns the cells of the named measure in iteration order, or nil
// when the table holds no such column.
func (t *Table) Column(name string) []measure.Cell {
	for j, c := range t.Columns {
		if c == name {
			column := make([]measure.Cell, len(t.Rows))
			for i, row := range t.Rows {
				column[i] = row[j]
			}
			return column
		}
	}
	return nil
}

// Result is the complete report of one resampling run. It is constructed once
// when the run finishes and read-only afterwards. Every table has exactly one
// row per iteration, failed iterations included; failures show up as failed
// cells and filled error slots rather than missing rows.
type Result struct {
	ID         string                  `json:"id"`
	Learner    string                  `json:"learner"`
	Task       string                  `json:"task"`
	Resampling string                  `json:"resampling"`
	Measures   []string                `json:"measures"`
	Test       *Table                  `json:"test"`
	Train      *Table                  `json:"train"`
	Aggregates map[string]measure.Cell `json:"aggregates"`
	// Predictions holds the merged train and test predictions of all
	// iterations, each row tagged with its iteration and original dataset
	// row. Nil when predictions were not kept.
	Predictions *learner.Prediction `json:"predictions,omitempty"`
	// Models holds one fitted model per iteration, nil entries marking failed
	// fits. The slice itself is nil unless models were requested.
	Models []learner.Model `json:"-"`
	// Extracts holds one extracted summary per iteration. The slice is nil
	// unless an extractor was configured, so "no extractor" and "extractor
	// returned nothing" stay distinguishable.
	Extracts []interface{} `json:"-"`
	Errors   []Failure     `json:"errors"`
	Runtime  time.Duration `json:"runtime"`
}

// Aggregate returns the aggregated cell of the named measure, keyed by the
// measure id plus its aggregation suffix, e.g. "mse.test.mean".
func (r *Result) Aggregate(name string) measure.Cell {
	if c, ok := r.Aggregates[name]; ok {
		return c
	}
	return measure.NA
}

// FailedIterations returns the 1-based indices of iterations with a captured
// failure.
func (r *Result) FailedIterations() []int {
	var failed []int
	for i, f := range r.Errors {
		if f.Failed() {
			failed = append(failed, i+1)
		}
	}
	return failed
}

// merge combines the ordered per-iteration records into a single result:
// stacked measure tables, one aggregate per measure via that measure's own
// aggregation rule, merged predictions, the error table, and any requested
// models and extracts.
func merge(learnerID, taskID string, records []record, measures []measure.Measure, in *Instance, keepModels, hasExtract, keepPredictions bool, runtime time.Duration) *Result {
	columns := make([]string, len(measures))
	for i, m := range measures {
		columns[i] = m.Name()
	}

	res := &Result{
		ID:         uuid.New().String(),
		Learner:    learnerID,
		Task:       taskID,
		Resampling: in.Description.String(),
		Measures:   columns,
		Test:       &Table{Columns: columns},
		Train:      &Table{Columns: columns},
		Aggregates: make(map[string]measure.Cell),
		Errors:     make([]Failure, len(records)),
		Runtime:    runtime,
	}

	merged := &learner.Prediction{}
	for i, rec := range records {
		res.Test.Iterations = append(res.Test.Iterations, rec.iteration)
		res.Train.Iterations = append(res.Train.Iterations, rec.iteration)
		res.Test.Rows = append(res.Test.Rows, rec.test)
		res.Train.Rows = append(res.Train.Rows, rec.train)
		res.Errors[i] = rec.failure
		if rec.testPred != nil {
			merged.Rows = append(merged.Rows, rec.testPred.Rows...)
		}
	}
	// Train predictions follow the test predictions of all iterations, each
	// block preserving its iteration's row order.
	for _, rec := range records {
		if rec.trainPred != nil {
			merged.Rows = append(merged.Rows, rec.trainPred.Rows...)
		}
	}

	for _, m := range measures {
		name := m.Name() + "." + m.Aggregation()
		res.Aggregates[name] = m.Aggregate(res.Test.Column(m.Name()), res.Train.Column(m.Name()), in.Groups, merged)
	}

	if keepPredictions {
		res.Predictions = merged
	}
	if keepModels {
		res.Models = make([]learner.Model, len(records))
		for i, rec := range records {
			res.Models[i] = rec.model
		}
	}
	if hasExtract {
		res.Extracts = make([]interface{}, len(records))
		for i, rec := range records {
			res.Extracts[i] = rec.extract
		}
	}

	return res
}
