// Package measure provides performance measures for resampled predictions.
// A measure bundles its identifier, how a scalar is computed from one set of
// predictions, and how per-iteration scalars are aggregated into a single
// summary value.
package measure

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mikimaus78/mlr/learner"
)

// State records how a measure cell came to hold, or not hold, a value.
type State uint8

const (
	// Present means the value was computed.
	Present State = iota
	// NotApplicable means the value was never requested, for example a train
	// measure when only test-set prediction was configured.
	NotApplicable
	// Failed means computation was attempted and failed, for example because
	// the iteration's model could not be trained.
	Failed
)

func (s State) String() string {
	switch s {
	case Present:
		return "present"
	case NotApplicable:
		return "na"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Cell is a three-state measure value. The states keep "not requested",
// "failed to compute" and a genuine numeric result distinguishable; Value is
// only meaningful when State is Present.
type Cell struct {
	Value float64
	State State
}

// Val creates a present cell.
func Val(v float64) Cell {
	return Cell{Value: v}
}

// NA is the cell of a measure that was not requested.
var NA = Cell{State: NotApplicable}

// Fail is the cell of a measure whose computation failed.
var Fail = Cell{State: Failed}

type cellJSON struct {
	State string   `json:"state"`
	Value *float64 `json:"value,omitempty"`
}

// MarshalJSON encodes the cell state explicitly so that NaN never reaches the
// encoder and absent values are not confused with zeroes.
func (c Cell) MarshalJSON() ([]byte, error) {
	j := cellJSON{State: c.State.String()}
	if c.State == Present {
		v := c.Value
		j.Value = &v
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a cell written by MarshalJSON.
func (c *Cell) UnmarshalJSON(b []byte) error {
	var j cellJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	switch j.State {
	case "present":
		if j.Value == nil {
			return errors.New("present cell without a value")
		}
		*c = Cell{Value: *j.Value}
	case "na":
		*c = NA
	case "failed":
		*c = Fail
	default:
		return errors.Errorf("unknown cell state %q", j.State)
	}
	return nil
}

// Measure computes a scalar performance value from predictions and knows how
// to aggregate per-iteration values into one summary. Aggregate receives the
// full test and train columns, the task's grouping vector (nil when absent),
// and the merged predictions of the whole run, so that implementations are
// free to average fold values, recompute a pooled statistic over all
// predictions, or aggregate within groups.
type Measure interface {
	// Name is the stable identifier of the measure; it names result columns.
	Name() string
	// Compute calculates the measure over one set of predictions.
	Compute(p *learner.Prediction) (float64, error)
	// Aggregation names the aggregation rule, e.g. "test.mean".
	Aggregation() string
	// Aggregate combines per-iteration values into one summary cell.
	Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell
}

// AggregationFunc is the signature of an aggregation rule.
type AggregationFunc func(test, train []Cell, groups []string, merged *learner.Prediction) Cell

type aggregated struct {
	Measure
	name string
	agg  AggregationFunc
}

func (a aggregated) Aggregation() string {
	return a.name
}

func (a aggregated) Aggregate(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return a.agg(test, train, groups, merged)
}

// WithAggregation returns a copy of a measure with its aggregation rule
// replaced. The computation and identifier are unchanged.
func WithAggregation(m Measure, name string, agg AggregationFunc) Measure {
	return aggregated{Measure: m, name: name, agg: agg}
}
