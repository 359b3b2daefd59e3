package measure

import (
	"sort"

	"github.com/mikimaus78/mlr/learner"
)

// meanCells averages the present cells of a column. Failed cells are skipped
// rather than silently treated as zero; a column with no present cell at all
// aggregates to a failed cell, unless nothing was ever requested, in which
// case it stays not applicable.
func meanCells(columns ...[]Cell) Cell {
	var (
		sum      float64
		n        int
		anyAsked bool
	)
	for _, column := range columns {
		for _, c := range column {
			switch c.State {
			case Present:
				sum += c.Value
				n++
				anyAsked = true
			case Failed:
				anyAsked = true
			}
		}
	}
	if n == 0 {
		if anyAsked {
			return Fail
		}
		return NA
	}
	return Val(sum / float64(n))
}

// MeanTest averages the per-iteration test values.
func MeanTest(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return meanCells(test)
}

// MeanTrain averages the per-iteration train values.
func MeanTrain(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return meanCells(train)
}

// MeanTestTrain jointly averages the per-iteration train and test values.
func MeanTestTrain(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
	return meanCells(test, train)
}

// Pooled recomputes a measure over the concatenated test predictions of all
// iterations, rather than averaging per-iteration values. Measures whose
// value does not decompose over folds (for example anything involving a
// square root or a global count) aggregate this way.
func Pooled(m Measure) AggregationFunc {
	return func(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
		p := merged.Filter(learner.Test)
		if p.Size() == 0 {
			return Fail
		}
		v, err := m.Compute(p)
		if err != nil {
			return Fail
		}
		return Val(v)
	}
}

// GroupMeanTest recomputes a measure per group over the merged test
// predictions and averages the group values, so that every group contributes
// equally regardless of its size. Rows without a grouping vector fall back to
// the pooled value.
func GroupMeanTest(m Measure) AggregationFunc {
	return func(test, train []Cell, groups []string, merged *learner.Prediction) Cell {
		p := merged.Filter(learner.Test)
		if p.Size() == 0 {
			return Fail
		}
		if groups == nil {
			return Pooled(m)(test, train, groups, merged)
		}

		byGroup := make(map[string]*learner.Prediction)
		for _, r := range p.Rows {
			g := groups[r.Row]
			if byGroup[g] == nil {
				byGroup[g] = &learner.Prediction{}
			}
			byGroup[g].Rows = append(byGroup[g].Rows, r)
		}

		// Iterate groups in a stable order so failures are deterministic.
		names := make([]string, 0, len(byGroup))
		for g := range byGroup {
			names = append(names, g)
		}
		sort.Strings(names)

		var sum float64
		for _, g := range names {
			v, err := m.Compute(byGroup[g])
			if err != nil {
				return Fail
			}
			sum += v
		}
		return Val(sum / float64(len(names)))
	}
}
