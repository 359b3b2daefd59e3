package task

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FromCSV reads a task from CSV data with a header row. The named target
// column becomes the target vector; every other column must be numeric and
// becomes a feature. Non-numeric target values are mapped to integer class
// labels in order of first appearance.
func FromCSV(name string, r io.Reader, target string, options ...func(*Task)) (*Task, error) {
	c := csv.NewReader(r)
	records, err := c.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv")
	}
	if len(records) < 2 {
		return nil, errors.New("csv must contain a header row and at least one data row")
	}

	header := records[0]
	targetCol := -1
	for i, h := range header {
		if h == target {
			targetCol = i
		}
	}
	if targetCol < 0 {
		return nil, errors.Errorf("no column named %s in csv header", target)
	}
	if len(header) < 2 {
		return nil, errors.New("csv has no feature columns besides the target")
	}

	var (
		n      = len(records) - 1
		f      = len(header) - 1
		x      = mat.NewDense(n, f, nil)
		y      = make([]float64, n)
		labels = make(map[string]float64)
	)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.Errorf("row %d has %d fields, header has %d", i+1, len(record), len(header))
		}
		j := 0
		for k, field := range record {
			if k == targetCol {
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					// Treat a non-numeric target as a class label.
					l, ok := labels[field]
					if !ok {
						l = float64(len(labels))
						labels[field] = l
					}
					v = l
				}
				y[i] = v
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %s is not numeric", i+1, header[k])
			}
			x.Set(i, j, v)
			j++
		}
	}

	return New(name, x, y, options...)
}
