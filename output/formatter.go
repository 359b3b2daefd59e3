// Package output provides different formats of output for resample results,
// and a persistent store for archiving them.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mikimaus78/mlr"
	"github.com/mikimaus78/mlr/measure"
)

// ResultFormatter renders a resample result into some textual format.
type ResultFormatter func(*mlr.Result) (string, error)

// JSONResultFormatter outputs the whole result in an indented JSON format.
func JSONResultFormatter(r *mlr.Result) (string, error) {
	v, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func formatCell(cell measure.Cell) string {
	if cell.State == measure.Present {
		return strconv.FormatFloat(cell.Value, 'f', -1, 64)
	}
	// Cells without a value are written as their state name, so "na" and
	// "failed" stay distinguishable from numbers and from each other.
	return cell.State.String()
}

// CSVTableFormatter outputs one measure table in CSV format, one row per
// iteration.
func CSVTableFormatter(t *mlr.Table) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)

	h := []string{"iter"}
	h = append(h, t.Columns...)
	if err := w.Write(h); err != nil {
		return "", err
	}
	for i, row := range t.Rows {
		record := make([]string, len(row)+1)
		record[0] = strconv.Itoa(t.Iterations[i])
		for j, cell := range row {
			record[j+1] = formatCell(cell)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

// CSVAggregateFormatter outputs the aggregated measures in CSV format, in
// measure order.
func CSVAggregateFormatter(r *mlr.Result) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)

	if err := w.Write([]string{"aggregate", "value"}); err != nil {
		return "", err
	}
	for _, m := range r.Measures {
		for name, cell := range r.Aggregates {
			if !strings.HasPrefix(name, m+".") {
				continue
			}
			if err := w.Write([]string{name, formatCell(cell)}); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
