// Package output reads and writes run files and formats evaluation reports.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// EvaluationFormatter formats the summary measures of a run, in the order of names.
type EvaluationFormatter func(names []string, measures map[string]float64) (string, error)

// JsonEvaluationFormatter outputs results in a JSON format. Undefined measures are null.
func JsonEvaluationFormatter(names []string, measures map[string]float64) (string, error) {
	m := make(map[string]*float64, len(names))
	for _, name := range names {
		m[name] = defined(measures[name])
	}
	v, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// TextEvaluationFormatter outputs one `name all value` line per measure, as trec_eval does.
func TextEvaluationFormatter(names []string, measures map[string]float64) (string, error) {
	b := new(bytes.Buffer)
	for _, name := range names {
		fmt.Fprintf(b, "%-10s\tall\t%.4f\n", name, measures[name])
	}
	return b.String(), nil
}

func defined(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
