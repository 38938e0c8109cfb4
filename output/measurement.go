package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strconv"
)

// MeasurementFormatter outputs per-topic measurements in various formats. data[i][j] is
// the value of measure headers[i] for topics[j].
type MeasurementFormatter func(topics, headers []string, data [][]float64) (string, error)

// JsonMeasurementFormatter outputs results in a JSON format.
func JsonMeasurementFormatter(topics, headers []string, data [][]float64) (string, error) {
	m := map[string]map[string]*float64{}
	for j, topic := range topics {
		m[topic] = map[string]*float64{}
		for i, header := range headers {
			m[topic][header] = defined(data[i][j])
		}
	}

	v, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvMeasurementFormatter outputs results in CSV format. Undefined values are empty.
func CsvMeasurementFormatter(topics, headers []string, data [][]float64) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	h := []string{"Topic"}
	h = append(h, headers...)
	if err := w.Write(h); err != nil {
		return "", err
	}
	for j, topic := range topics {
		record := make([]string, len(data)+1)
		record[0] = topic
		for i := range data {
			if !math.IsNaN(data[i][j]) {
				record[i+1] = strconv.FormatFloat(data[i][j], 'f', -1, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
