// Package eval computes rank-cutoff effectiveness measures for TREC runs and averages
// them over topics.
package eval

import (
	"math"
	"sort"

	"github.com/hscells/trecresults"
	"gonum.org/v1/gonum/stat"
)

// Evaluator is an interface for evaluating a retrieved list of documents.
type Evaluator interface {
	Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64
	Name() string
}

// Evaluate scores every topic of the run using the supplied evaluation measurements.
// Topics missing from the qrels are scored against an empty set of judgments. Results
// are ordered by their rank before scoring.
func Evaluate(evaluators []Evaluator, run trecresults.ResultFile, qrels trecresults.QrelsFile) map[string]map[string]float64 {
	scores := make(map[string]map[string]float64, len(run.Results))
	for topic, results := range run.Results {
		ranked := byRank(results)
		q := qrels.Qrels[topic]
		if q == nil {
			q = trecresults.Qrels{}
		}
		scores[topic] = make(map[string]float64, len(evaluators))
		for _, evaluator := range evaluators {
			scores[topic][evaluator.Name()] = evaluator.Score(&ranked, q)
		}
	}
	return scores
}

// Summarise macro averages each measure over topics. Undefined (NaN) values are left
// out of the average; a measure undefined for every topic averages to NaN.
func Summarise(perTopic map[string]map[string]float64) map[string]float64 {
	values := make(map[string][]float64)
	for _, measures := range perTopic {
		for name, v := range measures {
			if _, ok := values[name]; !ok {
				values[name] = []float64{}
			}
			if math.IsNaN(v) {
				continue
			}
			values[name] = append(values[name], v)
		}
	}
	avgs := make(map[string]float64, len(values))
	for name, v := range values {
		if len(v) == 0 {
			avgs[name] = math.NaN()
			continue
		}
		avgs[name] = stat.Mean(v, nil)
	}
	return avgs
}

func byRank(results trecresults.ResultList) trecresults.ResultList {
	ranked := make(trecresults.ResultList, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank < ranked[j].Rank
	})
	return ranked
}

// top is the first k results.
func top(results *trecresults.ResultList, k int) trecresults.ResultList {
	if k > len(*results) {
		k = len(*results)
	}
	return (*results)[:k]
}

func relevant(qrels trecresults.Qrels, docID string, grade int64) bool {
	qrel, ok := qrels[docID]
	return ok && qrel.Score >= grade
}
