package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/hscells/trecresults"
)

var nan = math.NaN()

// AveragePrecisionAtK sums the precision at each relevant rank up to K and divides by
// min(K, number of relevant documents). It is 0 when there are no relevant documents.
type AveragePrecisionAtK struct {
	K     int
	Grade int64
}

// ReciprocalRankAtK is 1/rank of the first relevant document within the top K, or 0.
type ReciprocalRankAtK struct {
	K     int
	Grade int64
}

// DCG is discounted cumulative gain over graded judgments. A zero K means no cutoff.
type DCG struct{ K int }

// NDCGAtK is DCG normalised by the DCG of an ideal ranking of the judgments.
type NDCGAtK struct{ K int }

func (e AveragePrecisionAtK) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	R := NumRel{Grade: e.Grade}.Score(results, qrels)
	if R == 0 || e.K <= 0 {
		return 0
	}
	var sum, found float64
	for i, res := range top(results, e.K) {
		if relevant(qrels, res.DocId, e.Grade) {
			found++
			sum += found / float64(i+1)
		}
	}
	return sum / math.Min(float64(e.K), R)
}

func (e AveragePrecisionAtK) Name() string {
	return fmt.Sprintf("MAP@%d", e.K)
}

func (e ReciprocalRankAtK) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	for i, res := range top(results, e.K) {
		if relevant(qrels, res.DocId, e.Grade) {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func (e ReciprocalRankAtK) Name() string {
	return fmt.Sprintf("MRR@%d", e.K)
}

func (e DCG) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	var score float64
	for i, item := range *results {
		// Compute DCG at a cutoff.
		if e.K != 0 && i >= e.K {
			break
		}
		if qrel, ok := qrels[item.DocId]; ok && qrel.Score > 0 {
			score += float64(qrel.Score) / math.Log2(float64(i)+2)
		}
	}
	return score
}

func (e DCG) Name() string {
	if e.K > 0 {
		return fmt.Sprintf("DCG@%d", e.K)
	}
	return "DCG"
}

func (e NDCGAtK) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	// Compute ideal discounted cumulative gain.
	ideal := make(trecresults.ResultList, 0, len(qrels))
	for _, rel := range qrels {
		ideal = append(ideal, &trecresults.Result{
			Topic: rel.Topic,
			DocId: rel.DocId,
			Score: float64(rel.Score),
		})
	}
	sort.Slice(ideal, func(i, j int) bool {
		if ideal[i].Score != ideal[j].Score {
			return ideal[i].Score > ideal[j].Score
		}
		return ideal[i].DocId < ideal[j].DocId
	})

	idcg := DCG{K: e.K}.Score(&ideal, qrels)
	if idcg == 0 {
		return 0
	}
	return DCG{K: e.K}.Score(results, qrels) / idcg
}

func (e NDCGAtK) Name() string {
	if e.K > 0 {
		return fmt.Sprintf("nDCG@%d", e.K)
	}
	return "nDCG"
}
