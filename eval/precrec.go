package eval

import (
	"fmt"

	"github.com/hscells/trecresults"
)

// PrecisionAtK is the fraction of the top K results that are relevant. When fewer than
// K documents were retrieved the denominator is the number retrieved, unless OverK is
// set, in which case it is always K as in trec_eval.
type PrecisionAtK struct {
	K     int
	Grade int64
	OverK bool
}

// RecallAtK is the fraction of the relevant documents found in the top K results.
// Recall is undefined (NaN) for a topic without relevant documents unless ZeroAsZero
// is set, in which case it is 0.
type RecallAtK struct {
	K          int
	Grade      int64
	ZeroAsZero bool
}

// NumRel is the number of relevant documents.
type NumRel struct{ Grade int64 }

// NumRelRet is the number of relevant documents retrieved.
type NumRelRet struct{ Grade int64 }

type numRet struct{}

// NumRet is the number of retrieved documents.
var NumRet = numRet{}

func (p PrecisionAtK) Name() string {
	return fmt.Sprintf("P@%d", p.K)
}

func (p PrecisionAtK) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	if p.K <= 0 {
		return 0
	}
	cut := top(results, p.K)
	n := len(cut)
	if p.OverK {
		n = p.K
	}
	if n == 0 {
		return 0
	}
	return NumRelRet{Grade: p.Grade}.Score(&cut, qrels) / float64(n)
}

func (r RecallAtK) Name() string {
	return fmt.Sprintf("R@%d", r.K)
}

func (r RecallAtK) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	numRel := NumRel{Grade: r.Grade}.Score(results, qrels)
	if numRel == 0 {
		if r.ZeroAsZero {
			return 0
		}
		return nan
	}
	cut := top(results, r.K)
	return NumRelRet{Grade: r.Grade}.Score(&cut, qrels) / numRel
}

func (n NumRel) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	c := 0.0
	for _, qrel := range qrels {
		if qrel.Score >= n.Grade {
			c++
		}
	}
	return c
}

func (NumRel) Name() string {
	return "NumRel"
}

func (numRet) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	return float64(len(*results))
}

func (numRet) Name() string {
	return "NumRet"
}

func (n NumRelRet) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	c := 0.0
	for _, result := range *results {
		if relevant(qrels, result.DocId, n.Grade) {
			c++
		}
	}
	return c
}

func (NumRelRet) Name() string {
	return "NumRelRet"
}
