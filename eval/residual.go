package eval

import (
	"fmt"

	"github.com/hscells/trecresults"
)

// ResidualEvaluator evaluates using an evaluator in the same manner, however
// it considers all unjudged retrieved documents as relevant at Grade. It gives an
// upper bound to go with the default reading of unjudged documents as not relevant.
type ResidualEvaluator struct {
	Evaluator
	Grade int64
}

// Residual is the set of judgments extended with the unjudged documents that were
// retrieved, labelled relevant.
func (r ResidualEvaluator) Residual(results *trecresults.ResultList, qrels trecresults.Qrels) trecresults.Qrels {
	// Create a copy of the qrels to return.
	unjudged := make(trecresults.Qrels, len(qrels))
	for k, v := range qrels {
		unjudged[k] = v
	}
	for _, result := range *results {
		d := result.DocId
		if _, ok := unjudged[d]; !ok {
			unjudged[d] = &trecresults.Qrel{
				Topic:     result.Topic,
				Iteration: "0",
				DocId:     d,
				Score:     r.Grade,
			}
		}
	}
	return unjudged
}

func (r ResidualEvaluator) Name() string {
	return fmt.Sprintf("%s%s", "Residual", r.Evaluator.Name())
}

func (r ResidualEvaluator) Score(results *trecresults.ResultList, qrels trecresults.Qrels) float64 {
	return r.Evaluator.Score(results, r.Residual(results, qrels))
}

// NewResidualEvaluator creates a new evaluator which wraps an existing evaluator.
func NewResidualEvaluator(evaluator Evaluator, grade int64) ResidualEvaluator {
	return ResidualEvaluator{
		Evaluator: evaluator,
		Grade:     grade,
	}
}
