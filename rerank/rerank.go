// Package rerank reorders lexical candidates with a pairwise relevance scorer such as a
// cross-encoder.
package rerank

import (
	"context"
	"math"
	"sort"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/pkg/errors"
)

// Pair is a query and the text of one document, scored jointly.
type Pair struct {
	Query    string
	Document string
}

// Scorer scores (query, document) pairs. It must return one score per pair, in order.
type Scorer interface {
	ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, pairs []Pair) ([]float64, error)

// ScoreBatch calls f.
func (f ScorerFunc) ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	return f(ctx, pairs)
}

// Candidate is a lexical candidate with the score assigned by the reranker.
type Candidate struct {
	index.Candidate
	RerankScore float64
}

// DocumentText is the text a document is scored on: "title. text" when both are
// present, otherwise whichever one is, otherwise the empty string.
func DocumentText(title, text string) string {
	switch {
	case len(title) > 0 && len(text) > 0:
		return title + ". " + text
	case len(title) > 0:
		return title
	}
	return text
}

// Pairs builds the scorer input for query in candidate order.
func Pairs(query string, candidates []index.Candidate) []Pair {
	pairs := make([]Pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = Pair{Query: query, Document: DocumentText(c.Title, c.Text)}
	}
	return pairs
}

// Reranker scores candidates in fixed size batches and sorts them by the new score.
type Reranker struct {
	scorer    Scorer
	batchSize int
}

// NewReranker creates a reranker. A non-positive batch size uses sieve.DefaultBatchSize.
func NewReranker(scorer Scorer, batchSize int) *Reranker {
	if batchSize <= 0 {
		batchSize = sieve.DefaultBatchSize
	}
	return &Reranker{scorer: scorer, batchSize: batchSize}
}

// Rerank returns the candidates ordered by descending rerank score. Equal scores keep
// their input order, and the result does not depend on the batch size.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []index.Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return []Candidate{}, nil
	}

	pairs := Pairs(query, candidates)
	scores := make([]float64, 0, len(pairs))
	for i := 0; i < len(pairs); i += r.batchSize {
		j := min(i+r.batchSize, len(pairs))
		batch, err := r.scorer.ScoreBatch(ctx, pairs[i:j])
		if err != nil {
			return nil, err
		}
		if len(batch) != j-i {
			return nil, errors.Errorf("scorer returned %d scores for %d pairs", len(batch), j-i)
		}
		scores = append(scores, batch...)
	}

	reranked := make([]Candidate, len(candidates))
	for i, c := range candidates {
		if math.IsNaN(scores[i]) {
			return nil, errors.Errorf("scorer returned NaN for document %s", c.ID)
		}
		reranked[i] = Candidate{Candidate: c, RerankScore: scores[i]}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})
	return reranked, nil
}
