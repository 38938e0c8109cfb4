// Package retrieval turns queries into ranked candidate lists.
package retrieval

import (
	"context"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/hscells/sieve/query"
)

// Searcher ranks documents for a text query. *index.CorpusIndex is a Searcher.
type Searcher interface {
	Search(ctx context.Context, text string, topK int) ([]index.Candidate, error)
}

// Retriever issues each query against a Searcher with a fixed depth.
type Retriever struct {
	searcher Searcher
	topK     int
}

// NewRetriever creates a retriever returning topK candidates per query, or
// sieve.DefaultTopK when topK is not positive.
func NewRetriever(searcher Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = sieve.DefaultTopK
	}
	return &Retriever{searcher: searcher, topK: topK}
}

// TopK is the number of candidates requested per query.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns the lexical candidates for q, best first.
func (r *Retriever) Retrieve(ctx context.Context, q query.Query) ([]index.Candidate, error) {
	return r.searcher.Search(ctx, q.Text, r.topK)
}
