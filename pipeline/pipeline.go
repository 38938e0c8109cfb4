// Package pipeline builds TREC run files from a batch of queries.
package pipeline

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"

	"github.com/cheggaaa/pb/v3"
	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/hscells/sieve/output"
	"github.com/hscells/sieve/query"
	"github.com/hscells/sieve/rerank"
	"github.com/hscells/trecresults"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Retriever produces the lexical candidates of a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, q query.Query) ([]index.Candidate, error)
}

// Reranker reorders the candidates of a query.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []index.Candidate) ([]rerank.Candidate, error)
}

// RunBuilder runs every query of a batch and writes one ranked list per query.
type RunBuilder struct {
	retriever Retriever
	reranker  Reranker
	runName   string
	progress  io.Writer
	logger    *zap.Logger
}

// Rerank reorders each lexical list with r before it is written.
func Rerank(r Reranker) func(*RunBuilder) {
	return func(b *RunBuilder) {
		b.reranker = r
		return
	}
}

// RunName sets the last column of every run line.
func RunName(name string) func(*RunBuilder) {
	return func(b *RunBuilder) {
		b.runName = name
		return
	}
}

// Progress draws a progress bar on w.
func Progress(w io.Writer) func(*RunBuilder) {
	return func(b *RunBuilder) {
		b.progress = w
		return
	}
}

// Logger sets the logger.
func Logger(logger *zap.Logger) func(*RunBuilder) {
	return func(b *RunBuilder) {
		b.logger = logger
		return
	}
}

// NewRunBuilder creates a run builder. Without a run name, lexical runs are named
// sieve.DefaultLexicalRunName and reranked runs sieve.DefaultRerankedRunName.
func NewRunBuilder(retriever Retriever, options ...func(*RunBuilder)) *RunBuilder {
	b := &RunBuilder{
		retriever: retriever,
		logger:    zap.NewNop(),
	}
	for _, option := range options {
		option(b)
	}
	if len(b.runName) == 0 {
		if b.reranker != nil {
			b.runName = sieve.DefaultRerankedRunName
		} else {
			b.runName = sieve.DefaultLexicalRunName
		}
	}
	return b
}

// RunName is the name written in the last column of the run.
func (b *RunBuilder) RunName() string {
	return b.runName
}

// Results computes the complete ranked list of one query. Ranks follow list order and
// the score is the rerank score when reranking, the lexical score otherwise.
func (b *RunBuilder) Results(ctx context.Context, q query.Query) (trecresults.ResultList, error) {
	candidates, err := b.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	topic := strconv.FormatInt(q.Topic, 10)
	results := make(trecresults.ResultList, 0, len(candidates))
	if b.reranker == nil {
		for i, c := range candidates {
			results = append(results, b.result(topic, c.ID, i, c.Score))
		}
		return results, nil
	}

	reranked, err := b.reranker.Rerank(ctx, q.Text, candidates)
	if err != nil {
		return nil, err
	}
	for i, c := range reranked {
		results = append(results, b.result(topic, c.ID, i, c.RerankScore))
	}
	return results, nil
}

func (b *RunBuilder) result(topic, docID string, i int, score float64) *trecresults.Result {
	return &trecresults.Result{
		Topic:     topic,
		Iteration: output.Iteration,
		DocId:     docID,
		Rank:      int64(i + 1),
		Score:     score,
		RunName:   b.runName,
	}
}

// Build runs the queries in order and writes their run lines to w. The lines of a
// query are written and flushed before the next query starts, so a failure leaves the
// lines of earlier queries intact.
func (b *RunBuilder) Build(ctx context.Context, queries []query.Query, w io.Writer) (Summary, error) {
	summary := Summary{RunName: b.runName}
	bw := bufio.NewWriter(w)

	var bar *pb.ProgressBar
	if b.progress != nil {
		bar = pb.New(len(queries)).SetWriter(b.progress).Start()
		defer bar.Finish()
	}

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		results, err := b.Results(ctx, q)
		if err != nil {
			summary.Results = append(summary.Results, QueryResult{Topic: q.Topic, Type: Failed, Error: err})
			b.logger.Error("query failed", zap.Int64("topic", q.Topic), zap.Error(err))
			return summary, errors.Wrapf(err, "topic %d", q.Topic)
		}
		if err := output.WriteRun(bw, results); err != nil {
			return summary, errors.Wrap(err, "write run")
		}
		if err := bw.Flush(); err != nil {
			return summary, errors.Wrap(err, "write run")
		}

		r := QueryResult{Topic: q.Topic, Entries: len(results), Type: Ranked}
		if len(results) == 0 {
			r.Type = Empty
			b.logger.Debug("no candidates", zap.Int64("topic", q.Topic))
		}
		summary.Results = append(summary.Results, r)
		summary.Entries += len(results)
		if bar != nil {
			bar.Increment()
		}
	}

	b.logger.Info("built run",
		zap.String("run", b.runName),
		zap.Int("queries", summary.Queries()),
		zap.Int("empty", summary.Count(Empty)),
		zap.Int("entries", summary.Entries))
	return summary, nil
}

// BuildFile writes the run to path, replacing any existing file. The file is closed
// whether or not the run succeeds.
func (b *RunBuilder) BuildFile(ctx context.Context, queries []query.Query, path string) (summary Summary, err error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, errors.Wrapf(sieve.ErrConfiguration, "run %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close run")
		}
	}()
	return b.Build(ctx, queries, f)
}
