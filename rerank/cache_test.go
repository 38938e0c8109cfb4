package rerank_test

import (
	"context"
	"sync"
	"testing"

	"github.com/hscells/sieve/rerank"
)

type countingScorer struct {
	calls [][]rerank.Pair
}

func (c *countingScorer) ScoreBatch(ctx context.Context, pairs []rerank.Pair) ([]float64, error) {
	c.calls = append(c.calls, pairs)
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = float64(len(p.Document))
	}
	return scores, nil
}

func TestCachedScorer(t *testing.T) {
	inner := &countingScorer{}
	c, err := rerank.NewCachedScorer(inner, 16)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := c.ScoreBatch(ctx, []rerank.Pair{{Query: "q", Document: "a"}, {Query: "q", Document: "bb"}}); err != nil {
		t.Fatal(err)
	}
	scores, err := c.ScoreBatch(ctx, []rerank.Pair{
		{Query: "q", Document: "bb"},
		{Query: "q", Document: "ccc"},
		{Query: "q", Document: "a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] != 2 || scores[1] != 3 || scores[2] != 1 {
		t.Fatalf("unexpected scores %v", scores)
	}
	// Only the miss reaches the scorer.
	if len(inner.calls) != 2 || len(inner.calls[1]) != 1 || inner.calls[1][0].Document != "ccc" {
		t.Fatalf("unexpected scorer calls %v", inner.calls)
	}

	if _, err := c.ScoreBatch(ctx, []rerank.Pair{{Query: "q", Document: "a"}}); err != nil {
		t.Fatal(err)
	}
	if len(inner.calls) != 2 {
		t.Fatal("a fully cached batch must not call the scorer")
	}
}

func TestCachedScorerDisk(t *testing.T) {
	dir := t.TempDir()
	pairs := []rerank.Pair{{Query: "q", Document: "abcd"}}

	first := &countingScorer{}
	c, err := rerank.NewCachedScorer(first, 4, rerank.CacheDirectory(dir), rerank.CacheNamespace("m"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ScoreBatch(context.Background(), pairs); err != nil {
		t.Fatal(err)
	}

	// A new cache over the same directory reads the persisted score.
	second := &countingScorer{}
	c, err = rerank.NewCachedScorer(second, 4, rerank.CacheDirectory(dir), rerank.CacheNamespace("m"))
	if err != nil {
		t.Fatal(err)
	}
	scores, err := c.ScoreBatch(context.Background(), pairs)
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] != 4 || len(second.calls) != 0 {
		t.Fatalf("expected a disk hit, got %v with %d calls", scores, len(second.calls))
	}

	// Another namespace does not share scores.
	third := &countingScorer{}
	c, err = rerank.NewCachedScorer(third, 4, rerank.CacheDirectory(dir), rerank.CacheNamespace("other"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ScoreBatch(context.Background(), pairs); err != nil {
		t.Fatal(err)
	}
	if len(third.calls) != 1 {
		t.Fatal("namespaces must not share cached scores")
	}
}

func TestBlockTransform(t *testing.T) {
	parts := rerank.BlockTransform(2, 2)("abcdef")
	if len(parts) != 2 || parts[0] != "ab" || parts[1] != "cd" {
		t.Fatalf("unexpected path %v", parts)
	}
}

func TestCachedScorerConcurrent(t *testing.T) {
	inner := &countingScorer{}
	c, err := rerank.NewCachedScorer(inner, 16)
	if err != nil {
		t.Fatal(err)
	}
	pairs := []rerank.Pair{{Query: "q", Document: "a"}, {Query: "q", Document: "bb"}}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ScoreBatch(context.Background(), pairs); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	// Every pair is scored exactly once.
	if len(inner.calls) != 1 {
		t.Fatalf("expected 1 scorer call, got %d", len(inner.calls))
	}
}
