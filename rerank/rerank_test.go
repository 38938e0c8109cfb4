package rerank_test

import (
	"context"
	"testing"

	"github.com/hscells/sieve/index"
	"github.com/hscells/sieve/rerank"
)

// lengthScorer scores a pair by the length of its document text.
var lengthScorer = rerank.ScorerFunc(func(ctx context.Context, pairs []rerank.Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = float64(len(p.Document))
	}
	return scores, nil
})

func candidates(n int) []index.Candidate {
	c := make([]index.Candidate, n)
	for i := range c {
		c[i] = index.Candidate{
			ID:    string(rune('a' + i)),
			Title: "t",
			Text:  string(make([]byte, (i*7)%5)),
			Score: float64(n - i),
		}
	}
	return c
}

func TestDocumentText(t *testing.T) {
	for _, tc := range []struct{ title, text, expected string }{
		{"Cats", "Cats are mammals", "Cats. Cats are mammals"},
		{"Cats", "", "Cats"},
		{"", "Cats are mammals", "Cats are mammals"},
		{"", "", ""},
	} {
		if got := rerank.DocumentText(tc.title, tc.text); got != tc.expected {
			t.Fatalf("DocumentText(%q, %q) = %q, expected %q", tc.title, tc.text, got, tc.expected)
		}
	}
}

func TestRerankGolden(t *testing.T) {
	r := rerank.NewReranker(lengthScorer, 0)
	out, err := r.Rerank(context.Background(), "mammals", []index.Candidate{
		{ID: "d1", Title: "Cats", Text: "Cats are mammals", Score: 1.2},
		{ID: "d2", Title: "Dogs", Text: "Dogs are mammals too", Score: 1.1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != "d2" || out[1].ID != "d1" {
		t.Fatalf("unexpected order %v", out)
	}
	if out[0].RerankScore != float64(len("Dogs. Dogs are mammals too")) {
		t.Fatalf("unexpected score %f", out[0].RerankScore)
	}
	// The lexical score is carried along.
	if out[0].Score != 1.1 {
		t.Fatalf("expected lexical score 1.1, got %f", out[0].Score)
	}
}

func TestRerankBatchSizeInvariance(t *testing.T) {
	in := candidates(20)
	expected, err := rerank.NewReranker(lengthScorer, 1).Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatal(err)
	}
	for _, size := range []int{3, 20, 40} {
		got, err := rerank.NewReranker(lengthScorer, size).Rerank(context.Background(), "q", in)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(expected) {
			t.Fatalf("batch size %d: expected %d candidates, got %d", size, len(expected), len(got))
		}
		for i := range got {
			if got[i] != expected[i] {
				t.Fatalf("batch size %d: position %d differs: %v != %v", size, i, got[i], expected[i])
			}
		}
	}
}

func TestRerankStableTies(t *testing.T) {
	constant := rerank.ScorerFunc(func(ctx context.Context, pairs []rerank.Pair) ([]float64, error) {
		return make([]float64, len(pairs)), nil
	})
	in := candidates(10)
	out, err := rerank.NewReranker(constant, 4).Rerank(context.Background(), "q", in)
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if out[i].ID != in[i].ID {
			t.Fatalf("ties must keep input order: position %d is %s, expected %s", i, out[i].ID, in[i].ID)
		}
	}
}

func TestRerankBatches(t *testing.T) {
	var sizes []int
	counting := rerank.ScorerFunc(func(ctx context.Context, pairs []rerank.Pair) ([]float64, error) {
		sizes = append(sizes, len(pairs))
		return make([]float64, len(pairs)), nil
	})
	if _, err := rerank.NewReranker(counting, 4).Rerank(context.Background(), "q", candidates(10)); err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 3 || sizes[0] != 4 || sizes[1] != 4 || sizes[2] != 2 {
		t.Fatalf("unexpected batches %v", sizes)
	}
}

func TestRerankEmpty(t *testing.T) {
	never := rerank.ScorerFunc(func(ctx context.Context, pairs []rerank.Pair) ([]float64, error) {
		t.Fatal("scorer must not be called without candidates")
		return nil, nil
	})
	out, err := rerank.NewReranker(never, 8).Rerank(context.Background(), "q", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected an empty list, got %v", out)
	}
}

func TestRerankScoreCountMismatch(t *testing.T) {
	short := rerank.ScorerFunc(func(ctx context.Context, pairs []rerank.Pair) ([]float64, error) {
		return make([]float64, len(pairs)-1), nil
	})
	if _, err := rerank.NewReranker(short, 8).Rerank(context.Background(), "q", candidates(3)); err == nil {
		t.Fatal("expected an error when the scorer drops scores")
	}
}
