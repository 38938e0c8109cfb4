package index_test

import (
	"context"
	"testing"

	"github.com/hscells/sieve/index"
)

func corpus(t *testing.T, options ...func(*index.MemoryBackend)) *index.CorpusIndex {
	ctx := context.Background()
	c := index.NewCorpusIndex(index.NewMemoryBackend(options...))
	if err := c.Ensure(ctx); err != nil {
		t.Fatal(err)
	}
	_, err := c.Ingest(ctx, []index.Document{
		{ID: "d1", Title: "Cats", Text: "Cats are mammals"},
		{ID: "d2", Title: "Dogs", Text: "Dogs are mammals"},
		{ID: "d3", Title: "Lizards", Text: "Lizards are reptiles that bask in the sun"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMemorySearch(t *testing.T) {
	c := corpus(t)
	candidates, err := c.Search(context.Background(), "mammals", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// d1 and d2 score equally; ties are broken by docid.
	if candidates[0].ID != "d1" || candidates[1].ID != "d2" {
		t.Fatalf("unexpected order %v", candidates)
	}
	if candidates[0].Score <= 0 || candidates[0].Score != candidates[1].Score {
		t.Fatalf("unexpected scores %v", candidates)
	}
	if candidates[0].Title != "Cats" || candidates[0].Text != "Cats are mammals" {
		t.Fatalf("candidate lost its fields %+v", candidates[0])
	}
}

func TestMemorySearchTitleBoost(t *testing.T) {
	c := corpus(t)
	candidates, err := c.Search(context.Background(), "cats", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ID != "d1" {
		t.Fatalf("unexpected candidates %v", candidates)
	}
}

func TestMemorySearchTopK(t *testing.T) {
	c := corpus(t)
	candidates, err := c.Search(context.Background(), "mammals reptiles", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	candidates, err = c.Search(context.Background(), "mammals reptiles", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestMemoryUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := corpus(t)
	_, err := c.Ingest(ctx, []index.Document{{ID: "d1", Title: "Birds", Text: "Birds are not mammals"}})
	if err != nil {
		t.Fatal(err)
	}
	n, err := c.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 documents, got %d", n)
	}
	candidates, err := c.Search(ctx, "cats", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Fatalf("replaced document is still searchable: %v", candidates)
	}
	candidates, err = c.Search(ctx, "birds", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ID != "d1" {
		t.Fatalf("unexpected candidates %v", candidates)
	}
}

func TestMemoryStemming(t *testing.T) {
	c := corpus(t, index.MemoryStemming(true))
	candidates, err := c.Search(context.Background(), "mammal", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected stemmed match on both mammals, got %v", candidates)
	}
}

func TestMemoryStopwords(t *testing.T) {
	candidates, err := corpus(t).Search(context.Background(), "are", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected every document to match, got %v", candidates)
	}
	candidates, err = corpus(t, index.MemoryStopwords(true)).Search(context.Background(), "are", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected stop words to match nothing, got %v", candidates)
	}
}

func TestMemoryJudgments(t *testing.T) {
	ctx := context.Background()
	c := corpus(t)
	_, err := c.IngestJudgments(ctx, []index.Judgment{
		{Topic: 1, DocID: "d1", Relevance: 1},
		{Topic: 1, DocID: "d2", Relevance: 0},
		{Topic: 1, DocID: "d1", Relevance: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	grade, ok, err := c.Relevance(ctx, 1, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || grade != 2 {
		t.Fatalf("expected upserted grade 2, got %d (%v)", grade, ok)
	}
	grade, ok, err = c.Relevance(ctx, 1, "d3")
	if err != nil {
		t.Fatal(err)
	}
	if ok || grade != 0 {
		t.Fatalf("unjudged pair reported as %d (%v)", grade, ok)
	}
}
