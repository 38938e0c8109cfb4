package index_test

import (
	"context"
	"testing"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
)

// stubBackend fails the test if a search reaches it.
type stubBackend struct {
	t        *testing.T
	upserted []index.Document
	judged   []index.Judgment
}

func (s *stubBackend) Exists(ctx context.Context) (bool, error) { return true, nil }
func (s *stubBackend) CreateIfAbsent(ctx context.Context) error { return nil }
func (s *stubBackend) UpsertDocuments(ctx context.Context, docs []index.Document) (int, error) {
	s.upserted = append(s.upserted, docs...)
	return 0, nil
}
func (s *stubBackend) UpsertJudgments(ctx context.Context, judgments []index.Judgment) (int, error) {
	s.judged = append(s.judged, judgments...)
	return 0, nil
}
func (s *stubBackend) Search(ctx context.Context, text string, fields []string, size int) ([]index.Candidate, error) {
	s.t.Fatalf("backend searched for %q", text)
	return nil, nil
}
func (s *stubBackend) Relevance(ctx context.Context, topic int64, docID string) (int64, bool, error) {
	return 0, false, nil
}
func (s *stubBackend) Count(ctx context.Context) (int64, error) { return int64(len(s.upserted)), nil }

func TestEmptyQueryNeverReachesBackend(t *testing.T) {
	c := index.NewCorpusIndex(&stubBackend{t: t})
	for _, text := range []string{"", " ", "\t\n "} {
		candidates, err := c.Search(context.Background(), text, 50)
		if err != nil {
			t.Fatal(err)
		}
		if len(candidates) != 0 {
			t.Fatalf("expected no candidates for %q, got %v", text, candidates)
		}
	}
}

func TestIngestSkipsDocumentsWithoutID(t *testing.T) {
	stub := &stubBackend{t: t}
	c := index.NewCorpusIndex(stub, index.CorpusLogger(zaptest.NewLogger(t)))
	stats, err := c.Ingest(context.Background(), []index.Document{
		{ID: "d1", Title: "Cats", Text: "Cats are mammals"},
		{ID: "", Title: "Orphan", Text: "no identifier"},
		{ID: "d2", Title: "Dogs", Text: "Dogs are mammals"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 2 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stub.upserted) != 2 || stub.upserted[0].ID != "d1" || stub.upserted[1].ID != "d2" {
		t.Fatalf("unexpected upserts %v", stub.upserted)
	}
}

func TestIngestJudgmentsSkipsMissingDocID(t *testing.T) {
	stub := &stubBackend{t: t}
	c := index.NewCorpusIndex(stub)
	stats, err := c.IngestJudgments(context.Background(), []index.Judgment{
		{Topic: 1, DocID: "d1", Relevance: 1},
		{Topic: 1, DocID: "", Relevance: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Indexed != 1 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSearchMissingIndex(t *testing.T) {
	c := index.NewCorpusIndex(index.NewMemoryBackend())
	_, err := c.Search(context.Background(), "mammals", 10)
	if !errors.Is(err, sieve.ErrIndexNotFound) {
		t.Fatalf("expected index not found, got %v", err)
	}
	if !errors.Is(err, sieve.ErrConfiguration) {
		t.Fatalf("a missing index is a configuration error, got %v", err)
	}
}
