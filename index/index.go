// Package index provides the searchable corpus: ingestion of documents and relevance
// judgments, and lexical search over the title and text fields.
//
// The ranking function itself is delegated to a Backend. Two backends are provided,
// Elasticsearch for real collections and an in-memory inverted index for small
// collections and tests.
package index

import (
	"context"
	"strings"

	"github.com/hscells/sieve"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Document is a unit of the corpus. It is never modified once indexed.
type Document struct {
	ID    string `json:"docid"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Judgment is a graded relevance label for a (topic, document) pair.
type Judgment struct {
	Topic     int64  `json:"query_id"`
	DocID     string `json:"doc_id"`
	Relevance int64  `json:"relevance"`
}

// Candidate is a document retrieved for a query along with its lexical score.
type Candidate struct {
	ID    string
	Title string
	Text  string
	Score float64
}

// IngestStats counts the outcome of an ingestion call.
type IngestStats struct {
	Indexed int
	Skipped int
	Failed  int
}

// Backend is a full-text search engine holding a document index and a judgment index.
type Backend interface {
	// Exists reports whether the document index has been created.
	Exists(ctx context.Context) (bool, error)
	// CreateIfAbsent creates the document and judgment indices if they do not exist.
	CreateIfAbsent(ctx context.Context) error
	// UpsertDocuments writes documents keyed by ID. It returns the number of documents
	// the backend rejected.
	UpsertDocuments(ctx context.Context, docs []Document) (int, error)
	// UpsertJudgments writes judgments keyed by (topic, document).
	UpsertJudgments(ctx context.Context, judgments []Judgment) (int, error)
	// Search ranks documents against text over fields, best first.
	Search(ctx context.Context, text string, fields []string, size int) ([]Candidate, error)
	// Relevance looks up a single judgment.
	Relevance(ctx context.Context, topic int64, docID string) (int64, bool, error)
	// Count is the number of indexed documents.
	Count(ctx context.Context) (int64, error)
}

// CorpusIndex is the corpus as the rest of the pipeline sees it. It owns its backend.
type CorpusIndex struct {
	backend Backend
	fields  []string
	logger  *zap.Logger
}

// CorpusFields sets the fields searched by the index.
func CorpusFields(fields ...string) func(*CorpusIndex) {
	return func(c *CorpusIndex) {
		c.fields = fields
		return
	}
}

// CorpusLogger sets the logger used for data-quality warnings.
func CorpusLogger(logger *zap.Logger) func(*CorpusIndex) {
	return func(c *CorpusIndex) {
		c.logger = logger
		return
	}
}

// NewCorpusIndex creates a corpus index over a backend, searching title and text by default.
func NewCorpusIndex(backend Backend, options ...func(*CorpusIndex)) *CorpusIndex {
	c := &CorpusIndex{
		backend: backend,
		fields:  []string{"title", "text"},
		logger:  zap.NewNop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Ensure creates the indices if they are absent.
func (c *CorpusIndex) Ensure(ctx context.Context) error {
	return c.backend.CreateIfAbsent(ctx)
}

// Ingest upserts documents. Documents without an identifier are skipped with a warning;
// they never fail the call.
func (c *CorpusIndex) Ingest(ctx context.Context, docs []Document) (IngestStats, error) {
	var stats IngestStats
	valid := make([]Document, 0, len(docs))
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			c.logger.Warn("skipping document without docid", zap.Int("position", i), zap.String("title", doc.Title))
			stats.Skipped++
			continue
		}
		valid = append(valid, doc)
	}
	if len(valid) == 0 {
		return stats, nil
	}
	failed, err := c.backend.UpsertDocuments(ctx, valid)
	if err != nil {
		return stats, err
	}
	stats.Failed = failed
	stats.Indexed = len(valid) - failed
	if failed > 0 {
		c.logger.Warn("backend rejected documents", zap.Int("failed", failed))
	}
	return stats, nil
}

// IngestJudgments upserts judgments keyed by (topic, document).
func (c *CorpusIndex) IngestJudgments(ctx context.Context, judgments []Judgment) (IngestStats, error) {
	var stats IngestStats
	valid := make([]Judgment, 0, len(judgments))
	for i, j := range judgments {
		if strings.TrimSpace(j.DocID) == "" {
			c.logger.Warn("skipping judgment without docid", zap.Int("position", i), zap.Int64("topic", j.Topic))
			stats.Skipped++
			continue
		}
		valid = append(valid, j)
	}
	if len(valid) == 0 {
		return stats, nil
	}
	failed, err := c.backend.UpsertJudgments(ctx, valid)
	if err != nil {
		return stats, err
	}
	stats.Failed = failed
	stats.Indexed = len(valid) - failed
	return stats, nil
}

// Search returns at most topK candidates for text. Empty or blank text returns nothing
// without reaching the backend, since some backends treat an empty query as match-all.
func (c *CorpusIndex) Search(ctx context.Context, text string, topK int) ([]Candidate, error) {
	if strings.TrimSpace(text) == "" || topK <= 0 {
		return []Candidate{}, nil
	}
	candidates, err := c.backend.Search(ctx, text, c.fields, topK)
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", text)
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// Relevance returns the judged relevance of a document for a topic. Unjudged pairs
// are reported as (0, false).
func (c *CorpusIndex) Relevance(ctx context.Context, topic int64, docID string) (int64, bool, error) {
	return c.backend.Relevance(ctx, topic, docID)
}

// Count is the number of indexed documents.
func (c *CorpusIndex) Count(ctx context.Context) (int64, error) {
	return c.backend.Count(ctx)
}

// notFound reports a missing index in the taxonomy of the root package.
func notFound(index string) error {
	return errors.Wrapf(sieve.ErrIndexNotFound, "index %s", index)
}

// unavailable reports an unreachable backend.
func unavailable(err error) error {
	return errors.Wrapf(sieve.ErrBackendUnavailable, "%v", err)
}
