package index

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/jdkato/prose/v2"
	"github.com/reiver/go-porterstemmer"
)

// MemoryBackend is an inverted index held in memory. It ranks with BM25 summed over
// the searched fields, and breaks score ties by docid so results are reproducible.
type MemoryBackend struct {
	mu      sync.RWMutex
	created bool

	// Term -> Field -> DocID -> TF
	postings map[string]map[string]map[string]float64
	// Field -> DocID -> DocLen
	lengths   map[string]map[string]float64
	docs      map[string]Document
	judgments map[int64]map[string]int64

	k1        float64
	b         float64
	stem      bool
	stopwords bool
}

// MemoryStemming applies the Porter stemmer to indexed and query terms.
func MemoryStemming(stem bool) func(*MemoryBackend) {
	return func(m *MemoryBackend) {
		m.stem = stem
		return
	}
}

// MemoryStopwords removes English stop words, and digits, from indexed and query text.
func MemoryStopwords(remove bool) func(*MemoryBackend) {
	return func(m *MemoryBackend) {
		m.stopwords = remove
		return
	}
}

// MemoryBM25 sets the BM25 parameters.
func MemoryBM25(k1, b float64) func(*MemoryBackend) {
	return func(m *MemoryBackend) {
		m.k1 = k1
		m.b = b
		return
	}
}

// NewMemoryBackend creates an empty backend with k1=1.2 and b=0.75. The index does not
// exist until CreateIfAbsent or the first upsert.
func NewMemoryBackend(options ...func(*MemoryBackend)) *MemoryBackend {
	m := &MemoryBackend{
		postings:  make(map[string]map[string]map[string]float64),
		lengths:   make(map[string]map[string]float64),
		docs:      make(map[string]Document),
		judgments: make(map[int64]map[string]int64),
		k1:        1.2,
		b:         0.75,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Exists reports whether the index has been created.
func (m *MemoryBackend) Exists(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.created, nil
}

// CreateIfAbsent creates the index.
func (m *MemoryBackend) CreateIfAbsent(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true
	return nil
}

// UpsertDocuments indexes documents, replacing any previous version with the same docid.
func (m *MemoryBackend) UpsertDocuments(ctx context.Context, docs []Document) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if old, ok := m.docs[doc.ID]; ok {
			m.remove(old)
		}
		m.add(doc)
	}
	return 0, nil
}

// UpsertJudgments stores judgments, replacing any previous grade for the same pair.
func (m *MemoryBackend) UpsertJudgments(ctx context.Context, judgments []Judgment) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true

	for _, j := range judgments {
		if _, ok := m.judgments[j.Topic]; !ok {
			m.judgments[j.Topic] = make(map[string]int64)
		}
		m.judgments[j.Topic][j.DocID] = j.Relevance
	}
	return 0, nil
}

// Search scores every document containing at least one query term.
func (m *MemoryBackend) Search(ctx context.Context, text string, fields []string, size int) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return nil, notFound("memory")
	}

	tokens := m.tokenise(text)
	N := float64(len(m.docs))
	scores := make(map[string]float64)
	for _, field := range fields {
		avgDocLen := m.avgDocLen(field)
		if avgDocLen == 0 {
			continue
		}
		for _, token := range tokens {
			docs := m.postings[token][field]
			if len(docs) == 0 {
				continue
			}
			nt := float64(len(docs))
			idf := math.Log(1 + (N-nt+0.5)/(nt+0.5))
			for id, tf := range docs {
				docLen := m.lengths[field][id]
				scores[id] += idf * ((tf * (m.k1 + 1)) / (tf + m.k1*(1-m.b+m.b*(docLen/avgDocLen))))
			}
		}
	}

	candidates := make([]Candidate, 0, len(scores))
	for id, score := range scores {
		doc := m.docs[id]
		candidates = append(candidates, Candidate{
			ID:    doc.ID,
			Title: doc.Title,
			Text:  doc.Text,
			Score: score,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if len(candidates) > size {
		candidates = candidates[:size]
	}
	return candidates, nil
}

// Relevance looks up a stored judgment.
func (m *MemoryBackend) Relevance(ctx context.Context, topic int64, docID string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return 0, false, notFound("memory")
	}
	grade, ok := m.judgments[topic][docID]
	return grade, ok, nil
}

// Count is the number of indexed documents.
func (m *MemoryBackend) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return 0, notFound("memory")
	}
	return int64(len(m.docs)), nil
}

func (m *MemoryBackend) fieldText(doc Document, field string) string {
	switch field {
	case "title":
		return doc.Title
	case "text":
		return doc.Text
	}
	return ""
}

func (m *MemoryBackend) add(doc Document) {
	m.docs[doc.ID] = doc
	for _, field := range []string{"title", "text"} {
		tokens := m.tokenise(m.fieldText(doc, field))
		if _, ok := m.lengths[field]; !ok {
			m.lengths[field] = make(map[string]float64)
		}
		m.lengths[field][doc.ID] = float64(len(tokens))
		for _, t := range tokens {
			if _, ok := m.postings[t]; !ok {
				m.postings[t] = make(map[string]map[string]float64)
			}
			if _, ok := m.postings[t][field]; !ok {
				m.postings[t][field] = make(map[string]float64)
			}
			m.postings[t][field][doc.ID]++
		}
	}
}

func (m *MemoryBackend) remove(doc Document) {
	for _, field := range []string{"title", "text"} {
		for _, t := range m.tokenise(m.fieldText(doc, field)) {
			delete(m.postings[t][field], doc.ID)
		}
		delete(m.lengths[field], doc.ID)
	}
	delete(m.docs, doc.ID)
}

func (m *MemoryBackend) avgDocLen(field string) float64 {
	lengths := m.lengths[field]
	if len(lengths) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lengths {
		sum += l
	}
	return sum / float64(len(lengths))
}

// tokenise lower-cases text and keeps the word tokens prose finds in it.
func (m *MemoryBackend) tokenise(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	text = strings.ToLower(text)
	if m.stopwords {
		text = stopwords.CleanString(text, "en", false)
	}
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return strings.Fields(text)
	}
	var tokens []string
	for _, tok := range doc.Tokens() {
		if !strings.ContainsFunc(tok.Text, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
			continue
		}
		t := tok.Text
		if m.stem {
			t = porterstemmer.StemString(t)
		}
		tokens = append(tokens, t)
	}
	return tokens
}
