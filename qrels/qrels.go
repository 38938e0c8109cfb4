// Package qrels loads relevance judgments in the TREC qrels format and answers
// (topic, document) relevance lookups.
package qrels

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/hscells/trecresults"
	"github.com/pkg/errors"
)

// Judgments is an in-memory set of relevance judgments.
type Judgments struct {
	trecresults.QrelsFile
	// Skipped is the number of malformed lines dropped while reading.
	Skipped int
	// n is the number of valid lines read.
	n int
}

// Read parses `qid iteration docid relevance` lines. Malformed lines are skipped and
// counted; blank lines are ignored. A later judgment for the same pair replaces an
// earlier one.
func Read(r io.Reader) (Judgments, error) {
	j := Judgments{QrelsFile: trecresults.QrelsFile{Qrels: make(map[string]trecresults.Qrels)}}
	err := sieve.ReadLines(r, func(line string) {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			return
		}
		qrel, err := parseLine(line)
		if err != nil {
			j.Skipped++
			return
		}
		j.Add(qrel)
	})
	return j, err
}

// Load reads a qrels file. A missing file is a configuration error.
func Load(path string) (Judgments, error) {
	f, err := os.Open(path)
	if err != nil {
		return Judgments{}, errors.Wrapf(sieve.ErrConfiguration, "qrels %s: %v", path, err)
	}
	defer f.Close()
	return Read(f)
}

func parseLine(line string) (*trecresults.Qrel, error) {
	parts := strings.Fields(line)
	if len(parts) != 4 {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "expected 4 columns, got %d", len(parts))
	}
	topic, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "topic %q", parts[0])
	}
	score, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "relevance %q", parts[3])
	}
	return &trecresults.Qrel{
		Topic:     strconv.FormatInt(topic, 10),
		Iteration: parts[1],
		DocId:     parts[2],
		Score:     score,
	}, nil
}

// Add inserts or replaces a judgment.
func (j *Judgments) Add(qrel *trecresults.Qrel) {
	if j.Qrels == nil {
		j.Qrels = make(map[string]trecresults.Qrels)
	}
	if _, ok := j.Qrels[qrel.Topic]; !ok {
		j.Qrels[qrel.Topic] = make(trecresults.Qrels)
	}
	j.Qrels[qrel.Topic][qrel.DocId] = qrel
	j.n++
}

// Len is the number of valid judgment lines read, including replaced ones.
func (j Judgments) Len() int {
	return j.n
}

// Relevance is the grade of docID for topic. Unjudged pairs are not relevant (0).
func (j Judgments) Relevance(topic int64, docID string) int64 {
	if qrel, ok := j.Qrels[strconv.FormatInt(topic, 10)][docID]; ok {
		return qrel.Score
	}
	return 0
}

// NumRelevant is the number of documents judged at or above grade for topic.
func (j Judgments) NumRelevant(topic int64, grade int64) int {
	n := 0
	for _, qrel := range j.Qrels[strconv.FormatInt(topic, 10)] {
		if qrel.Score >= grade {
			n++
		}
	}
	return n
}

// Index converts the judgments into records for ingestion into a CorpusIndex.
func (j Judgments) Index() []index.Judgment {
	var judgments []index.Judgment
	for topic, qrels := range j.Qrels {
		t, err := strconv.ParseInt(topic, 10, 64)
		if err != nil {
			continue
		}
		for _, qrel := range qrels {
			judgments = append(judgments, index.Judgment{
				Topic:     t,
				DocID:     qrel.DocId,
				Relevance: qrel.Score,
			})
		}
	}
	sort.Slice(judgments, func(a, b int) bool {
		if judgments[a].Topic != judgments[b].Topic {
			return judgments[a].Topic < judgments[b].Topic
		}
		return judgments[a].DocID < judgments[b].DocID
	})
	return judgments
}
