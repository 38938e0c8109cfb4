// Package query loads batches of keyword queries.
package query

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hscells/sieve"
	"github.com/pkg/errors"
)

// Query is a topic identifier and its keyword text.
type Query struct {
	Topic int64
	Text  string
}

// Batch is a set of queries in the order they were loaded.
type Batch struct {
	Queries []Query
	// Skipped is the number of malformed lines dropped while reading.
	Skipped int
}

// Read parses `qid<TAB>text` lines. Lines without a text column or with a non-integer
// qid are skipped. A repeated qid keeps its first position and takes the latest text.
func Read(r io.Reader) (Batch, error) {
	var b Batch
	seen := make(map[int64]int)
	err := sieve.ReadLines(r, func(line string) {
		if len(strings.TrimSpace(line)) == 0 {
			return
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			b.Skipped++
			return
		}
		topic, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			b.Skipped++
			return
		}
		if i, ok := seen[topic]; ok {
			b.Queries[i].Text = parts[1]
			return
		}
		seen[topic] = len(b.Queries)
		b.Queries = append(b.Queries, Query{Topic: topic, Text: parts[1]})
	})
	return b, err
}

// Load reads a query file. A missing file is a configuration error.
func Load(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, errors.Wrapf(sieve.ErrConfiguration, "queries %s: %v", path, err)
	}
	defer f.Close()
	return Read(f)
}
