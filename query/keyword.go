package query

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hscells/sieve"
	"github.com/pkg/errors"
)

// KeywordSource is a source of queries stored one per file, where the file name is
// the qid and the content is the query text.
type KeywordSource struct{}

// Load takes a directory of queries and parses them "as is". Files are read in name
// order; files whose name is not an integer or whose content is blank are skipped.
func (KeywordSource) Load(directory string) (Batch, error) {
	// First, get a list of files in the directory.
	files, err := os.ReadDir(directory)
	if err != nil {
		return Batch{}, errors.Wrapf(sieve.ErrConfiguration, "queries %s: %v", directory, err)
	}

	// Next, load each query.
	var b Batch
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		topic, err := strconv.ParseInt(f.Name(), 10, 64)
		if err != nil {
			b.Skipped++
			continue
		}
		source, err := os.ReadFile(filepath.Join(directory, f.Name()))
		if err != nil {
			return b, err
		}
		text := strings.Join(strings.Fields(string(source)), " ")
		if len(text) == 0 {
			b.Skipped++
			continue
		}
		b.Queries = append(b.Queries, Query{Topic: topic, Text: text})
	}

	// Finally, return the queries.
	return b, nil
}
