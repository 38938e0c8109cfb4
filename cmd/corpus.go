package cmd

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Corpus is a set of documents read from a JSON lines file.
type Corpus struct {
	Documents []index.Document
	// Skipped is the number of lines that were not JSON objects.
	Skipped int
}

// ReadCorpus parses one `{"docid": ..., "title": ..., "text": ...}` object per line.
// The docid may be a string or a number. Records without a docid are kept so that the
// index can report them.
func ReadCorpus(r io.Reader) (Corpus, error) {
	var c Corpus
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if doc, ok := parseDocument(line); ok {
				c.Documents = append(c.Documents, doc)
			} else {
				c.Skipped++
			}
		}
		if err == io.EOF {
			return c, nil
		}
		if err != nil {
			return c, err
		}
	}
}

func parseDocument(line []byte) (index.Document, bool) {
	if !gjson.ValidBytes(line) {
		return index.Document{}, false
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return index.Document{}, false
	}
	fields := gjson.GetManyBytes(line, "docid", "title", "text")
	var doc index.Document
	switch fields[0].Type {
	case gjson.String, gjson.Number:
		doc.ID = fields[0].String()
	case gjson.Null:
	default:
		return index.Document{}, false
	}
	doc.Title = fields[1].String()
	doc.Text = fields[2].String()
	return doc, true
}

// LoadCorpus reads a corpus file. A missing file is a configuration error.
func LoadCorpus(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return Corpus{}, errors.Wrapf(sieve.ErrConfiguration, "corpus %s: %v", path, err)
	}
	defer f.Close()
	return ReadCorpus(f)
}
