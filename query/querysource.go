package query

import "os"

// Source represents a source for queries and how to parse them.
type Source interface {
	// Load reads the queries found at path.
	Load(path string) (Batch, error)
}

// TSVSource loads a single `qid<TAB>text` file.
type TSVSource struct{}

// Load calls the package level Load.
func (TSVSource) Load(path string) (Batch, error) {
	return Load(path)
}

// SourceFor picks the source matching path: a directory of keyword queries or a
// query file.
func SourceFor(path string) Source {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return KeywordSource{}
	}
	return TSVSource{}
}
