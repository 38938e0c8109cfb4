package query_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/query"
	"github.com/pkg/errors"
)

func TestRead(t *testing.T) {
	b, err := query.Read(strings.NewReader("3\tdark side of the force\n" +
		"1\tjedi training\n" +
		"not a number\tskywalker\n" +
		"7\n" +
		"\n" +
		"2\tdeath star plans\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if b.Skipped != 2 {
		t.Fatalf("expected 2 skipped lines, got %d", b.Skipped)
	}
	// Queries keep file order rather than qid order.
	expected := []query.Query{
		{Topic: 3, Text: "dark side of the force"},
		{Topic: 1, Text: "jedi training"},
		{Topic: 2, Text: "death star plans"},
	}
	if len(b.Queries) != len(expected) {
		t.Fatalf("expected %d queries, got %v", len(expected), b.Queries)
	}
	for i, q := range expected {
		if b.Queries[i] != q {
			t.Fatalf("query %d: expected %+v, got %+v", i, q, b.Queries[i])
		}
	}
}

func TestReadDuplicateTopic(t *testing.T) {
	b, err := query.Read(strings.NewReader("5\tfirst\n6\tother\n5\tsecond\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %v", b.Queries)
	}
	if b.Queries[0].Topic != 5 || b.Queries[0].Text != "second" {
		t.Fatalf("expected topic 5 first with the latest text, got %+v", b.Queries[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := query.Load(filepath.Join(t.TempDir(), "topics.txt"))
	if !errors.Is(err, sieve.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
