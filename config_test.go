package sieve_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hscells/sieve"
	"github.com/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	c := sieve.DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.Retrieval.TopK != 50 || c.Rerank.BatchSize != 32 || c.Eval.Depth != 5 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Retrieval.RunName == c.Rerank.RunName {
		t.Fatal("run names must differ")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sieve.toml")
	err := os.WriteFile(path, []byte(`
[elasticsearch]
hosts = ["http://es:9200"]

[retrieval]
top_k = 100

[eval]
depth = 10
recall_zero_as_zero = true
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	c, err := sieve.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Elasticsearch.Hosts[0] != "http://es:9200" {
		t.Fatalf("hosts = %v", c.Elasticsearch.Hosts)
	}
	if c.Retrieval.TopK != 100 || c.Eval.Depth != 10 || !c.Eval.RecallZeroAsZero {
		t.Fatalf("unexpected config %+v", c)
	}
	// Untouched keys keep their defaults.
	if c.Rerank.BatchSize != sieve.DefaultBatchSize || c.Elasticsearch.DocumentIndex != "sw_corpus" {
		t.Fatalf("defaults were lost %+v", c)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := sieve.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, sieve.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sieve.Config)
	}{
		{"top_k", func(c *sieve.Config) { c.Retrieval.TopK = 0 }},
		{"batch", func(c *sieve.Config) { c.Rerank.BatchSize = -1 }},
		{"depth", func(c *sieve.Config) { c.Eval.Depth = 0 }},
		{"hosts", func(c *sieve.Config) { c.Elasticsearch.Hosts = nil }},
		{"same run names", func(c *sieve.Config) { c.Rerank.RunName = c.Retrieval.RunName }},
		{"whitespace run name", func(c *sieve.Config) { c.Rerank.RunName = "bm25 ce" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sieve.DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, sieve.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestIndexNotFoundIsConfigurationError(t *testing.T) {
	err := errors.Wrap(sieve.ErrIndexNotFound, "search sw_corpus")
	if !errors.Is(err, sieve.ErrIndexNotFound) || !errors.Is(err, sieve.ErrConfiguration) {
		t.Fatalf("unexpected error chain %v", err)
	}
	if errors.Is(sieve.ErrConfiguration, sieve.ErrIndexNotFound) {
		t.Fatal("configuration errors are not all missing indices")
	}
}
