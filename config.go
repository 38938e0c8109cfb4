// Package sieve evaluates lexical retrieval and cross-encoder reranking against TREC relevance judgments.
//
// The root package holds the pieces shared by every stage: the error taxonomy and the
// experiment configuration. The stages themselves live in the index, retrieval, rerank,
// pipeline and eval packages.
package sieve

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Defaults for a run: top 50 from BM25, reranked in batches of 32 and measured at
// depth 5.
const (
	DefaultTopK           = 50
	DefaultBatchSize      = 32
	DefaultDepth          = 5
	DefaultRelevanceGrade = 1
	DefaultBulkSize       = 500

	DefaultLexicalRunName  = "bm25"
	DefaultRerankedRunName = "bm25+cross-encoder"
	DefaultRerankModel     = "cross-encoder/ms-marco-MiniLM-L-6-v2"
)

// Config is the complete configuration of an experiment. It is passed explicitly into
// each component when it is constructed.
type Config struct {
	Elasticsearch ElasticsearchConfig `toml:"elasticsearch"`
	Retrieval     RetrievalConfig     `toml:"retrieval"`
	Rerank        RerankConfig        `toml:"rerank"`
	Eval          EvalConfig          `toml:"eval"`
}

// ElasticsearchConfig configures the Elasticsearch backend.
type ElasticsearchConfig struct {
	Hosts         []string `toml:"hosts"`
	DocumentIndex string   `toml:"documents"`
	QrelsIndex    string   `toml:"qrels"`
	Sniff         bool     `toml:"sniff"`
	BulkSize      int      `toml:"bulk_size"`
}

// RetrievalConfig configures the lexical stage.
type RetrievalConfig struct {
	TopK    int      `toml:"top_k"`
	Fields  []string `toml:"fields"`
	RunName string   `toml:"run_name"`
	// Stem and Stopwords configure the tokeniser of the in-memory index.
	Stem      bool `toml:"stem"`
	Stopwords bool `toml:"stopwords"`
}

// RerankConfig configures the cross-encoder stage.
type RerankConfig struct {
	Endpoint          string  `toml:"endpoint"`
	Model             string  `toml:"model"`
	BatchSize         int     `toml:"batch_size"`
	RunName           string  `toml:"run_name"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CacheSize         int     `toml:"cache_size"`
	CacheDir          string  `toml:"cache_dir"`
}

// EvalConfig configures the metrics engine.
type EvalConfig struct {
	Depth          int   `toml:"depth"`
	RelevanceGrade int64 `toml:"relevance_grade"`
	// RecallZeroAsZero scores recall as 0 for topics without relevant documents
	// instead of leaving them out of the average.
	RecallZeroAsZero bool `toml:"recall_zero_as_zero"`
	// PrecisionOverK divides precision by the depth even when fewer documents were
	// retrieved, as trec_eval does.
	PrecisionOverK bool `toml:"precision_over_k"`
}

// DefaultConfig returns a configuration that talks to a local Elasticsearch.
func DefaultConfig() Config {
	return Config{
		Elasticsearch: ElasticsearchConfig{
			Hosts:         []string{"http://localhost:9200"},
			DocumentIndex: "sw_corpus",
			QrelsIndex:    "sw_qrels",
			BulkSize:      DefaultBulkSize,
		},
		Retrieval: RetrievalConfig{
			TopK:    DefaultTopK,
			Fields:  []string{"title", "text"},
			RunName: DefaultLexicalRunName,
		},
		Rerank: RerankConfig{
			Endpoint:  "http://localhost:8080/rerank",
			Model:     DefaultRerankModel,
			BatchSize: DefaultBatchSize,
			RunName:   DefaultRerankedRunName,
			CacheSize: 4096,
		},
		Eval: EvalConfig{
			Depth:          DefaultDepth,
			RelevanceGrade: DefaultRelevanceGrade,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys missing from the file keep
// their default value.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		return c, errors.Wrapf(ErrConfiguration, "config %s: %v", path, err)
	}
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, errors.Wrapf(ErrConfiguration, "config %s: %v", path, err)
	}
	return c, c.Validate()
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	switch {
	case len(c.Elasticsearch.Hosts) == 0:
		return errors.WithMessage(ErrConfiguration, "no elasticsearch hosts")
	case c.Elasticsearch.DocumentIndex == "" || c.Elasticsearch.QrelsIndex == "":
		return errors.WithMessage(ErrConfiguration, "index names must not be empty")
	case c.Elasticsearch.BulkSize <= 0:
		return errors.WithMessage(ErrConfiguration, "bulk_size must be positive")
	case c.Retrieval.TopK <= 0:
		return errors.WithMessage(ErrConfiguration, "top_k must be positive")
	case len(c.Retrieval.Fields) == 0:
		return errors.WithMessage(ErrConfiguration, "no retrieval fields")
	case c.Rerank.BatchSize <= 0:
		return errors.WithMessage(ErrConfiguration, "batch_size must be positive")
	case c.Retrieval.RunName == "" || c.Rerank.RunName == "":
		return errors.WithMessage(ErrConfiguration, "run names must not be empty")
	case strings.ContainsAny(c.Retrieval.RunName+c.Rerank.RunName, " \t\r\n"):
		return errors.WithMessage(ErrConfiguration, "run names must not contain whitespace")
	case c.Retrieval.RunName == c.Rerank.RunName:
		return errors.WithMessage(ErrConfiguration, "lexical and reranked runs need distinct names")
	case c.Eval.Depth <= 0:
		return errors.WithMessage(ErrConfiguration, "depth must be positive")
	case c.Eval.RelevanceGrade <= 0:
		return errors.WithMessage(ErrConfiguration, "relevance_grade must be positive")
	}
	return nil
}
