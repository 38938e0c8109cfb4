package cmd

import (
	"context"
	"fmt"
	"io"

	goerrors "github.com/go-errors/errors"
	"github.com/hscells/sieve"
	"github.com/hscells/sieve/index"
	"github.com/hscells/sieve/rerank"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Common are the arguments every utility accepts.
type Common struct {
	Config   string `help:"Path to a TOML configuration file" arg:"-c"`
	Debug    bool   `help:"Verbose logging and stack traces on failure"`
	JSONLogs bool   `help:"Log JSON lines instead of console output" arg:"--json-logs"`
}

// Setup loads the configuration, or the defaults when no file is given, and builds a
// logger writing to stderr.
func (c Common) Setup() (sieve.Config, *zap.Logger, error) {
	config := sieve.DefaultConfig()
	if len(c.Config) > 0 {
		var err error
		config, err = sieve.LoadConfig(c.Config)
		if err != nil {
			return config, zap.NewNop(), err
		}
	}
	logger, err := NewLogger(c.Debug, c.JSONLogs)
	return config, logger, err
}

// NewLogger builds a console logger, or a JSON logger when json is set.
func NewLogger(debug, json bool) (*zap.Logger, error) {
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

// Report prints a fatal error to w. In debug mode the stack of the failure is included.
func Report(w io.Writer, err error, debug bool) {
	if debug {
		fmt.Fprintln(w, goerrors.Wrap(err, 1).ErrorStack())
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// Backend connects to Elasticsearch, or builds an in-memory index of corpusPath when
// one is given.
func Backend(ctx context.Context, config sieve.Config, corpusPath string, logger *zap.Logger) (*index.CorpusIndex, error) {
	options := []func(*index.CorpusIndex){
		index.CorpusFields(config.Retrieval.Fields...),
		index.CorpusLogger(logger),
	}
	if len(corpusPath) == 0 {
		backend, err := Elasticsearch(config.Elasticsearch)
		if err != nil {
			return nil, err
		}
		corpus := index.NewCorpusIndex(backend, options...)
		ok, err := backend.Exists(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(sieve.ErrIndexNotFound, "index %s", config.Elasticsearch.DocumentIndex)
		}
		return corpus, nil
	}

	documents, err := LoadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	if documents.Skipped > 0 {
		logger.Warn("skipped corpus lines", zap.Int("skipped", documents.Skipped))
	}
	backend := index.NewMemoryBackend(
		index.MemoryStemming(config.Retrieval.Stem),
		index.MemoryStopwords(config.Retrieval.Stopwords))
	corpus := index.NewCorpusIndex(backend, options...)
	if err := corpus.Ensure(ctx); err != nil {
		return nil, err
	}
	stats, err := corpus.Ingest(ctx, documents.Documents)
	if err != nil {
		return nil, err
	}
	logger.Info("built in-memory index", zap.Int("documents", stats.Indexed), zap.Int("skipped", stats.Skipped))
	return corpus, nil
}

// Elasticsearch connects to the cluster described by the configuration.
func Elasticsearch(config sieve.ElasticsearchConfig) (*index.ElasticsearchBackend, error) {
	return index.NewElasticsearchBackend(
		index.ElasticsearchHosts(config.Hosts...),
		index.ElasticsearchSniff(config.Sniff),
		index.ElasticsearchDocumentIndex(config.DocumentIndex),
		index.ElasticsearchQrelsIndex(config.QrelsIndex),
		index.ElasticsearchBulkSize(config.BulkSize))
}

// Scorer builds the cross-encoder client described by the configuration, behind a
// score cache when one is configured.
func Scorer(config sieve.RerankConfig) (rerank.Scorer, error) {
	var scorer rerank.Scorer = rerank.NewHTTPScorer(config.Endpoint,
		rerank.HTTPModel(config.Model),
		rerank.HTTPRateLimit(config.RequestsPerSecond))
	if config.CacheSize <= 0 {
		return scorer, nil
	}
	options := []func(*rerank.CachedScorer){rerank.CacheNamespace(config.Model)}
	if len(config.CacheDir) > 0 {
		options = append(options, rerank.CacheDirectory(config.CacheDir))
	}
	return rerank.NewCachedScorer(scorer, config.CacheSize, options...)
}
