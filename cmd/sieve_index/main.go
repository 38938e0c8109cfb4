package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/hscells/sieve/cmd"
	"github.com/hscells/sieve/index"
	"github.com/hscells/sieve/qrels"
	"go.uber.org/zap"
)

var (
	name    = "sieve_index"
	version = "19.Oct.2026"
	author  = "Harry Scells"
)

type args struct {
	cmd.Common
	Corpus string `help:"Path to a JSON lines corpus of docid, title and text" arg:"positional"`
	Qrels  string `help:"Path to a qrels file to store next to the corpus" arg:"-q"`
}

func (args) Version() string {
	return version
}

func (args) Description() string {
	return fmt.Sprintf(`%s
@ %s
# %s`, name, author, version)
}

func main() {
	var args args
	p := arg.MustParse(&args)
	if len(args.Corpus) == 0 && len(args.Qrels) == 0 {
		p.Fail("nothing to index, quitting")
	}

	if err := run(args); err != nil {
		cmd.Report(os.Stderr, err, args.Debug)
		os.Exit(1)
	}
}

func run(args args) error {
	ctx := context.Background()
	config, logger, err := args.Setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	backend, err := cmd.Elasticsearch(config.Elasticsearch)
	if err != nil {
		return err
	}
	corpus := index.NewCorpusIndex(backend, index.CorpusFields(config.Retrieval.Fields...), index.CorpusLogger(logger))
	if err := corpus.Ensure(ctx); err != nil {
		return err
	}

	if len(args.Corpus) > 0 {
		documents, err := cmd.LoadCorpus(args.Corpus)
		if err != nil {
			return err
		}
		stats, err := corpus.Ingest(ctx, documents.Documents)
		if err != nil {
			return err
		}
		n, err := corpus.Count(ctx)
		if err != nil {
			return err
		}
		logger.Info("indexed corpus", zap.String("index", config.Elasticsearch.DocumentIndex), zap.Int64("documents", n))
		fmt.Printf("documents: %d indexed, %d skipped, %d failed, %d malformed lines\n",
			stats.Indexed, stats.Skipped, stats.Failed, documents.Skipped)
	}

	if len(args.Qrels) > 0 {
		judgments, err := qrels.Load(args.Qrels)
		if err != nil {
			return err
		}
		stats, err := corpus.IngestJudgments(ctx, judgments.Index())
		if err != nil {
			return err
		}
		fmt.Printf("judgments: %d indexed, %d failed, %d malformed lines\n",
			stats.Indexed, stats.Failed, judgments.Skipped)
	}
	return nil
}
