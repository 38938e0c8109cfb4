package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/hscells/sieve/cmd"
	"github.com/hscells/sieve/pipeline"
	"github.com/hscells/sieve/query"
	"github.com/hscells/sieve/rerank"
	"github.com/hscells/sieve/retrieval"
)

var (
	name    = "sieve_run"
	version = "19.Oct.2026"
	author  = "Harry Scells"
)

type args struct {
	cmd.Common
	Rerank   bool   `help:"Rerank the lexical candidates with the cross-encoder" arg:"-r"`
	RunName  string `help:"Name written in the last column (default from config)" arg:"-n"`
	Corpus   string `help:"Search an in-memory index of this JSON lines corpus instead of Elasticsearch"`
	Progress bool   `help:"Show a progress bar" arg:"-p"`
	Queries  string `help:"Path to a qid<TAB>text query file, or a directory with one query file per qid" arg:"required,positional"`
	Output   string `help:"Path of the run file to write" arg:"required,positional"`
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
	arg.MustParse(&args)

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

	batch, err := query.SourceFor(args.Queries).Load(args.Queries)
	if err != nil {
		return err
	}
	if batch.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "skipped %d malformed query lines\n", batch.Skipped)
	}

	corpus, err := cmd.Backend(ctx, config, args.Corpus, logger)
	if err != nil {
		return err
	}

	runName := config.Retrieval.RunName
	options := []func(*pipeline.RunBuilder){pipeline.Logger(logger)}
	if args.Rerank {
		scorer, err := cmd.Scorer(config.Rerank)
		if err != nil {
			return err
		}
		options = append(options, pipeline.Rerank(rerank.NewReranker(scorer, config.Rerank.BatchSize)))
		runName = config.Rerank.RunName
	}
	if len(args.RunName) > 0 {
		runName = args.RunName
	}
	options = append(options, pipeline.RunName(runName))
	if args.Progress {
		options = append(options, pipeline.Progress(os.Stderr))
	}

	builder := pipeline.NewRunBuilder(retrieval.NewRetriever(corpus, config.Retrieval.TopK), options...)
	summary, err := builder.BuildFile(ctx, batch.Queries, args.Output)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d lines for %d queries (%d without candidates) written to %s\n",
		summary.RunName, summary.Entries, summary.Queries(), summary.Count(pipeline.Empty), args.Output)
	return nil
}
