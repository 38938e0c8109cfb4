package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/hscells/sieve/cmd"
	"github.com/hscells/sieve/index"
	"github.com/hscells/sieve/rerank"
)

var (
	name    = "sieve_search"
	version = "19.Oct.2026"
	author  = "Harry Scells"
)

type args struct {
	cmd.Common
	TopK   int      `help:"Number of candidates to retrieve (default from config)" arg:"-k"`
	Rerank bool     `help:"Rerank the candidates with the cross-encoder" arg:"-r"`
	Corpus string   `help:"Search an in-memory index of this JSON lines corpus instead of Elasticsearch"`
	Query  []string `help:"Query text" arg:"positional,required"`
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

	corpus, err := cmd.Backend(ctx, config, args.Corpus, logger)
	if err != nil {
		return err
	}
	topK := config.Retrieval.TopK
	if args.TopK > 0 {
		topK = args.TopK
	}
	text := strings.Join(args.Query, " ")
	candidates, err := corpus.Search(ctx, text, topK)
	if err != nil {
		return err
	}

	if !args.Rerank {
		for i, c := range candidates {
			show(i+1, c, c.Score)
		}
		return nil
	}

	scorer, err := cmd.Scorer(config.Rerank)
	if err != nil {
		return err
	}
	reranked, err := rerank.NewReranker(scorer, config.Rerank.BatchSize).Rerank(ctx, text, candidates)
	if err != nil {
		return err
	}
	for i, c := range reranked {
		show(i+1, c.Candidate, c.RerankScore)
	}
	return nil
}

func show(rank int, c index.Candidate, score float64) {
	fmt.Printf("%d\t%s\t%s\t%s\n", rank, c.ID, strconv.FormatFloat(score, 'f', 4, 64), c.Title)
}
