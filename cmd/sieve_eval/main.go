package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/hscells/sieve/cmd"
	"github.com/hscells/sieve/eval"
	"github.com/hscells/sieve/output"
	"github.com/pkg/errors"
)

var (
	name    = "sieve_eval"
	version = "19.Oct.2026"
	author  = "Harry Scells"
)

type args struct {
	cmd.Common
	Depth            int    `help:"Rank cutoff (default from config)" arg:"-k"`
	RelevanceGrade   int64  `help:"Minimum level of relevance to consider (default from config)" arg:"-l"`
	RecallZeroAsZero bool   `help:"Score recall as 0 for topics without relevant documents"`
	PrecisionOverK   bool   `help:"Always divide precision by the cutoff"`
	Residual         bool   `help:"Also report measures with unjudged documents read as relevant"`
	NDCG             bool   `help:"Also report nDCG at the cutoff"`
	PerTopic         bool   `help:"Output a score per topic instead of the summary" arg:"-t"`
	Format           string `help:"Output format: text, json or csv" arg:"-f"`
	QrelsFile        string `help:"Path to qrels file" arg:"required,positional"`
	RunFile          string `help:"Path to run file" arg:"required,positional"`
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
	args.Format = "text"
	arg.MustParse(&args)

	if err := run(args); err != nil {
		cmd.Report(os.Stderr, err, args.Debug)
		os.Exit(1)
	}
}

func run(args args) error {
	config, logger, err := args.Setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	options := eval.OptionsFromConfig(config.Eval)
	if args.Depth > 0 {
		options.Depth = args.Depth
	}
	if args.RelevanceGrade > 0 {
		options.Grade = args.RelevanceGrade
	}
	options.RecallZeroAsZero = options.RecallZeroAsZero || args.RecallZeroAsZero
	options.PrecisionOverK = options.PrecisionOverK || args.PrecisionOverK
	options.Residual = args.Residual
	if args.NDCG {
		options.Extra = append(options.Extra, eval.NDCGAtK{K: options.Depth})
	}

	report, err := eval.NewEngine(options, eval.EngineLogger(logger)).EvaluateFiles(args.RunFile, args.QrelsFile)
	if err != nil {
		return err
	}
	if report.SkippedRun > 0 || report.DuplicateRun > 0 || report.SkippedQrels > 0 {
		fmt.Fprintf(os.Stderr, "skipped %d run lines (%d duplicates) and %d qrels lines\n",
			report.SkippedRun, report.DuplicateRun, report.SkippedQrels)
	}

	var s string
	if args.PerTopic {
		var formatter output.MeasurementFormatter
		switch args.Format {
		case "json":
			formatter = output.JsonMeasurementFormatter
		case "csv", "text":
			formatter = output.CsvMeasurementFormatter
		default:
			return errors.Errorf("unknown format %q", args.Format)
		}
		s, err = formatter(report.Table())
	} else {
		var formatter output.EvaluationFormatter
		switch args.Format {
		case "json":
			formatter = output.JsonEvaluationFormatter
		case "text", "csv":
			formatter = output.TextEvaluationFormatter
		default:
			return errors.Errorf("unknown format %q", args.Format)
		}
		s, err = formatter(append([]string{}, report.Names...), report.Measures)
		if err == nil && args.Format == "text" {
			s += fmt.Sprintf("%-10s\tall\t%d\n", "num_q", report.NumQ)
		}
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(s)
	return err
}
