package eval

import (
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/hscells/sieve"
	"github.com/hscells/sieve/output"
	"github.com/hscells/sieve/qrels"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Options controls which measures the engine computes.
type Options struct {
	// Depth is the rank cutoff K.
	Depth int
	// Grade is the smallest relevance grade counted as relevant.
	Grade int64
	// RecallZeroAsZero scores recall as 0 rather than undefined for topics without
	// relevant documents.
	RecallZeroAsZero bool
	// PrecisionOverK always divides precision by K, even for short result lists.
	PrecisionOverK bool
	// Residual adds the measures again with unjudged retrieved documents read as relevant.
	Residual bool
	// Extra measures are computed after the default ones.
	Extra []Evaluator
}

// OptionsFromConfig builds engine options from an experiment configuration.
func OptionsFromConfig(c sieve.EvalConfig) Options {
	return Options{
		Depth:            c.Depth,
		Grade:            c.RelevanceGrade,
		RecallZeroAsZero: c.RecallZeroAsZero,
		PrecisionOverK:   c.PrecisionOverK,
	}
}

// Evaluators returns the measures to compute, in report order.
func (o Options) Evaluators() []Evaluator {
	k, grade := o.Depth, o.Grade
	if k <= 0 {
		k = sieve.DefaultDepth
	}
	if grade <= 0 {
		grade = sieve.DefaultRelevanceGrade
	}
	evaluators := []Evaluator{
		PrecisionAtK{K: k, Grade: grade, OverK: o.PrecisionOverK},
		RecallAtK{K: k, Grade: grade, ZeroAsZero: o.RecallZeroAsZero},
		AveragePrecisionAtK{K: k, Grade: grade},
		ReciprocalRankAtK{K: k, Grade: grade},
	}
	if o.Residual {
		for _, e := range evaluators[:4] {
			evaluators = append(evaluators, NewResidualEvaluator(e, grade))
		}
	}
	return append(evaluators, o.Extra...)
}

// Report is the outcome of evaluating one run.
type Report struct {
	// Names lists the measures in report order.
	Names []string
	// Measures holds the macro average of each measure over the topics of the run.
	Measures map[string]float64
	// PerTopic holds the score of each measure for each topic of the run.
	PerTopic map[string]map[string]float64
	// NumQ is the number of topics evaluated.
	NumQ int
	// SkippedRun and SkippedQrels count the malformed lines dropped from each file.
	// DuplicateRun counts repeated (topic, document) pairs dropped from the run.
	SkippedRun   int
	DuplicateRun int
	SkippedQrels int
}

// Topics returns the evaluated topics in numeric order.
func (r Report) Topics() []string {
	topics := make([]string, 0, len(r.PerTopic))
	for topic := range r.PerTopic {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		a, _ := strconv.ParseInt(topics[i], 10, 64)
		b, _ := strconv.ParseInt(topics[j], 10, 64)
		return a < b
	})
	return topics
}

// Table returns the per-topic scores laid out for an output.MeasurementFormatter.
func (r Report) Table() (topics, headers []string, data [][]float64) {
	topics = r.Topics()
	headers = r.Names
	data = make([][]float64, len(headers))
	for i, name := range headers {
		data[i] = make([]float64, len(topics))
		for j, topic := range topics {
			data[i][j] = r.PerTopic[topic][name]
		}
	}
	return
}

// Engine evaluates run files against judgment files.
type Engine struct {
	options Options
	logger  *zap.Logger
}

// EngineLogger sets the logger that reports skipped lines.
func EngineLogger(logger *zap.Logger) func(*Engine) {
	return func(e *Engine) {
		e.logger = logger
		return
	}
}

// NewEngine creates an engine computing the measures described by options.
func NewEngine(options Options, opts ...func(*Engine)) *Engine {
	e := &Engine{options: options, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateFiles evaluates the run at runPath against the judgments at qrelsPath. A
// missing file is a configuration error.
func (e *Engine) EvaluateFiles(runPath, qrelsPath string) (Report, error) {
	run, err := os.Open(runPath)
	if err != nil {
		return Report{}, errors.Wrapf(sieve.ErrConfiguration, "run %s: %v", runPath, err)
	}
	defer run.Close()
	judgments, err := os.Open(qrelsPath)
	if err != nil {
		return Report{}, errors.Wrapf(sieve.ErrConfiguration, "qrels %s: %v", qrelsPath, err)
	}
	defer judgments.Close()
	return e.EvaluateReaders(run, judgments)
}

// EvaluateReaders evaluates a run against judgments. Malformed lines are skipped and
// counted. It fails with sieve.ErrNoValidData when either input has no valid line.
func (e *Engine) EvaluateReaders(runReader, qrelsReader io.Reader) (Report, error) {
	run, err := output.ReadRun(runReader)
	if err != nil {
		return Report{}, errors.Wrap(err, "read run")
	}
	judgments, err := qrels.Read(qrelsReader)
	if err != nil {
		return Report{}, errors.Wrap(err, "read qrels")
	}

	report := Report{
		SkippedRun:   run.Skipped,
		DuplicateRun: run.Duplicates,
		SkippedQrels: judgments.Skipped,
	}
	if run.Skipped > 0 || run.Duplicates > 0 {
		e.logger.Warn("skipped run lines", zap.Int("malformed", run.Skipped), zap.Int("duplicates", run.Duplicates))
	}
	if judgments.Skipped > 0 {
		e.logger.Warn("skipped qrels lines", zap.Int("malformed", judgments.Skipped))
	}
	if run.Len() == 0 {
		return report, errors.WithMessage(sieve.ErrNoValidData, "run has no valid lines")
	}
	if judgments.Len() == 0 {
		return report, errors.WithMessage(sieve.ErrNoValidData, "qrels have no valid lines")
	}

	evaluators := e.options.Evaluators()
	report.Names = make([]string, len(evaluators))
	for i, evaluator := range evaluators {
		report.Names[i] = evaluator.Name()
	}
	report.PerTopic = Evaluate(evaluators, run.ResultFile, judgments.QrelsFile)
	report.Measures = Summarise(report.PerTopic)
	report.NumQ = len(report.PerTopic)

	e.logger.Info("evaluated run", zap.Int("topics", report.NumQ), zap.Int("entries", run.Len()))
	return report, nil
}
