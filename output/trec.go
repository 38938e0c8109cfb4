package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hscells/sieve"
	"github.com/hscells/trecresults"
	"github.com/pkg/errors"
)

// Iteration is the constant second column of a run line.
const Iteration = "Q0"

// Run is a run file read back into memory. Entries of a topic keep file order.
type Run struct {
	trecresults.ResultFile
	// Skipped is the number of malformed lines dropped while reading.
	Skipped int
	// Duplicates is the number of repeated (topic, document) pairs dropped while reading.
	Duplicates int
	// Topics lists the topics of the run in order of first appearance.
	Topics []string
	n      int
}

// Len is the number of entries read.
func (r Run) Len() int {
	return r.n
}

// FormatResult formats one run line, without a trailing newline.
func FormatResult(r *trecresults.Result) string {
	return fmt.Sprintf("%s %s %s %d %s %s", r.Topic, Iteration, r.DocId, r.Rank, strconv.FormatFloat(r.Score, 'f', -1, 64), r.RunName)
}

// WriteRun writes results as run lines.
func WriteRun(w io.Writer, results trecresults.ResultList) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(w, FormatResult(r)); err != nil {
			return err
		}
	}
	return nil
}

// ReadRun parses `qid Q0 docid rank score run_id` lines. Malformed lines and
// repeated (qid, docid) pairs are skipped and counted; blank lines are ignored.
func ReadRun(r io.Reader) (Run, error) {
	run := Run{ResultFile: trecresults.ResultFile{Results: make(map[string]trecresults.ResultList)}}
	seen := make(map[string]map[string]bool)
	err := sieve.ReadLines(r, func(line string) {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			return
		}
		result, err := ParseResult(line)
		if err != nil {
			run.Skipped++
			return
		}
		if _, ok := seen[result.Topic]; !ok {
			seen[result.Topic] = make(map[string]bool)
			run.Topics = append(run.Topics, result.Topic)
		}
		if seen[result.Topic][result.DocId] {
			run.Duplicates++
			return
		}
		seen[result.Topic][result.DocId] = true
		run.Results[result.Topic] = append(run.Results[result.Topic], result)
		run.n++
	})
	return run, err
}

// ParseResult parses a single run line.
func ParseResult(line string) (*trecresults.Result, error) {
	parts := strings.Fields(line)
	if len(parts) != 6 {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "expected 6 columns, got %d", len(parts))
	}
	topic, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "topic %q", parts[0])
	}
	rank, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "rank %q", parts[3])
	}
	score, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return nil, errors.Wrapf(sieve.ErrDataFormat, "score %q", parts[4])
	}
	return &trecresults.Result{
		Topic:     strconv.FormatInt(topic, 10),
		Iteration: parts[1],
		DocId:     parts[2],
		Rank:      rank,
		Score:     score,
		RunName:   parts[5],
	}, nil
}
