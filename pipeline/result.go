package pipeline

// ResultType is the outcome of running one query.
type ResultType uint8

const (
	// Ranked means the query wrote at least one run line.
	Ranked ResultType = iota
	// Empty means the query had no candidates and wrote nothing.
	Empty
	// Failed means the query stopped the run.
	Failed
)

func (t ResultType) String() string {
	switch t {
	case Ranked:
		return "ranked"
	case Empty:
		return "empty"
	}
	return "failed"
}

// QueryResult records what a run did for one query.
type QueryResult struct {
	Topic   int64
	Entries int
	Type    ResultType
	Error   error
}

// Summary describes a finished, or interrupted, run.
type Summary struct {
	RunName string
	Results []QueryResult
	// Entries is the number of run lines written.
	Entries int
}

// Queries is the number of queries attempted.
func (s Summary) Queries() int {
	return len(s.Results)
}

// Count returns how many queries ended with t.
func (s Summary) Count(t ResultType) int {
	n := 0
	for _, r := range s.Results {
		if r.Type == t {
			n++
		}
	}
	return n
}
