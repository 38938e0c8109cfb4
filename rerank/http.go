package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hscells/sieve"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Model   string         `json:"model"`
	Results []rerankResult `json:"results"`
}

// HTTPScorer scores pairs with a cross-encoder served behind a /rerank endpoint that
// takes a query with a list of documents and answers with one relevance score per
// document index.
type HTTPScorer struct {
	endpoint string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
}

// HTTPModel sets the model name sent with every request.
func HTTPModel(model string) func(*HTTPScorer) {
	return func(s *HTTPScorer) {
		s.model = model
		return
	}
}

// HTTPClient sets the client used for requests.
func HTTPClient(client *http.Client) func(*HTTPScorer) {
	return func(s *HTTPScorer) {
		s.client = client
		return
	}
}

// HTTPRateLimit limits the number of requests per second. Zero means unlimited.
func HTTPRateLimit(rps float64) func(*HTTPScorer) {
	return func(s *HTTPScorer) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			s.limiter = nil
		}
		return
	}
}

// NewHTTPScorer creates a scorer for endpoint.
func NewHTTPScorer(endpoint string, options ...func(*HTTPScorer)) *HTTPScorer {
	s := &HTTPScorer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// ScoreBatch sends one request per run of consecutive pairs sharing a query.
func (s *HTTPScorer) ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	for i := 0; i < len(pairs); {
		j := i + 1
		for j < len(pairs) && pairs[j].Query == pairs[i].Query {
			j++
		}
		docs := make([]string, j-i)
		for k := i; k < j; k++ {
			docs[k-i] = pairs[k].Document
		}
		group, err := s.score(ctx, pairs[i].Query, docs)
		if err != nil {
			return nil, err
		}
		copy(scores[i:j], group)
		i = j
	}
	return scores, nil
}

func (s *HTTPScorer) score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	b, err := json.Marshal(rerankRequest{Model: s.model, Query: query, Documents: docs})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(sieve.ErrConfiguration, "scorer endpoint %q: %v", s.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(sieve.ErrBackendUnavailable, "scorer %s: %v", s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Wrapf(sieve.ErrBackendUnavailable, "scorer %s: %s", s.endpoint, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("scorer %s: %s: %s", s.endpoint, resp.Status, bytes.TrimSpace(msg))
	}

	var r rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode scorer response")
	}
	if len(r.Results) != len(docs) {
		return nil, errors.Errorf("scorer returned %d results for %d documents", len(r.Results), len(docs))
	}
	scores := make([]float64, len(docs))
	seen := make([]bool, len(docs))
	for _, res := range r.Results {
		if res.Index < 0 || res.Index >= len(docs) || seen[res.Index] {
			return nil, errors.Errorf("scorer returned invalid document index %d", res.Index)
		}
		seen[res.Index] = true
		scores[res.Index] = res.RelevanceScore
	}
	return scores, nil
}
