package rerank

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
)

// BlockTransform determines how diskv should partition folders. At most depth
// directories are created for a key.
func BlockTransform(blockSize, depth int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = min(len(s)/blockSize, depth)
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// CachedScorer remembers the scores of pairs it has already seen, in memory and
// optionally on disk, and only sends the rest to the underlying scorer. It is safe
// for concurrent use; batches are answered one at a time.
type CachedScorer struct {
	mu        sync.Mutex
	scorer    Scorer
	namespace string
	memory    *lru.Cache
	disk      *diskv.Diskv
}

// CacheNamespace separates the scores of different models sharing a cache directory.
func CacheNamespace(namespace string) func(*CachedScorer) {
	return func(c *CachedScorer) {
		c.namespace = namespace
		return
	}
}

// CacheDirectory persists scores under dir.
func CacheDirectory(dir string) func(*CachedScorer) {
	return func(c *CachedScorer) {
		c.disk = diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    BlockTransform(2, 2),
			CacheSizeMax: 1024 * 1024,
		})
		return
	}
}

// NewCachedScorer wraps scorer with an LRU cache holding up to size scores.
func NewCachedScorer(scorer Scorer, size int, options ...func(*CachedScorer)) (*CachedScorer, error) {
	memory, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "score cache")
	}
	c := &CachedScorer{scorer: scorer, memory: memory}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

func (c *CachedScorer) key(p Pair) string {
	h := sha256.New()
	h.Write([]byte(c.namespace))
	h.Write([]byte{0})
	h.Write([]byte(p.Query))
	h.Write([]byte{0})
	h.Write([]byte(p.Document))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedScorer) get(key string) (float64, bool) {
	if v, ok := c.memory.Get(key); ok {
		return v.(float64), true
	}
	if c.disk == nil {
		return 0, false
	}
	b, err := c.disk.Read(key)
	if err != nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	c.memory.Add(key, score)
	return score, true
}

func (c *CachedScorer) put(key string, score float64) error {
	c.memory.Add(key, score)
	if c.disk == nil {
		return nil
	}
	return c.disk.Write(key, []byte(strconv.FormatFloat(score, 'g', -1, 64)))
}

// ScoreBatch answers cached pairs directly and scores the misses in one call, in
// their original order.
func (c *CachedScorer) ScoreBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		scores = make([]float64, len(pairs))
		keys   = make([]string, len(pairs))
		misses []Pair
		at     []int
	)
	for i, p := range pairs {
		keys[i] = c.key(p)
		if score, ok := c.get(keys[i]); ok {
			scores[i] = score
			continue
		}
		misses = append(misses, p)
		at = append(at, i)
	}
	if len(misses) == 0 {
		return scores, nil
	}

	fresh, err := c.scorer.ScoreBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(misses) {
		return nil, errors.Errorf("scorer returned %d scores for %d pairs", len(fresh), len(misses))
	}
	for k, i := range at {
		scores[i] = fresh[k]
		if err := c.put(keys[i], fresh[k]); err != nil {
			return nil, errors.Wrap(err, "score cache")
		}
	}
	return scores, nil
}
