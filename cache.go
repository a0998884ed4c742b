package facegrab

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultDetectionCacheSize = 4096

// CachedDetector memoizes subject counts by ExactHash, so the same bytes
// served under different URLs, or seen again by a later run in the same
// process, are only classified once. Errors are not cached.
//
// It caches detector output only; it does not carry dedup state between runs.
type CachedDetector struct {
	Detector SubjectDetector
	cache    *lru.Cache[string, int]
}

// NewCachedDetector wraps d with an LRU of the given size (default 4096).
func NewCachedDetector(d SubjectDetector, size int) (*CachedDetector, error) {
	if size <= 0 {
		size = defaultDetectionCacheSize
	}
	cache, err := lru.New[string, int](size)
	if err != nil {
		return nil, err
	}
	return &CachedDetector{Detector: d, cache: cache}, nil
}

// DetectCount implements SubjectDetector.
func (c *CachedDetector) DetectCount(ctx context.Context, img *DecodedImage) (int, error) {
	if img.Digest == "" {
		return c.Detector.DetectCount(ctx, img)
	}
	if n, ok := c.cache.Get(img.Digest); ok {
		return n, nil
	}
	n, err := c.Detector.DetectCount(ctx, img)
	if err != nil {
		return 0, err
	}
	c.cache.Add(img.Digest, n)
	return n, nil
}

// Len returns the number of cached counts.
func (c *CachedDetector) Len() int {
	return c.cache.Len()
}
