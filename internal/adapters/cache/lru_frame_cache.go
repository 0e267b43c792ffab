package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUFrameCache keeps the most recently requested encoded frames in memory,
// keyed by scene fingerprint. It is safe for concurrent use.
type LRUFrameCache struct {
	c *lru.Cache[uint64, []byte]
}

func NewLRUFrameCache(size int) (*LRUFrameCache, error) {
	c, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("new frame cache: %w", err)
	}
	return &LRUFrameCache{c: c}, nil
}

func (f *LRUFrameCache) Get(key uint64) ([]byte, bool) {
	return f.c.Get(key)
}

func (f *LRUFrameCache) Add(key uint64, frame []byte) {
	f.c.Add(key, frame)
}

func (f *LRUFrameCache) Len() int { return f.c.Len() }
