package scraper

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"prscraper/pkg/diff"
)

type cacheEntry struct {
	files     []diff.FileStats
	expiresAt time.Time
}

// fileListCache is a TTL-bounded LRU over per-PR code file lists. Entries
// are looked up far more often than they change, so a short TTL keeps
// repeat analysis off the disk without risking stale results across runs.
type fileListCache struct {
	lru *lru.Cache[string, *cacheEntry]
	ttl time.Duration
}

func newFileListCache(size int, ttl time.Duration) (*fileListCache, error) {
	l, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &fileListCache{lru: l, ttl: ttl}, nil
}

func (c *fileListCache) Get(key string) ([]diff.FileStats, bool) {
	e, ok := c.lru.Get(key)
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.files, true
}

func (c *fileListCache) Set(key string, files []diff.FileStats) {
	c.lru.Add(key, &cacheEntry{
		files:     files,
		expiresAt: time.Now().Add(c.ttl),
	})
}
