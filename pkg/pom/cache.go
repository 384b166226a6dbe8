package pom

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of parsed documents a Cache keeps
const DefaultCacheSize = 4096

type cacheEntry struct {
	modTime time.Time
	size    int64
	doc     *Document
}

// Cache keeps parsed documents between runs. An entry is reused only while
// the file's size and modification time are unchanged. Cached documents are
// shared and must not be modified by callers.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache creates a cache holding at most size documents
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating document cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// ReadFile behaves like the package-level ReadFile but serves unchanged
// files from the cache. Failed reads are not cached.
func (c *Cache) ReadFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if entry, ok := c.entries.Get(path); ok && entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
		c.hits.Add(1)
		return entry.doc, nil
	}
	c.misses.Add(1)

	doc, err := ReadFile(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, err
	}
	c.entries.Add(path, cacheEntry{modTime: info.ModTime(), size: info.Size(), doc: doc})
	return doc, nil
}

// Stats returns the hit and miss counts since the cache was created
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached documents
func (c *Cache) Len() int {
	return c.entries.Len()
}
