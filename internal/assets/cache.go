package assets

import (
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Faultbox/midgard-uo/pkg/art"
)

// Kind separates the ID spaces sharing the sprite cache.
type Kind uint8

// Sprite kinds.
const (
	KindLand Kind = iota
	KindStatic
	KindTexmap
)

func cacheKey(kind Kind, id uint32) uint64 {
	return uint64(kind)<<32 | uint64(id)
}

// SpriteCache keeps decoded sprites bounded by their pixel bytes. Decode
// failures are not cached.
type SpriteCache struct {
	cache  *ristretto.Cache[uint64, *art.Sprite]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewSpriteCache creates a cache holding up to maxBytes of pixels. A zero
// size disables caching.
func NewSpriteCache(maxBytes int64) (*SpriteCache, error) {
	c := &SpriteCache{}
	if maxBytes <= 0 {
		return c, nil
	}

	// About ten counters per expected entry, at an average of 512 bytes.
	counters := max(maxBytes/512*10, 1000)
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *art.Sprite]{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	c.cache = cache
	return c, nil
}

// Get retrieves a sprite.
func (c *SpriteCache) Get(kind Kind, id uint32) (*art.Sprite, bool) {
	if c.cache == nil {
		c.misses.Add(1)
		return nil, false
	}
	s, ok := c.cache.Get(cacheKey(kind, id))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return s, ok
}

// Set stores a sprite. Admission is asynchronous; call Wait to observe it.
func (c *SpriteCache) Set(kind Kind, id uint32, s *art.Sprite) {
	if c.cache == nil || s == nil {
		return
	}
	c.cache.Set(cacheKey(kind, id), s, int64(max(s.Bytes(), 1)))
}

// Wait blocks until pending sets are applied.
func (c *SpriteCache) Wait() {
	if c.cache != nil {
		c.cache.Wait()
	}
}

func (c *SpriteCache) getOrLoad(kind Kind, id uint32, load func() (*art.Sprite, error)) (*art.Sprite, error) {
	if s, ok := c.Get(kind, id); ok {
		return s, nil
	}
	s, err := load()
	if err != nil {
		return nil, err
	}
	c.Set(kind, id, s)
	return s, nil
}

// Clear drops every entry and resets the statistics.
func (c *SpriteCache) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *SpriteCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close stops the cache's background goroutines.
func (c *SpriteCache) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}
