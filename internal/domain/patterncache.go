package domain

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// patternCache holds compiled name patterns keyed by the joined word list.
// A nil backing cache means caching is disabled.
type patternCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

func newPatternCache(maxEntries int) *patternCache {
	if maxEntries <= 0 {
		return &patternCache{}
	}
	c, err := lru.New[string, *regexp.Regexp](maxEntries)
	if err != nil {
		return &patternCache{}
	}
	return &patternCache{cache: c}
}

func (c *patternCache) get(key string) (*regexp.Regexp, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *patternCache) put(key string, re *regexp.Regexp) {
	if c.cache != nil {
		c.cache.Add(key, re)
	}
}

func (c *patternCache) len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
