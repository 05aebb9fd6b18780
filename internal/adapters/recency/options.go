// Package recency maintains bounded, TTL-backed lists of recent session
// summaries, one per user.
package recency

import "time"

// Option applies a configuration option to the MemoryCache.
type Option func(*MemoryCache)

// WithMaxEntries bounds each user's list.
func WithMaxEntries(n int) Option {
	return func(c *MemoryCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithTTL sets how long a user's list lives after its last append.
func WithTTL(ttl time.Duration) Option {
	return func(c *MemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithJanitorInterval sets how often expired lists are swept.
func WithJanitorInterval(interval time.Duration) Option {
	return func(c *MemoryCache) {
		if interval > 0 {
			c.janitorInterval = interval
		}
	}
}
