// Package recency maintains bounded, TTL-backed lists of recent session
// summaries, one per user.
package recency

import (
	"context"
	"sync"
	"time"

	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/metrics"
)

// Default cache configuration constants.
const (
	defaultMaxEntries      = 10
	defaultTTL             = 24 * time.Hour
	defaultJanitorInterval = time.Minute
)

// Cache provides append and list access to per-user recency lists.
type Cache interface {
	// Append pushes a summary to the front of the user's list, trims
	// the list to its bound, and resets the list's expiry. The three
	// effects are applied as one atomic unit.
	Append(ctx context.Context, userID string, summary model.RecentSummary) error

	// List returns the user's summaries newest first. An expired or
	// unknown user yields an empty result, not an error.
	List(ctx context.Context, userID string) ([]model.RecentSummary, error)
}

// userList is one user's bounded recency window.
type userList struct {
	summaries []model.RecentSummary
	expiresAt time.Time
}

// MemoryCache implements Cache with in-process per-user lists.
type MemoryCache struct {
	mu    sync.Mutex
	users map[string]*userList

	maxEntries      int
	ttl             time.Duration
	janitorInterval time.Duration

	closed bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMemoryCache creates an in-memory recency cache with configuration
// options.
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		users:           make(map[string]*userList),
		maxEntries:      defaultMaxEntries,
		ttl:             defaultTTL,
		janitorInterval: defaultJanitorInterval,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the background janitor that removes expired lists.
func (c *MemoryCache) Start(ctx context.Context) {
	go func() {
		defer close(c.doneCh)
		ticker := time.NewTicker(c.janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.sweep(time.Now())
			}
		}
	}()
}

// Close stops the janitor and rejects further appends.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stopCh)
	return nil
}

// Append applies push-front, truncate, and expiry refresh under one lock
// so a concurrent List never sees a partially updated list.
func (c *MemoryCache) Append(ctx context.Context, userID string, summary model.RecentSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	now := time.Now()
	list, ok := c.users[userID]
	if !ok || now.After(list.expiresAt) {
		if ok {
			metrics.RecordCacheExpiry()
		}
		list = &userList{}
		c.users[userID] = list
	}

	list.summaries = append([]model.RecentSummary{summary}, list.summaries...)
	if len(list.summaries) > c.maxEntries {
		list.summaries = list.summaries[:c.maxEntries]
		metrics.RecordCacheEviction()
	}
	list.expiresAt = now.Add(c.ttl)

	metrics.UpdateCacheUsers(len(c.users))
	return nil
}

// List returns a copy of the user's current window, newest first.
func (c *MemoryCache) List(ctx context.Context, userID string) ([]model.RecentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, ok := c.users[userID]
	if !ok {
		return []model.RecentSummary{}, nil
	}
	if time.Now().After(list.expiresAt) {
		delete(c.users, userID)
		metrics.RecordCacheExpiry()
		metrics.UpdateCacheUsers(len(c.users))
		return []model.RecentSummary{}, nil
	}

	out := make([]model.RecentSummary, len(list.summaries))
	copy(out, list.summaries)
	return out, nil
}

// Users returns the number of live per-user lists.
func (c *MemoryCache) Users() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

// sweep drops every list whose expiry has passed.
func (c *MemoryCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for userID, list := range c.users {
		if now.After(list.expiresAt) {
			delete(c.users, userID)
			metrics.RecordCacheExpiry()
		}
	}
	metrics.UpdateCacheUsers(len(c.users))
}

var _ Cache = (*MemoryCache)(nil)
