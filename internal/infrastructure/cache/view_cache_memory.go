package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	appfulfillment "github.com/lexsgd/ah-ho-fruits-sub000/internal/application/fulfillment"
)

// InMemoryViewCache implements the fulfillment ViewCache in process memory.
// Used for single-instance deployments and as the fallback when Redis is
// not configured.
type InMemoryViewCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]viewEntry
	ttl     time.Duration
}

type viewEntry struct {
	view      *appfulfillment.FulfillmentView
	expiresAt time.Time
}

// NewInMemoryViewCache creates an in-memory view cache
func NewInMemoryViewCache(ttl time.Duration) *InMemoryViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryViewCache{
		entries: make(map[uuid.UUID]viewEntry),
		ttl:     ttl,
	}
}

// Get returns the cached view for an order, if present and not expired
func (c *InMemoryViewCache) Get(ctx context.Context, orderID uuid.UUID) (*appfulfillment.FulfillmentView, bool) {
	c.mu.RLock()
	entry, ok := c.entries[orderID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, orderID)
		c.mu.Unlock()
		return nil, false
	}
	return entry.view, true
}

// Set stores the view for an order
func (c *InMemoryViewCache) Set(ctx context.Context, orderID uuid.UUID, view *appfulfillment.FulfillmentView) {
	c.mu.Lock()
	c.entries[orderID] = viewEntry{
		view:      view,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate drops the cached view for an order
func (c *InMemoryViewCache) Invalidate(ctx context.Context, orderID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, orderID)
	c.mu.Unlock()
}

// Len returns the number of cached views, expired entries included
func (c *InMemoryViewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
