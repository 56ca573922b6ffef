// Package cache stores derived progress summaries keyed by tenant and user.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/sirupsen/logrus"

	"example.com/progress/internal/observability"
)

const megabyte = 1024 * 1024

// Invalidator drops every cached summary for one user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, tenantID, userID string) error
}

// Slot addresses one summary under the user's generation at the time it was
// resolved. A value stored through a slot resolved before an invalidation is
// unreachable afterwards.
type Slot struct {
	summary string
	key     []byte
}

// SummaryCache stores JSON-encodable summaries per user.
type SummaryCache interface {
	Invalidator
	Lookup(tenantID, userID, key string) Slot
	Get(slot Slot, dst any) bool
	Set(slot Slot, value any)
}

// Noop never stores anything.
type Noop struct{}

// Lookup returns an empty slot.
func (Noop) Lookup(string, string, string) Slot { return Slot{} }

// Get always misses.
func (Noop) Get(Slot, any) bool { return false }

// Set performs no action.
func (Noop) Set(Slot, any) {}

// InvalidateUser performs no action.
func (Noop) InvalidateUser(context.Context, string, string) error { return nil }

// Freecache keeps summaries in a freecache arena. Invalidation bumps a per-user
// generation counter so old entries become unreachable and age out with their TTL.
type Freecache struct {
	cache  *freecache.Cache
	ttl    time.Duration
	logger logrus.FieldLogger

	mu        sync.Mutex
	largeOnce sync.Once
}

// NewFreecache allocates a cache of sizeMB megabytes; entries expire after ttl.
// Freecache refuses entries above 1/1024 of its size, so such summaries are
// rebuilt on every request.
func NewFreecache(sizeMB int, ttl time.Duration, logger logrus.FieldLogger) *Freecache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Freecache{
		cache:  freecache.NewCache(sizeMB * megabyte),
		ttl:    ttl,
		logger: logger.WithField("component", "summary-cache"),
	}
}

// Lookup resolves the slot for key under the user's current generation.
func (c *Freecache) Lookup(tenantID, userID, key string) Slot {
	summary, _, _ := strings.Cut(key, ":")
	return Slot{summary: summary, key: c.entryKey(tenantID, userID, key)}
}

// Get decodes a cached summary into dst and reports whether it was found.
func (c *Freecache) Get(slot Slot, dst any) bool {
	if len(slot.key) == 0 {
		return false
	}
	data, err := c.cache.Get(slot.key)
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			c.logger.WithError(err).Warn("cache get failed")
		}
		observability.RecordCacheLookup(slot.summary, false)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.WithError(err).WithField("summary", slot.summary).Error("failed to decode cached summary")
		observability.RecordCacheLookup(slot.summary, false)
		return false
	}
	observability.RecordCacheLookup(slot.summary, true)
	return true
}

// Set encodes value and stores it in slot.
func (c *Freecache) Set(slot Slot, value any) {
	if len(slot.key) == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("summary", slot.summary).Error("failed to encode summary for cache")
		return
	}
	err = c.cache.Set(slot.key, data, c.expireSeconds())
	switch {
	case err == nil:
	case errors.Is(err, freecache.ErrLargeEntry):
		c.largeOnce.Do(func() {
			c.logger.WithFields(logrus.Fields{"summary": slot.summary, "bytes": len(data)}).Debug("summary exceeds cache entry limit; not cached")
		})
	default:
		c.logger.WithError(err).WithField("summary", slot.summary).Warn("cache set failed")
	}
}

// InvalidateUser makes every summary cached for the user unreachable.
func (c *Freecache) InvalidateUser(_ context.Context, tenantID, userID string) error {
	if tenantID == "" || userID == "" {
		return errors.New("tenant and user are required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	genKey := generationKey(tenantID, userID)
	next := c.generation(genKey) + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	// The generation must outlive every entry written under it.
	if err := c.cache.Set(genKey, buf, 0); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	observability.RecordCacheInvalidation()
	c.logger.WithFields(logrus.Fields{"tenant_id": tenantID, "user_id": userID, "generation": next}).Debug("invalidated cached summaries")
	return nil
}

// EntryCount reports the number of live entries, generation markers included.
func (c *Freecache) EntryCount() int64 {
	return c.cache.EntryCount()
}

func (c *Freecache) entryKey(tenantID, userID, key string) []byte {
	c.mu.Lock()
	gen := c.generation(generationKey(tenantID, userID))
	c.mu.Unlock()
	return []byte(fmt.Sprintf("summary::%s::%s::%d::%s", tenantID, userID, gen, key))
}

func (c *Freecache) generation(genKey []byte) uint64 {
	data, err := c.cache.Get(genKey)
	if err != nil || len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func (c *Freecache) expireSeconds() int {
	secs := int(c.ttl / time.Second)
	if secs <= 0 {
		return 1
	}
	return secs
}

func generationKey(tenantID, userID string) []byte {
	return []byte(fmt.Sprintf("generation::%s::%s", tenantID, userID))
}
