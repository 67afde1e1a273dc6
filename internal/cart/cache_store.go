package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type documentCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// CachedDocuments is a read-through, write-through redis cache in front of another
// DocumentStore. Cache faults are logged and never surface to callers.
type CachedDocuments struct {
	next  DocumentStore
	cache documentCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCachedDocuments wraps next with a redis cache.
func NewCachedDocuments(next DocumentStore, cache documentCache, ttl time.Duration, logg *logger.Logger) *CachedDocuments {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedDocuments{next: next, cache: cache, ttl: ttl, logg: logg}
}

func (c *CachedDocuments) Read(ctx context.Context, userID string) (*Document, error) {
	key := c.cache.CartKey(userID)
	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var doc Document
		if jsonErr := json.Unmarshal(raw, &doc); jsonErr == nil {
			if doc.Items == nil {
				doc.Items = []LineItem{}
			}
			return &doc, nil
		}
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cart cache entry unreadable")
		c.invalidate(ctx, key)
	case !redis.IsMiss(err):
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "cart cache read failed", err)
	}

	doc, err := c.next.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, doc)
	return doc, nil
}

func (c *CachedDocuments) Create(ctx context.Context, userID string, doc *Document) error {
	key := c.cache.CartKey(userID)
	if err := c.next.Create(ctx, userID, doc); err != nil {
		c.invalidate(ctx, key)
		return err
	}
	// Create never replaces an existing document, so the cached copy may be wrong.
	c.invalidate(ctx, key)
	return nil
}

func (c *CachedDocuments) Overwrite(ctx context.Context, userID string, doc *Document) error {
	key := c.cache.CartKey(userID)
	if err := c.next.Overwrite(ctx, userID, doc); err != nil {
		c.invalidate(ctx, key)
		return err
	}
	c.store(ctx, key, doc)
	return nil
}

func (c *CachedDocuments) store(ctx context.Context, key string, doc *Document) {
	payload, err := json.Marshal(doc)
	if err != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "cart cache encode failed", err)
		return
	}
	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "cart cache write failed", err)
	}
}

func (c *CachedDocuments) invalidate(ctx context.Context, key string) {
	if err := c.cache.Del(ctx, key); err != nil && !errors.Is(err, context.Canceled) {
		c.logg.Error(c.logg.WithField(ctx, "cache_key", key), "cart cache invalidate failed", err)
	}
}
