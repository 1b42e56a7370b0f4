package foodrepo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethicalmeat/backend/internal/domain"
)

// CachedSource wraps a product source with a TTL cache so repeated fetches
// with the same limit reuse the previous batch instead of hitting the API.
type CachedSource struct {
	source domain.ProductSource
	cache  domain.ProductCache
	ttl    time.Duration
}

// NewCachedSource creates a caching wrapper around source.
func NewCachedSource(source domain.ProductSource, cache domain.ProductCache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}
}

// FetchProducts returns the cached batch for this limit when present,
// otherwise fetches from the wrapped source and caches the result. A cache
// read failure falls through to a fresh fetch.
func (s *CachedSource) FetchProducts(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	key := fmt.Sprintf("products:limit=%d", limit)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		log.Printf("[FOODREPO] cache hit for %s (%d products)", key, len(cached))
		return cached, nil
	}

	products, err := s.source.FetchProducts(ctx, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, products, s.ttl); err != nil {
		log.Printf("[FOODREPO] caching %s failed: %v", key, err)
	}
	return products, nil
}
