package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/polybasket/polybasket/pkg/cache"
)

const marketTTL = 24 * time.Hour

// CachedClient wraps a MarketFetcher with caching. Market token pairs are
// immutable for the life of a market, so a long TTL is safe.
type CachedClient struct {
	client MarketFetcher
	cache  cache.Cache
}

// NewCachedClient creates a new cached market metadata client.
func NewCachedClient(client MarketFetcher, c cache.Cache) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  c,
	}
}

// GetMarket fetches a market document, serving from cache when possible.
func (c *CachedClient) GetMarket(ctx context.Context, marketID int64) (map[string]any, error) {
	key := fmt.Sprintf("market:%d", marketID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if raw, ok := cached.(map[string]any); ok {
				MetadataCacheHitsTotal.Inc()
				return raw, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	raw, err := c.client.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(key, raw, marketTTL)
	}
	return raw, nil
}
