package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CachedPrices wraps a PriceSource with a Redis read-through cache. Quotes
// are cached per coin ID; only the IDs missing from the cache hit the live
// endpoint. Cache failures fall through to the source and cache writes are
// best-effort, so Redis going away only costs the caching.
type CachedPrices struct {
	source PriceSource
	rdb    *redis.Client
	ttl    time.Duration
}

// NewCachedPrices creates a cached wrapper around a price source.
func NewCachedPrices(source PriceSource, rdb *redis.Client, ttl time.Duration) *CachedPrices {
	return &CachedPrices{source: source, rdb: rdb, ttl: ttl}
}

func (c *CachedPrices) Prices(ctx context.Context, ids []string) map[string]decimal.Decimal {
	quotes := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return quotes
	}

	missing := ids
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = quoteKey(id)
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err == nil {
		missing = missing[:0:0]
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				missing = append(missing, ids[i])
				continue
			}
			quotes[ids[i]] = d
		}
	} else {
		slog.Warn("quote cache read failed", "err", err)
	}

	if len(missing) == 0 {
		return quotes
	}

	fresh := c.source.Prices(ctx, missing)
	for id, d := range fresh {
		quotes[id] = d
		if err := c.rdb.Set(ctx, quoteKey(id), d.String(), c.ttl).Err(); err != nil {
			slog.Warn("quote cache write failed", "id", id, "err", err)
		}
	}
	return quotes
}

func quoteKey(id string) string { return "quote:" + id }
