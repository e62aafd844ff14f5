package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// quoteEntry is the cached form of a quote. Price travels as a string to stay
// exact through msgpack
type quoteEntry struct {
	Symbol string
	Price  string
	Update time.Time
}

// Cache is a read-through quote cache in front of another oracle. Quotes are
// shared between requests for the TTL so a page full of open positions does
// not hammer the quote service
type Cache struct {
	cache  *cache.Cache
	origin Oracle
	ttl    time.Duration
}

// NewCache is constructor
func NewCache(c *cache.Cache, origin Oracle, ttl time.Duration) *Cache {
	return &Cache{cache: c, origin: origin, ttl: ttl}
}

// CurrentPrice returns the cached price or fetches it from the origin
func (c *Cache) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var entry quoteEntry
	err := c.cache.Get(ctx, symbol, &entry)
	if err == nil {
		price, convErr := decimal.NewFromString(entry.Price)
		if convErr == nil {
			return price, nil
		}
		log.Errorf("corrupt cached quote for %s: %v", symbol, convErr)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Errorf("quote cache get for %s: %v", symbol, err)
	}

	price, err := c.origin.CurrentPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	err = c.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   symbol,
		Value: &quoteEntry{Symbol: symbol, Price: price.String(), Update: time.Now()},
		TTL:   c.ttl,
	})
	if err != nil {
		// A dead cache must not block trading
		log.Errorf("quote cache set for %s: %v", symbol, err)
	}
	return price, nil
}
