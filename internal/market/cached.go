package market

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"lothelper/internal/cache"
)

const marketCacheTable = "market_cache"

// CachedProvider layers an in-memory LRU and the SQLite cache over another
// Provider. The LRU keeps repeat lookups within one run free; the SQLite
// layer keeps snapshots across runs until the TTL lapses.
type CachedProvider struct {
	inner Provider
	db    *cache.DB
	ttl   time.Duration
	hot   *lru.Cache
}

// NewCachedProvider wraps inner with caching. db may be nil (no durable
// layer); ttl <= 0 uses cache.DefaultTTL.
func NewCachedProvider(inner Provider, db *cache.DB, ttl time.Duration) (*CachedProvider, error) {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	hot, err := lru.New(256)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{inner: inner, db: db, ttl: ttl, hot: hot}, nil
}

// SnapshotFor returns a cached snapshot when available, fetching and
// caching otherwise.
func (p *CachedProvider) SnapshotFor(ctx context.Context, author, series, theme string) (Snapshot, error) {
	key := CacheKey(author, series, theme)
	if v, ok := p.hot.Get(key); ok {
		if snapshot, ok := v.(Snapshot); ok {
			return snapshot, nil
		}
	}

	snapshot, _, err := cache.GetOrFetch(p.db, marketCacheTable, key, p.ttl, func() (Snapshot, error) {
		return p.inner.SnapshotFor(ctx, author, series, theme)
	})
	if err != nil {
		return Snapshot{}, err
	}
	p.hot.Add(key, snapshot)
	return snapshot, nil
}
