package sheets

import (
	"context"

	"finreport/internal/cache"
	"finreport/internal/core"
)

// CachedSource memoizes the table of another source. Tables are immutable,
// so a cached table may be shared by concurrent requests.
type CachedSource struct {
	next  TransactionSource
	cache *cache.LRUCache[*core.Table]
}

var _ TransactionSource = (*CachedSource)(nil)

func NewCachedSource(next TransactionSource, c *cache.LRUCache[*core.Table]) *CachedSource {
	return &CachedSource{next: next, cache: c}
}

func (s *CachedSource) Name() string { return s.next.Name() }

// Load returns the cached table or loads and caches it. Failures are not cached.
func (s *CachedSource) Load(ctx context.Context) (*core.Table, error) {
	return s.cache.GetOrLoad(s.next.Name(), func() (*core.Table, error) {
		return s.next.Load(ctx)
	})
}
