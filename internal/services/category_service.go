package services

import (
	"context"
	"time"

	"myfiance/internal/cache"
	"myfiance/internal/core"
)

const categoriesKey = "categories"

// CategoryLister fetches the category reference data.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// CategoryService caches the category list shared by every form. Concurrent
// misses trigger a single upstream call.
type CategoryService struct {
	cache *cache.LRUCache[[]core.Category]
}

func NewCategoryService(ttl time.Duration) *CategoryService {
	return &CategoryService{cache: cache.NewLRUCache[[]core.Category](1, ttl)}
}

// Cache exposes the underlying cache for registration with a cache.Manager.
func (s *CategoryService) Cache() *cache.LRUCache[[]core.Category] { return s.cache }

// Loader returns a form.CategoryLoader that reads through the cache and
// falls back to upstream on a miss.
func (s *CategoryService) Loader(upstream CategoryLister) CategoryLister {
	return loaderFunc(func(ctx context.Context) ([]core.Category, error) {
		return s.cache.GetOrLoad(ctx, categoriesKey, upstream.ListCategories)
	})
}

// Invalidate drops the cached list.
func (s *CategoryService) Invalidate() {
	s.cache.Delete(categoriesKey)
}

type loaderFunc func(ctx context.Context) ([]core.Category, error)

func (f loaderFunc) ListCategories(ctx context.Context) ([]core.Category, error) { return f(ctx) }
