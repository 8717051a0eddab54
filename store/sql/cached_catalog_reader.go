package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

const restaurantCacheKeyPrefix = "inspection::restaurant::v1"

// CachedCatalogReader serves restaurant lookups from the cache. Section and
// question lists always go to the base reader.
type CachedCatalogReader struct {
	base  core.CatalogReader
	cache repositorycache.CacheService
}

func NewCachedCatalogReader(base core.CatalogReader, cacheService repositorycache.CacheService) (*CachedCatalogReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base catalog reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: catalog cache service is required")
	}
	return &CachedCatalogReader{base: base, cache: cacheService}, nil
}

func RestaurantCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", core.ValidationError("restaurant_id", "restaurant id is required")
	}
	return restaurantCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (r *CachedCatalogReader) GetRestaurant(ctx context.Context, id string) (core.Restaurant, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.Restaurant{}, fmt.Errorf("sqlstore: cached catalog reader is not configured")
	}
	cacheKey, err := RestaurantCacheKey(id)
	if err != nil {
		return core.Restaurant{}, err
	}
	return repositorycache.GetOrFetch(ctx, r.cache, cacheKey, func(ctx context.Context) (core.Restaurant, error) {
		return r.base.GetRestaurant(ctx, strings.TrimSpace(id))
	})
}

// Invalidate drops a cached restaurant after it changes.
func (r *CachedCatalogReader) Invalidate(ctx context.Context, id string) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached catalog reader is not configured")
	}
	cacheKey, err := RestaurantCacheKey(id)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, cacheKey)
}

func (r *CachedCatalogReader) ListSections(ctx context.Context, restaurantID string) ([]core.Section, error) {
	if r == nil || r.base == nil {
		return nil, fmt.Errorf("sqlstore: cached catalog reader is not configured")
	}
	return r.base.ListSections(ctx, restaurantID)
}

func (r *CachedCatalogReader) ListQuestions(ctx context.Context, restaurantID string) ([]core.Question, error) {
	if r == nil || r.base == nil {
		return nil, fmt.Errorf("sqlstore: cached catalog reader is not configured")
	}
	return r.base.ListQuestions(ctx, restaurantID)
}

// NewCacheService builds the in-process cache with the configured TTL.
func NewCacheService(cfg core.CacheConfig) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	config.TTL = cfg.TTL()
	return repositorycache.NewCacheService(config)
}
