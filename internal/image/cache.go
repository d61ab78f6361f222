package image

import (
	"context"

	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/tracing"
)

// Cache is a cache of source photos, keyed by storage key
type Cache = cache.Auto

// NewCache instantiates a new cache that loads missing photos from storage
func NewCache(tracer *tracing.Tracer, cacheProvider cache.Provider, storageProvider storage.Provider) *Cache {
	return &Cache{
		Tracer:   tracer,
		Provider: cacheProvider,
		Loader: func(ctx context.Context, key string) (data []byte, err error) {
			ctx, span := tracer.Start(ctx, "image.Cache.Loader")
			defer span.End()

			return storageProvider.Get(ctx, key)
		},
	}
}
