package memory

import (
	"context"

	"github.com/DMarby/instafilter/internal/cache"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Default number of cached objects when no bound is given
const defaultMaxEntries = 1024

// Provider implements an in-memory cache that evicts the least recently used objects
// once it holds more than maxEntries
type Provider struct {
	entries *lru.Cache[string, []byte]
}

// New returns a new Provider instance
// A maxEntries of 0 uses the default bound
func New(maxEntries int) *Provider {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	// lru.New only fails on a non-positive size
	entries, _ := lru.New[string, []byte](maxEntries)

	return &Provider{
		entries: entries,
	}
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	data, exists := p.entries.Get(key)
	if !exists {
		return nil, cache.ErrNotFound
	}

	return data, nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	p.entries.Add(key, data)
	return nil
}

// Len returns the number of cached objects
func (p *Provider) Len() int {
	return p.entries.Len()
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {
	p.entries.Purge()
}
