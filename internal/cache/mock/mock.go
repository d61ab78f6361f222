package mock

import (
	"context"

	"github.com/DMarby/instafilter/internal/cache"
)

// Provider is a cache that never holds anything
// Get fails with Err when set, and Set fails with SetErr when set
type Provider struct {
	Err    error
	SetErr error
}

// Get returns Err, or cache.ErrNotFound
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	if p.Err != nil {
		return nil, p.Err
	}

	return nil, cache.ErrNotFound
}

// Set returns SetErr
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	return p.SetErr
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
