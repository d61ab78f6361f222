package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/instafilter/internal/database"
)

// Provider implements a photo catalog whose every query fails
type Provider struct {
}

// Get returns an error
func (p *Provider) Get(ctx context.Context, id string) (i *database.Image, err error) {
	return nil, fmt.Errorf("get error")
}

// List returns an error
func (p *Provider) List(ctx context.Context, offset, limit int) ([]database.Image, error) {
	return nil, fmt.Errorf("list error")
}

// Wait returns immediately
func (p *Provider) Wait(ctx context.Context) error {
	return nil
}

// Migrate does nothing
func (p *Provider) Migrate(ctx context.Context) error {
	return nil
}

// Shutdown does nothing
func (p *Provider) Shutdown() {}
