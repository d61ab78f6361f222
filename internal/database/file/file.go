package file

import (
	"context"
	"encoding/json"
	"os"

	"github.com/DMarby/instafilter/internal/database"
)

// Provider implements a photo catalog backed by a JSON manifest
type Provider struct {
	images []database.Image
	index  map[string]int
}

// New returns a new Provider instance
func New(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var images []database.Image
	err = json.Unmarshal(data, &images)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(images))
	for i, image := range images {
		index[image.ID] = i
	}

	return &Provider{
		images: images,
		index:  index,
	}, nil
}

// Get returns the metadata for a photo id
func (p *Provider) Get(ctx context.Context, id string) (*database.Image, error) {
	i, ok := p.index[id]
	if !ok {
		return nil, database.ErrNotFound
	}

	image := p.images[i]
	return &image, nil
}

// List returns a list of the photos with an offset/limit
func (p *Provider) List(ctx context.Context, offset, limit int) ([]database.Image, error) {
	images := len(p.images)
	if offset < 0 || limit < 0 {
		return []database.Image{}, nil
	}

	if offset > images {
		offset = images
	}

	limit = offset + limit
	if limit > images || limit < offset {
		limit = images
	}

	list := make([]database.Image, limit-offset)
	copy(list, p.images[offset:limit])
	return list, nil
}

// Wait blocks until the database is ready
func (p *Provider) Wait(ctx context.Context) error {
	return nil
}

// Migrate attempts to migrate the database to the latest migration
func (p *Provider) Migrate(ctx context.Context) error {
	return nil
}

// Shutdown shuts down the database client
func (p *Provider) Shutdown() {}
