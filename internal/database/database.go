package database

import (
	"context"
	"errors"
)

// Image contains metadata about a source photo
type Image struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Provider is an interface for listing and retrieving source photos
type Provider interface {
	Get(ctx context.Context, id string) (i *Image, err error)
	List(ctx context.Context, offset, limit int) ([]Image, error)

	Wait(ctx context.Context) error
	Migrate(ctx context.Context) error
	Shutdown()
}

// Errors
var (
	ErrNotFound = errors.New("Image does not exist")
)
