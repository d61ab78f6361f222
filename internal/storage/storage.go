package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Provider is an interface for retrieving source photos and persisting edited ones
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Errors
var (
	ErrNotFound   = errors.New("Object does not exist")
	ErrInvalidKey = errors.New("Invalid key")
)

// PhotoKey returns the key a source photo is stored under
func PhotoKey(id string) string {
	return fmt.Sprintf("%s.jpg", id)
}

// EditKey returns the key an edited photo is saved under
func EditKey(name, extension string) string {
	return path.Join("edits", name+extension)
}

// CleanKey normalizes a key, rejecting keys that would escape the storage root
func CleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}

	return cleaned, nil
}
