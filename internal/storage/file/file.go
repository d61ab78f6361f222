package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/DMarby/instafilter/internal/storage"
)

// Provider implements a file-based image storage
type Provider struct {
	path string
}

// New returns a new Provider instance
func New(path string) (*Provider, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	return &Provider{
		path,
	}, nil
}

// Get returns the data stored under a key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(p.path, filepath.FromSlash(key)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

// Put writes data under a key, creating any missing directories
// The data is written to a temporary file first so readers never see a partial file
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	key, err := storage.CleanKey(key)
	if err != nil {
		return err
	}

	path := filepath.Join(p.path, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
