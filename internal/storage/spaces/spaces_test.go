//go:build integration
// +build integration

package spaces_test

import (
	"context"
	"os"
	"testing"

	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/storage/spaces"
)

// Runs against an S3 compatible server such as minio, configured through the environment
func TestSpaces(t *testing.T) {
	space := os.Getenv("SPACES_SPACE")
	if space == "" {
		t.Skip("SPACES_SPACE not set")
	}

	provider, err := spaces.New(space, os.Getenv("SPACES_ENDPOINT"), os.Getenv("SPACES_ACCESS_KEY"), os.Getenv("SPACES_SECRET_KEY"), true)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	key := storage.EditKey("integration", ".png")

	t.Run("put and get", func(t *testing.T) {
		if err := provider.Put(ctx, key, []byte("edit")); err != nil {
			t.Fatal(err)
		}

		data, err := provider.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != "edit" {
			t.Errorf("wrong data %s", data)
		}
	})

	t.Run("get nonexistant object", func(t *testing.T) {
		if _, err := provider.Get(ctx, "nonexistant.jpg"); err != storage.ErrNotFound {
			t.Errorf("wrong error %v", err)
		}
	})
}
