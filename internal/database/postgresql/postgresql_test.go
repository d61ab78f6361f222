//go:build integration
// +build integration

package postgresql_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/DMarby/instafilter/internal/database"
	"github.com/DMarby/instafilter/internal/database/postgresql"
	"github.com/jackc/pgx/v5/pgxpool"
)

const address = "postgresql://postgres@127.0.0.1:5433/postgres"

var image = database.Image{
	ID:     "1",
	Author: "Alejandro Escamilla",
	Width:  300,
	Height: 400,
	URL:    "https://picsum.photos",
}

func TestPostgresql(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := postgresql.New(ctx, address, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Shutdown()

	if err := provider.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	if err := provider.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, address)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, "insert into photo (id, author, width, height, url) values ($1, $2, $3, $4, $5) on conflict (id) do nothing",
		image.ID, image.Author, image.Width, image.Height, image.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Exec(ctx, "truncate photo")

	t.Run("Get an image by id", func(t *testing.T) {
		i, err := provider.Get(ctx, "1")
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(*i, image) {
			t.Errorf("wrong image %+v", i)
		}
	})

	t.Run("Returns error on a nonexistant image", func(t *testing.T) {
		if _, err := provider.Get(ctx, "nonexistant"); err != database.ErrNotFound {
			t.Errorf("wrong error %v", err)
		}
	})

	t.Run("List images", func(t *testing.T) {
		images, err := provider.List(ctx, 0, 10)
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(images, []database.Image{image}) {
			t.Errorf("wrong images %+v", images)
		}
	})

	t.Run("Migrations are idempotent", func(t *testing.T) {
		if err := provider.Migrate(ctx); err != nil {
			t.Fatal(err)
		}
	})
}
