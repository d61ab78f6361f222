package postgresql

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/DMarby/instafilter/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const waitInterval = time.Second

// Provider implements a postgresql based photo catalog
type Provider struct {
	pool *pgxpool.Pool
}

// New returns a new Provider instance
// The connection is established lazily, use Wait to block until the database is reachable
func New(ctx context.Context, address string, maxConns int) (*Provider, error) {
	config, err := pgxpool.ParseConfig(address)
	if err != nil {
		return nil, err
	}

	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}

	// Needed to work with pgbouncer
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		pool: pool,
	}, nil
}

const columns = "id, author, width, height, url"

func scanImage(row pgx.Row) (*database.Image, error) {
	i := &database.Image{}
	err := row.Scan(&i.ID, &i.Author, &i.Width, &i.Height, &i.URL)
	return i, err
}

// Get returns the metadata for a photo id
func (p *Provider) Get(ctx context.Context, id string) (*database.Image, error) {
	i, err := scanImage(p.pool.QueryRow(ctx, "select "+columns+" from photo where id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return i, nil
}

// List returns a list of the photos with an offset/limit
func (p *Provider) List(ctx context.Context, offset, limit int) ([]database.Image, error) {
	rows, err := p.pool.Query(ctx, "select "+columns+" from photo order by id offset $1 limit $2", offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []database.Image{}
	for rows.Next() {
		i, err := scanImage(rows)
		if err != nil {
			return nil, err
		}

		images = append(images, *i)
	}

	return images, rows.Err()
}

// Wait blocks until a database connection is ready
// You can use the given context to specify a timeout
func (p *Provider) Wait(ctx context.Context) error {
	ticker := time.NewTicker(waitInterval)
	defer ticker.Stop()

	for {
		if err := p.pool.Ping(ctx); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Migrate migrates the database to the latest embedded migration
func (p *Provider) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	return goose.UpContext(ctx, db, "migrations")
}

// Shutdown shuts down the database client
func (p *Provider) Shutdown() {
	p.pool.Close()
}
