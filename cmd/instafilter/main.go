package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/DMarby/instafilter/internal/api"
	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/cache/memory"
	"github.com/DMarby/instafilter/internal/cache/redis"
	"github.com/DMarby/instafilter/internal/cmd"
	"github.com/DMarby/instafilter/internal/database"
	fileDatabase "github.com/DMarby/instafilter/internal/database/file"
	"github.com/DMarby/instafilter/internal/database/postgresql"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/hmac"
	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/image/render"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/metrics"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/storage"
	fileStorage "github.com/DMarby/instafilter/internal/storage/file"
	"github.com/DMarby/instafilter/internal/storage/spaces"
	"github.com/DMarby/instafilter/internal/tracing"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8080", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	rootURL       = flag.String("root-url", "http://localhost:8080", "root url")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Image processing
	workers = flag.Int("workers", 3, "worker queue concurrency")

	// Sessions
	sessionTTL = flag.Duration("session-ttl", 30*time.Minute, "how long an idle editing session is kept")

	// Database
	databaseBackend = flag.String("database", "file", "which database backend to use (file, postgresql)")

	// Database - File
	databaseFilePath = flag.String("database-file-path", "./photos/metadata.json", "path to the database file")

	// Database - Postgresql
	databasePostgresqlAddress  = flag.String("database-postgresql-address", "postgresql://postgres@127.0.0.1/postgres", "postgresql address")
	databasePostgresqlMaxConns = flag.Int("database-postgresql-max-conns", 10, "postgresql connection pool size")
	databaseMigrate            = flag.Bool("database-migrate", true, "migrate the database on startup")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./photos", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for S3 compatible storage other than spaces")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use (memory, redis)")

	// Cache - Memory
	cacheMemoryMaxEntries = flag.Int("cache-memory-max-entries", 256, "maximum number of source photos kept in memory, 0 for the default of 1024")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "127.0.0.1:6379", "redis address")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long source photos are kept in redis, 0 to keep them forever")

	// Tracing
	tracingEnabled = flag.Bool("tracing", false, "export traces over OTLP gRPC, configured with the standard OTEL_EXPORTER_OTLP_* environment variables")

	// Healthcheck
	healthCheckPhotoID = flag.String("health-check-photo-id", "1", "photo ID to request from the storage to check storage health")

	// HMAC
	hmacKey = flag.String("hmac-key", "", "hmac key required to sign render urls, leave empty to allow unsigned urls")
)

func main() {
	// Parse environment variables
	envy.Parse("INSTAFILTER")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	tracer, err := setupTracer(shutdownCtx, log)
	if err != nil {
		log.Fatalf("error initializing tracing: %s", err)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the database, storage and cache
	database, err := setupDatabase(shutdownCtx, log)
	if err != nil {
		log.Fatalf("error initializing database: %s", err)
	}
	defer database.Shutdown()

	storage, cache, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cache.Shutdown()

	// Initialize the image processor
	imageProcessorCtx, imageProcessorCancel := context.WithCancel(context.Background())
	defer imageProcessorCancel()

	imageCache := image.NewCache(tracer, cache, storage)
	imageProcessor := render.New(imageProcessorCtx, log.Named("render"), tracer, *workers, imageCache)

	// Initialize the editing sessions and sweep idle ones
	sessions := session.NewStore(log.Named("session"), imageProcessor, imageCache, storage, *sessionTTL)
	go sessions.Run(shutdownCtx)

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:      checkerCtx,
		Storage:  storage,
		PhotoID:  *healthCheckPhotoID,
		Database: database,
		Cache:    cache,
		Log:      log,
	}
	go checker.Run()

	// Start and listen on http
	api := &api.API{
		Database:       database,
		ImageProcessor: imageProcessor,
		Sessions:       sessions,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		RootURL:        *rootURL,
		HandlerTimeout: cmd.HandlerTimeout,
		HMAC:           hmac.New(*hmacKey),
	}
	server := cmd.NewServer(log, *listen, api.Router())

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, checker, *metricsListen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	cmd.Shutdown(log, server)
}

func setupTracer(ctx context.Context, log *logger.Logger) (*tracing.Tracer, error) {
	if !*tracingEnabled {
		return tracing.Noop(log), nil
	}

	return tracing.New(ctx, log, "instafilter")
}

func setupDatabase(ctx context.Context, log *logger.Logger) (database.Provider, error) {
	switch *databaseBackend {
	case "file":
		return fileDatabase.New(*databaseFilePath)
	case "postgresql":
		db, err := postgresql.New(ctx, *databasePostgresqlAddress, *databasePostgresqlMaxConns)
		if err != nil {
			return nil, err
		}

		waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		log.Infof("waiting for the database")
		if err := db.Wait(waitCtx); err != nil {
			db.Shutdown()
			return nil, err
		}

		if *databaseMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Shutdown()
				return nil, fmt.Errorf("error migrating database: %w", err)
			}
		}

		return db, nil
	default:
		return nil, fmt.Errorf("invalid database backend")
	}
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider, err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(*storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "memory":
		cache = memory.New(*cacheMemoryMaxEntries)
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}
