package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockfeed/internal/catalog"
	"stockfeed/internal/config"
	"stockfeed/internal/db"
	"stockfeed/internal/feed"
	"stockfeed/internal/ingest"
	"stockfeed/internal/repository"
	"stockfeed/internal/runlock"
)

// App holds the wired services shared by the API server and the CLI.
type App struct {
	Ingest   *ingest.Service
	Catalog  *catalog.Service
	Products *repository.ProductRepository
	Runs     *repository.RunRepository

	pool  *pgxpool.Pool
	sqlDB *sql.DB
	redis *redis.Client
}

// New connects to Postgres (and Redis when configured), creates missing
// tables and assembles the ingestion and catalog services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	enc, err := feed.LookupCharset(cfg.FeedCharset)
	if err != nil {
		return nil, err
	}

	a := &App{}
	a.pool, err = db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.sqlDB, err = db.New(cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open run ledger: %w", err)
	}

	a.Products = &repository.ProductRepository{DB: a.pool}
	if err := a.Products.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.Runs = &repository.RunRepository{DB: a.sqlDB}
	if err := a.Runs.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var lock runlock.Locker = runlock.NewLocalLocker()
	if cfg.RedisURL != "" {
		a.redis, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		lock = &runlock.RedisLocker{Client: a.redis}
	} else {
		logger.Warn("REDIS_URL not set, ingestion lock is process-local")
	}

	a.Ingest = &ingest.Service{
		Fetcher:      feed.NewFetcher(cfg.FeedURL, cfg.FeedTimeout, logger.Named("fetcher")),
		Products:     a.Products,
		Runs:         a.Runs,
		Lock:         lock,
		LockTTL:      cfg.LockTTL,
		Projector:    feed.NewProjector(nil, logger.Named("projector")),
		Charset:      enc,
		CSVPath:      cfg.CSVPath,
		SnapshotPath: cfg.SnapshotPath,
		Logger:       logger.Named("ingest"),
	}
	a.Catalog = catalog.NewService(a.Products)
	return a, nil
}

// newRedisClient accepts either a redis:// URL or a bare host:port.
func newRedisClient(raw string) (*redis.Client, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
