package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/aggregate"
	"github.com/chris-coyne/job-scraping-pipeline/internal/config"
	"github.com/chris-coyne/job-scraping-pipeline/internal/events"
	"github.com/chris-coyne/job-scraping-pipeline/internal/httpapi"
	"github.com/chris-coyne/job-scraping-pipeline/internal/lock"
	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
	"github.com/chris-coyne/job-scraping-pipeline/internal/registry"
	"github.com/chris-coyne/job-scraping-pipeline/internal/relational"
	"github.com/chris-coyne/job-scraping-pipeline/internal/run"
	"github.com/chris-coyne/job-scraping-pipeline/internal/scrape/builtin"
	"github.com/chris-coyne/job-scraping-pipeline/internal/scrape/util"
	"github.com/chris-coyne/job-scraping-pipeline/internal/secrets"
	"github.com/chris-coyne/job-scraping-pipeline/internal/snapshot"
	"github.com/chris-coyne/job-scraping-pipeline/internal/store"
)

// app owns every long-lived handle; Close releases them in reverse order.
type app struct {
	runner *run.Runner
	latest httpapi.LatestReader
	hub    *events.Hub

	closers []func()
}

func (a *app) onClose(f func()) { a.closers = append(a.closers, f) }

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{hub: events.NewHub()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	scraper := builtin.New(builtin.Config{
		BaseURL:          cfg.Source.BaseURL,
		SearchPath:       cfg.Source.SearchPath,
		DaysSinceUpdated: cfg.Source.DaysSinceUpdated,
		UserAgent:        cfg.Source.UserAgent,
		Label:            cfg.Source.Label,
		Timeout:          cfg.FetchTimeout(),
	}, &http.Client{}, util.NewHostLimiter(cfg.Source.RequestsPerSecond, cfg.Source.Burst), logger)

	opts := run.Options{
		Producer: run.NewProducer(scraper, cfg.Source.Queries, cfg.Source.Concurrency, logger),
		Logger:   logger,
	}

	switch cfg.Storage.Mode {
	case config.ModeRelational:
		sink, err := buildRelational(ctx, a, cfg, logger)
		if err != nil {
			return nil, err
		}
		opts.Sink = sink
	default:
		objects, err := buildObjects(ctx, a, cfg)
		if err != nil {
			return nil, err
		}
		policy, err := aggregate.ParsePolicy(cfg.Storage.TieBreak)
		if err != nil {
			return nil, err
		}
		snaps := snapshot.New(objects, cfg.Storage.SnapshotPrefix)
		a.latest = snaps
		opts.Registry = registry.NewStore(objects, cfg.Storage.CompanyKey, logger)
		opts.Sink = run.NewSnapshotSink(snaps, cfg.Storage.Retention, policy, logger)
	}

	if opts.Locker, err = buildLocker(ctx, a, cfg, logger); err != nil {
		return nil, err
	}

	opts.Events = a.hub
	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject, logger)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = pub.Close() })
		opts.Events = events.Fanout{a.hub, pub}
	}

	a.runner = run.NewRunner(opts)
	return a, nil
}

func buildObjects(ctx context.Context, a *app, cfg config.Config) (objstore.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return objstore.NewMemory(), nil
	case config.BackendSQLite:
		db, err := store.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Storage.SQLitePath, err)
		}
		a.onClose(func() { _ = db.Close() })
		return store.NewObjects(db), nil
	default:
		s3cfg := objstore.S3Config{
			Bucket:       cfg.Storage.Bucket,
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.UsePathStyle,
			AccessKeyID:  cfg.Storage.AccessKeyID,
		}
		if s3cfg.AccessKeyID != "" {
			secret, err := secrets.S3SecretKey(s3cfg.AccessKeyID, os.LookupEnv)
			if err != nil {
				return nil, err
			}
			s3cfg.SecretAccessKey = secret
			s3cfg.SessionToken = secrets.S3SessionToken(os.LookupEnv)
		}
		return objstore.NewS3(ctx, s3cfg)
	}
}

func buildRelational(ctx context.Context, a *app, cfg config.Config, logger *zap.Logger) (run.Sink, error) {
	dsn := cfg.Storage.DatabaseURL
	if dsn == "" {
		var err error
		if dsn, err = secrets.DatabaseURL(os.LookupEnv); err != nil {
			return nil, err
		}
	}
	pool, err := relational.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.onClose(pool.Close)

	db := relational.NewPoolAdapter(pool)
	if err := relational.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	cc := pool.Config().ConnConfig
	location := fmt.Sprintf("postgres://%s/%s#jobs", cc.Host, cc.Database)
	return run.NewRelationalSink(relational.NewWriter(db, logger), location), nil
}

func buildLocker(ctx context.Context, a *app, cfg config.Config, logger *zap.Logger) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case config.LockFile:
		return lock.NewFile(cfg.Lock.FilePath), nil
	case config.LockRedis:
		rdb, err := lock.NewRedisClient(ctx, cfg.Lock.RedisURL)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = rdb.Close() })
		return lock.NewRedis(rdb, cfg.Lock.Key, cfg.LockTTL(), logger), nil
	default:
		return lock.Noop{}, nil
	}
}
