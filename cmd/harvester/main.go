package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/config"
	"github.com/chris-coyne/job-scraping-pipeline/internal/httpapi"
	"github.com/chris-coyne/job-scraping-pipeline/internal/lock"
	"github.com/chris-coyne/job-scraping-pipeline/internal/logging"
	"github.com/chris-coyne/job-scraping-pipeline/internal/scheduler"
)

func main() {
	var (
		cfgPath = flag.String("config", os.Getenv("HARVEST_CONFIG"), "path to config.yml (optional)")
		serve   = flag.Bool("serve", false, "run on the cron schedule and serve the HTTP API")
		dryRun  = flag.Bool("dry-run", false, "keep snapshots in memory and skip the run lock")
		queries = flag.String("queries", "", "comma separated search queries, overrides config")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed (%s): %v\n", *cfgPath, err)
		os.Exit(2)
	}
	if *queries != "" {
		cfg.Source.Queries = strings.Split(*queries, ",")
	}
	if *dryRun {
		cfg.Storage.Mode = config.ModeObject
		cfg.Storage.Backend = config.BackendMemory
		cfg.Lock.Backend = config.LockNone
	}
	cfg = config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := realMain(ctx, cfg, *serve, logger)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

func realMain(ctx context.Context, cfg config.Config, serve bool, logger *zap.Logger) int {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return 1
	}
	defer a.Close()

	if serve {
		return serveMode(ctx, cfg, a, logger)
	}

	res, err := a.runner.Run(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if err != nil {
		if errors.Is(err, lock.ErrRunInProgress) {
			logger.Warn("another run is in progress")
			return 3
		}
		return 1
	}
	return 0
}

func serveMode(ctx context.Context, cfg config.Config, a *app, logger *zap.Logger) int {
	sched := scheduler.New(cfg.Schedule.Cron, "harvest", func(ctx context.Context) error {
		_, err := a.runner.Run(ctx)
		if errors.Is(err, lock.ErrRunInProgress) {
			return nil
		}
		return err
	}, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler start failed", zap.Error(err))
		return 1
	}
	defer sched.Stop()

	// handles in a are closed only after triggered runs return
	var inflight sync.WaitGroup
	defer inflight.Wait()

	handler := httpapi.NewHandler(httpapi.Deps{
		Runner:   a.runner,
		Latest:   a.latest,
		Hub:      a.hub,
		Logger:   logger,
		RunCtx:   ctx,
		Inflight: &inflight,
	})
	if err := httpapi.Serve(ctx, cfg.App.HTTPAddr, handler, logger); err != nil {
		logger.Error("http server failed", zap.Error(err))
		return 1
	}
	return 0
}
