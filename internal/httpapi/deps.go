package httpapi

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	"github.com/chris-coyne/job-scraping-pipeline/internal/events"
	"github.com/chris-coyne/job-scraping-pipeline/internal/run"
)

type Runner interface {
	Run(ctx context.Context) (run.Result, error)
	Active() bool
	Last() (run.Result, bool)
}

type LatestReader interface {
	ReadLatest(ctx context.Context) ([]domain.JobRecord, error)
}

type Deps struct {
	Runner Runner

	// nil when the latest view is not kept (relational mode)
	Latest LatestReader

	Hub *events.Hub

	Logger *zap.Logger

	// RunCtx outlives the request that triggers an async run.
	RunCtx context.Context

	// Inflight, when set, tracks runs started over HTTP.
	Inflight *sync.WaitGroup
}
