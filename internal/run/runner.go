// Package run wires one harvest: fetch every query, resolve employers, and
// persist the result under the run lock.
package run

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/events"
	"github.com/chris-coyne/job-scraping-pipeline/internal/lock"
	"github.com/chris-coyne/job-scraping-pipeline/internal/registry"
)

const releaseTimeout = 5 * time.Second

type Result struct {
	RunID      string           `json:"run_id"`
	Status     domain.RunStatus `json:"status"`
	Location   string           `json:"location,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`

	ProduceStats

	NewCompanies int    `json:"new_companies,omitempty"`
	Snapshot     string `json:"snapshot,omitempty"`
	Retained     int    `json:"retained,omitempty"`
	Pruned       int    `json:"pruned,omitempty"`
	Latest       int    `json:"latest,omitempty"`
	Inserted     int    `json:"inserted,omitempty"`
	Skipped      int    `json:"skipped,omitempty"`
	Failed       int    `json:"failed,omitempty"`

	Error string `json:"error,omitempty"`
}

type Options struct {
	Producer *Producer
	// Registry is nil when employers are resolved by the sink.
	Registry *registry.Store
	Sink     Sink
	Locker   lock.Locker
	Events   events.Publisher
	Logger   *zap.Logger
	Now      func() time.Time
}

type Runner struct {
	producer *Producer
	registry *registry.Store
	sink     Sink
	locker   lock.Locker
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time

	// guards runs within this process; the Locker guards across processes
	running sync.Mutex

	mu      sync.RWMutex
	active  bool
	last    Result
	hasLast bool
}

func NewRunner(o Options) *Runner {
	r := &Runner{
		producer: o.Producer,
		registry: o.Registry,
		sink:     o.Sink,
		locker:   o.Locker,
		events:   o.Events,
		log:      o.Logger,
		now:      o.Now,
	}
	if r.locker == nil {
		r.locker = lock.Noop{}
	}
	if r.events == nil {
		r.events = events.Noop{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.log = r.log.Named("run")
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Active reports whether a run is in progress in this process.
func (r *Runner) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Last returns the most recent finished run.
func (r *Runner) Last() (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}

// Run performs one harvest. It fails with lock.ErrRunInProgress when another
// run holds the lock, without touching storage.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.running.TryLock() {
		return Result{}, apperrors.Conflict("start run", lock.ErrRunInProgress)
	}
	defer r.running.Unlock()

	release, err := r.locker.TryAcquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(rctx); err != nil {
			r.log.Warn("release run lock", zap.Error(err))
		}
	}()

	res := Result{RunID: uuid.NewString(), StartedAt: r.now().UTC()}
	log := r.log.With(zap.String("run_id", res.RunID))
	r.setActive(true)
	r.emit(ctx, log, res.RunID, events.TypeRunStarted, map[string]any{"started_at": res.StartedAt})

	err = r.execute(ctx, log, &res)
	res.FinishedAt = r.now().UTC()
	if err != nil {
		res.Error = err.Error()
		log.Error("run failed", zap.Error(err))
	} else {
		log.Info("run finished",
			zap.String("status", string(res.Status)),
			zap.String("location", res.Location),
			zap.Int("records", res.Records),
			zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)))
	}

	r.mu.Lock()
	r.active = false
	r.last, r.hasLast = res, true
	r.mu.Unlock()

	r.emit(ctx, log, res.RunID, events.TypeRunCompleted, res)
	return res, err
}

func (r *Runner) execute(ctx context.Context, log *zap.Logger, res *Result) error {
	var (
		reg      *registry.Registry
		resolver Resolver
		err      error
	)
	if r.registry != nil {
		reg, err = r.registry.Load(ctx)
		if err != nil {
			return err
		}
		resolver = reg
	}

	records, st, err := r.producer.Produce(ctx, res.StartedAt, resolver)
	res.ProduceStats = st
	if err != nil {
		return err
	}

	if reg != nil {
		res.NewCompanies = len(reg.Added())
		if _, err := r.registry.Save(ctx, reg); err != nil {
			return err
		}
	}

	if len(records) == 0 {
		res.Status = domain.StatusNoJobsFound
		log.Warn("no jobs found for any query")
		return nil
	}

	out, err := r.sink.Publish(ctx, records, res.StartedAt)
	res.Snapshot = out.Snapshot
	res.Retained = out.Retained
	res.Pruned = out.Pruned
	res.Latest = out.Latest
	res.Inserted = out.Inserted
	res.Skipped = out.Skipped
	res.Failed = out.Failed
	if err != nil {
		return err
	}
	res.Status = out.Status
	res.Location = out.Location
	return nil
}

func (r *Runner) setActive(v bool) {
	r.mu.Lock()
	r.active = v
	r.mu.Unlock()
}

func (r *Runner) emit(ctx context.Context, log *zap.Logger, runID, typ string, data any) {
	if err := r.events.Publish(context.WithoutCancel(ctx), events.MakeEvent(runID, typ, 1, data)); err != nil {
		log.Warn("publish event", zap.String("type", typ), zap.Error(err))
	}
}
