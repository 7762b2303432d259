package run

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/aggregate"
	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/relational"
	"github.com/chris-coyne/job-scraping-pipeline/internal/snapshot"
)

type Outcome struct {
	Status   domain.RunStatus
	Location string

	Snapshot string
	Retained int
	Pruned   int
	Latest   int

	Inserted int
	Skipped  int
	Failed   int
}

// Sink persists one run's records.
type Sink interface {
	Publish(ctx context.Context, records []domain.JobRecord, runAt time.Time) (Outcome, error)
}

// SnapshotSink writes the run snapshot, rebuilds the latest view from the
// retained window, then prunes everything older.
type SnapshotSink struct {
	store     *snapshot.Store
	retention int
	policy    aggregate.Policy
	log       *zap.Logger
}

func NewSnapshotSink(store *snapshot.Store, retention int, policy aggregate.Policy, logger *zap.Logger) *SnapshotSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotSink{store: store, retention: retention, policy: policy, log: logger.Named("snapshot")}
}

func (s *SnapshotSink) Publish(ctx context.Context, records []domain.JobRecord, runAt time.Time) (Outcome, error) {
	if len(records) == 0 {
		s.log.Info("no new job postings, skipping upload")
		return Outcome{Status: domain.StatusNoNewData}, nil
	}

	key, _, err := s.store.WriteSnapshot(ctx, records, runAt)
	if err != nil {
		return Outcome{}, apperrors.Unavailable("write snapshot", err)
	}
	out := Outcome{Status: domain.StatusSuccess, Snapshot: key, Location: s.store.Location(key)}
	s.log.Info("uploaded job postings", zap.String("key", key), zap.Int("records", len(records)))

	retained, err := s.store.ListRetained(ctx, s.retention)
	if err != nil {
		return out, apperrors.Unavailable("list retained snapshots", err)
	}
	out.Retained = len(retained)

	merged, err := aggregate.Merge(ctx, s.store, retained, s.policy)
	if err != nil {
		return out, apperrors.Unavailable("merge snapshots", err)
	}
	latestKey, err := s.store.WriteLatest(ctx, merged)
	if err != nil {
		return out, apperrors.Unavailable("write latest view", err)
	}
	out.Latest = len(merged)
	s.log.Info("updated latest view",
		zap.String("key", latestKey),
		zap.Int("records", len(merged)),
		zap.Int("runs", len(retained)))

	pruned, err := s.store.Prune(ctx, retained)
	if err != nil {
		return out, apperrors.Internal("prune snapshots", err)
	}
	out.Pruned = len(pruned)
	if len(pruned) > 0 {
		s.log.Info("deleted old job postings files", zap.Int("count", len(pruned)))
	}
	return out, nil
}

// RelationalSink inserts new jobs into Postgres. Employers are resolved
// inside the transaction, so records arrive unresolved.
type RelationalSink struct {
	writer   *relational.Writer
	location string
}

func NewRelationalSink(w *relational.Writer, location string) *RelationalSink {
	return &RelationalSink{writer: w, location: location}
}

func (s *RelationalSink) Publish(ctx context.Context, records []domain.JobRecord, _ time.Time) (Outcome, error) {
	if len(records) == 0 {
		return Outcome{Status: domain.StatusNoNewData}, nil
	}
	st, err := s.writer.Write(ctx, records)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Status:   domain.StatusSuccess,
		Location: s.location,
		Inserted: st.Inserted,
		Skipped:  st.Skipped,
		Failed:   st.Failed,
	}, nil
}
