package run

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
)

// Fetcher turns one search query into records with unresolved employers.
type Fetcher interface {
	Name() string
	Scrape(ctx context.Context, query string, observedAt time.Time) ([]domain.JobRecord, error)
}

// Resolver maps an employer display name to its stable id.
type Resolver interface {
	Resolve(ctx context.Context, name string) (int64, error)
}

type ProduceStats struct {
	Queries       int `json:"queries"`
	FailedQueries int `json:"failed_queries"`
	EmptyQueries  int `json:"empty_queries"`
	Records       int `json:"records"`
}

type Producer struct {
	fetcher     Fetcher
	queries     []string
	concurrency int
	log         *zap.Logger
}

func NewProducer(f Fetcher, queries []string, concurrency int, logger *zap.Logger) *Producer {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{
		fetcher:     f,
		queries:     append([]string(nil), queries...),
		concurrency: concurrency,
		log:         logger.Named("producer"),
	}
}

func (p *Producer) Queries() []string { return append([]string(nil), p.queries...) }

// Produce scrapes every query and returns the combined records in query
// order then card order. A failing query is logged and skipped. When res is
// non-nil every employer is resolved once, after all fetches complete, so id
// assignment does not depend on fetch timing.
func (p *Producer) Produce(ctx context.Context, observedAt time.Time, res Resolver) ([]domain.JobRecord, ProduceStats, error) {
	st := ProduceStats{Queries: len(p.queries)}
	perQuery := make([][]domain.JobRecord, len(p.queries))
	failed := make([]bool, len(p.queries))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, q := range p.queries {
		i, q := i, q
		g.Go(func() error {
			recs, err := p.fetcher.Scrape(ctx, q, observedAt)
			if err != nil {
				failed[i] = true
				p.log.Warn("query failed, skipping",
					zap.String("source", p.fetcher.Name()),
					zap.String("query", q),
					zap.Bool("soft", apperrors.IsSoft(err)),
					zap.Error(err))
				return nil // best-effort: don't cancel siblings
			}
			perQuery[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, st, err
	}

	var out []domain.JobRecord
	for i, recs := range perQuery {
		switch {
		case failed[i]:
			st.FailedQueries++
		case len(recs) == 0:
			st.EmptyQueries++
		}
		out = append(out, recs...)
	}

	if res != nil {
		for i := range out {
			id, err := res.Resolve(ctx, out[i].Employer.Name)
			if err != nil {
				return nil, st, apperrors.Internal("resolve employer "+out[i].Employer.Name, err)
			}
			out[i].Employer = out[i].Employer.WithID(id)
		}
	}

	st.Records = len(out)
	p.log.Info("produced",
		zap.Int("queries", st.Queries),
		zap.Int("failed", st.FailedQueries),
		zap.Int("empty", st.EmptyQueries),
		zap.Int("records", st.Records))
	return out, st, nil
}
