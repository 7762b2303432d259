package relational

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
)

const (
	sqlJobExists     = `SELECT EXISTS (SELECT 1 FROM jobs WHERE job_url = $1)`
	sqlCompanyByName = `SELECT id FROM companies WHERE company_name = $1`
	sqlInsertCompany = `INSERT INTO companies (company_name) VALUES ($1) RETURNING id`
	sqlInsertJob     = `
INSERT INTO jobs (searched_job_title, job_title, company_id, location, salary, level, job_url, job_description, date_added, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
)

type WriteStats struct {
	Inserted int
	Skipped  int
	Failed   int
}

type Writer struct {
	db  DB
	log *zap.Logger
}

func NewWriter(db DB, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{db: db, log: logger.Named("relational")}
}

// Write inserts every record whose job_url is not stored yet, creating
// companies on first use. A failing record is rolled back to its savepoint
// and skipped; everything else commits once at the end.
func (w *Writer) Write(ctx context.Context, records []domain.JobRecord) (WriteStats, error) {
	var st WriteStats
	if len(records) == 0 {
		return st, nil
	}

	tx, err := w.db.Begin(ctx)
	if err != nil {
		return st, apperrors.Unavailable("begin job transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		sp, err := tx.Savepoint(ctx)
		if err != nil {
			return st, apperrors.Unavailable("savepoint", err)
		}

		inserted, err := w.writeOne(ctx, sp, rec)
		if err != nil {
			_ = sp.Rollback(ctx)
			st.Failed++
			w.log.Warn("insert failed, skipping",
				zap.String("job_url", rec.URL),
				zap.String("company", rec.Employer.Name),
				zap.Error(err))
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return st, apperrors.Unavailable("release savepoint", err)
		}
		if inserted {
			st.Inserted++
			w.log.Debug("inserted", zap.String("title", rec.Title), zap.String("company", rec.Employer.Name))
		} else {
			st.Skipped++
			w.log.Debug("duplicate job, skipping", zap.String("job_url", rec.URL))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return st, apperrors.Unavailable("commit jobs", err)
	}
	w.log.Info("jobs written",
		zap.Int("inserted", st.Inserted),
		zap.Int("skipped", st.Skipped),
		zap.Int("failed", st.Failed))
	return st, nil
}

func (w *Writer) writeOne(ctx context.Context, q Querier, rec domain.JobRecord) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, sqlJobExists, rec.URL).Scan(&exists); err != nil {
		return false, fmt.Errorf("check job: %w", err)
	}
	if exists {
		return false, nil
	}

	companyID := rec.Employer.ID
	if !rec.Employer.Resolved() {
		id, err := GetOrCreateCompany(ctx, q, rec.Employer.Name)
		if err != nil {
			return false, err
		}
		companyID = id
	}

	_, err := q.Exec(ctx, sqlInsertJob,
		rec.SearchedQuery, rec.Title, companyID, rec.Location, rec.Salary, rec.Level,
		rec.URL, rec.Description, rec.ObservedAt, rec.Source)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}
	return true, nil
}

// GetOrCreateCompany returns the id for name, inserting the company when it is new.
func GetOrCreateCompany(ctx context.Context, q Querier, name string) (int64, error) {
	if name == "" {
		return 0, apperrors.InvalidInput("empty company name", nil)
	}
	var id int64
	err := q.QueryRow(ctx, sqlCompanyByName, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = q.QueryRow(ctx, sqlInsertCompany, name).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("get or create company %q: %w", name, err)
	}
	return id, nil
}
