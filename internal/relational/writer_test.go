package relational

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
)

// fakeDB is a tiny in-memory stand-in that understands the writer's statements.
// Savepoints stage changes and publish them on Commit.
type fakeDB struct {
	companies map[string]int64
	jobs      map[string]int64
	failURL   string
	committed bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{companies: map[string]int64{}, jobs: map[string]int64{}}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return 0, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return (&fakeTx{db: f}).QueryRow(ctx, sql, args...)
}

func (f *fakeDB) Begin(ctx context.Context) (Tx, error) {
	return &fakeTx{db: f, root: true}, nil
}

type fakeTx struct {
	db        *fakeDB
	root      bool
	companies map[string]int64
	jobs      map[string]int64
}

type fakeRow struct {
	val any
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *int64:
		*d = r.val.(int64)
	case *bool:
		*d = r.val.(bool)
	}
	return nil
}

func (t *fakeTx) lookupCompany(name string) (int64, bool) {
	if id, ok := t.companies[name]; ok {
		return id, true
	}
	id, ok := t.db.companies[name]
	return id, ok
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) Row {
	switch sql {
	case sqlJobExists:
		url := args[0].(string)
		_, staged := t.jobs[url]
		_, stored := t.db.jobs[url]
		return fakeRow{val: staged || stored}
	case sqlCompanyByName:
		if id, ok := t.lookupCompany(args[0].(string)); ok {
			return fakeRow{val: id}
		}
		return fakeRow{err: pgx.ErrNoRows}
	case sqlInsertCompany:
		if t.companies == nil {
			t.companies = map[string]int64{}
		}
		id := int64(len(t.db.companies) + 1)
		t.companies[args[0].(string)] = id
		return fakeRow{val: id}
	}
	return fakeRow{err: errors.New("unexpected query")}
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	if sql != sqlInsertJob {
		return 0, errors.New("unexpected exec")
	}
	url := args[6].(string)
	if url == t.db.failURL {
		return 0, errors.New("value too long")
	}
	if t.jobs == nil {
		t.jobs = map[string]int64{}
	}
	t.jobs[url] = args[2].(int64)
	return 1, nil
}

func (t *fakeTx) Savepoint(context.Context) (Tx, error) {
	return &fakeTx{db: t.db}, nil
}

func (t *fakeTx) Commit(context.Context) error {
	for k, v := range t.companies {
		t.db.companies[k] = v
	}
	for k, v := range t.jobs {
		t.db.jobs[k] = v
	}
	if t.root {
		t.db.committed = true
	}
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.companies, t.jobs = nil, nil
	return nil
}

func job(url, company string) domain.JobRecord {
	r := domain.NewJobRecord()
	r.SearchedQuery = "data analyst"
	r.Title = "Analyst"
	r.Employer = domain.UnresolvedEmployer(company)
	r.URL = url
	r.ObservedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Source = "BuiltIn"
	return r
}

func TestWriterInsertsSkipsAndSurvivesFailures(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	db.jobs["https://builtin.com/job/old"] = 1
	db.companies["Acme"] = 1
	db.failURL = "https://builtin.com/job/bad"

	w := NewWriter(db, nil)
	st, err := w.Write(ctx, []domain.JobRecord{
		job("https://builtin.com/job/old", "Acme"),
		job("https://builtin.com/job/bad", "Initech"),
		job("https://builtin.com/job/1", "Acme"),
		job("https://builtin.com/job/2", "Globex"),
	})
	require.NoError(t, err)

	assert.Equal(t, WriteStats{Inserted: 2, Skipped: 1, Failed: 1}, st)
	assert.True(t, db.committed)
	assert.Equal(t, int64(1), db.jobs["https://builtin.com/job/1"])
	assert.Equal(t, int64(2), db.jobs["https://builtin.com/job/2"])
	assert.NotContains(t, db.jobs, "https://builtin.com/job/bad")
	// rolled back with its savepoint
	assert.NotContains(t, db.companies, "Initech")
}

func TestWriterEmptyIsNoop(t *testing.T) {
	db := newFakeDB()
	st, err := NewWriter(db, nil).Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, WriteStats{}, st)
	assert.False(t, db.committed)
}

func TestGetOrCreateCompany(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)

	id, err := GetOrCreateCompany(ctx, tx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	again, err := GetOrCreateCompany(ctx, tx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = GetOrCreateCompany(ctx, tx, "")
	assert.Error(t, err)
}
