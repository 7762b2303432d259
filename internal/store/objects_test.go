package store

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
)

func openTestObjects(t *testing.T) *Objects {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewObjects(db)
}

func TestObjectsRoundTrip(t *testing.T) {
	ctx := context.Background()
	o := openTestObjects(t)

	_, err := o.Get(ctx, "reference/company_table.json")
	assert.ErrorIs(t, err, objstore.ErrNotFound)

	require.NoError(t, o.Put(ctx, "reference/company_table.json", []byte(`{"Acme":{"id":1}}`), objstore.ContentTypeJSON))
	require.NoError(t, o.Put(ctx, "reference/company_table.json", []byte(`{"Acme":{"id":1},"Globex":{"id":2}}`), objstore.ContentTypeJSON))

	got, err := o.Get(ctx, "reference/company_table.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Acme":{"id":1},"Globex":{"id":2}}`, string(got))
}

func TestObjectsListAndDelete(t *testing.T) {
	ctx := context.Background()
	o := openTestObjects(t)

	for _, k := range []string{
		"job_postings/builtin/job_postings_2025-01-01_00-00-00.json",
		"job_postings/builtin/job_postings_2025-01-02_00-00-00.json",
		"job_postings/builtin/latest_jobs.json",
		"reference/company_table.json",
	} {
		require.NoError(t, o.Put(ctx, k, []byte("[]"), objstore.ContentTypeJSON))
	}

	keys, err := o.List(ctx, "job_postings/builtin/")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{
		"job_postings/builtin/job_postings_2025-01-01_00-00-00.json",
		"job_postings/builtin/job_postings_2025-01-02_00-00-00.json",
		"job_postings/builtin/latest_jobs.json",
	}, keys)

	require.NoError(t, o.DeleteMany(ctx, []string{
		"job_postings/builtin/job_postings_2025-01-01_00-00-00.json",
		"does/not/exist",
	}))
	keys, err = o.List(ctx, "job_postings/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	all, err := o.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db.Pool))
	require.NoError(t, Migrate(db.Pool))
}

func TestLocation(t *testing.T) {
	o := &Objects{db: &DB{Path: "/var/lib/harvest.db"}}
	assert.Equal(t, "sqlite:///var/lib/harvest.db#latest_jobs.json", o.Location("latest_jobs.json"))
}
