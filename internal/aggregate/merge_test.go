package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
)

type fakeReader struct {
	data  map[string][]domain.JobRecord
	reads map[string]int
}

func (f *fakeReader) ReadSnapshot(_ context.Context, key string) ([]domain.JobRecord, error) {
	if f.reads == nil {
		f.reads = map[string]int{}
	}
	f.reads[key]++
	recs, ok := f.data[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return recs, nil
}

func rec(url, title string) domain.JobRecord {
	r := domain.NewJobRecord()
	r.URL = url
	r.Title = title
	return r
}

func TestMergeIdempotentOnRepeatedKey(t *testing.T) {
	r := &fakeReader{data: map[string][]domain.JobRecord{
		"k": {rec("u1", "a"), rec("u2", "b")},
	}}

	once, err := Merge(context.Background(), r, []string{"k"}, PolicyNewest)
	require.NoError(t, err)
	twice, err := Merge(context.Background(), r, []string{"k", "k"}, PolicyNewest)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, 2, r.reads["k"])
}

func TestMergeDedupByURL(t *testing.T) {
	// keys are newest first
	r := &fakeReader{data: map[string][]domain.JobRecord{
		"new": {rec("u1", "u1-new"), rec("u3", "u3-new")},
		"old": {rec("u2", "u2-old"), rec("u1", "u1-old")},
	}}
	keys := []string{"new", "old"}

	newest, err := Merge(context.Background(), r, keys, PolicyNewest)
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, []string{"u1", "u3", "u2"}, urls(newest))
	assert.Equal(t, "u1-new", newest[0].Title)

	oldest, err := Merge(context.Background(), r, keys, PolicyOldest)
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	assert.Equal(t, []string{"u1", "u3", "u2"}, urls(oldest))
	assert.Equal(t, "u1-old", oldest[0].Title)
}

func TestMergeLastRecordWinsWithinSnapshot(t *testing.T) {
	// two queries in one run returned the same posting
	r := &fakeReader{data: map[string][]domain.JobRecord{
		"new": {rec("u1", "first-query"), rec("u2", "b"), rec("u1", "second-query")},
		"old": {rec("u1", "older-run")},
	}}
	keys := []string{"new", "old"}

	for _, p := range []Policy{PolicyNewest, PolicyOldest} {
		got, err := Merge(context.Background(), r, []string{"new"}, p)
		require.NoError(t, err)
		require.Len(t, got, 2, p)
		assert.Equal(t, "second-query", got[0].Title, p)
		assert.Equal(t, "u2", got[1].URL, p)
	}

	newest, err := Merge(context.Background(), r, keys, PolicyNewest)
	require.NoError(t, err)
	assert.Equal(t, "second-query", newest[0].Title)

	oldest, err := Merge(context.Background(), r, keys, PolicyOldest)
	require.NoError(t, err)
	assert.Equal(t, "older-run", oldest[0].Title)
}

func TestMergeReadErrorIsHard(t *testing.T) {
	r := &fakeReader{data: map[string][]domain.JobRecord{}}
	_, err := Merge(context.Background(), r, []string{"gone"}, PolicyNewest)
	assert.Error(t, err)
}

func TestMergeEmpty(t *testing.T) {
	out, err := Merge(context.Background(), &fakeReader{}, nil, PolicyNewest)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyNewest, p)

	p, err = ParsePolicy(" Oldest ")
	require.NoError(t, err)
	assert.Equal(t, PolicyOldest, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}

func urls(rs []domain.JobRecord) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.URL)
	}
	return out
}
