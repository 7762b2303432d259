package objstore

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Put(ctx, "a/1.json", []byte("[1]"), ContentTypeJSON))
	require.NoError(t, m.Put(ctx, "a/2.json", []byte("[2]"), ContentTypeJSON))
	require.NoError(t, m.Put(ctx, "b/1.json", []byte("[3]"), ContentTypeJSON))

	got, err := m.Get(ctx, "a/2.json")
	require.NoError(t, err)
	assert.Equal(t, "[2]", string(got))
	assert.Equal(t, ContentTypeJSON, m.ContentType("a/2.json"))

	keys, err := m.List(ctx, "a/")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a/1.json", "a/2.json"}, keys)

	require.NoError(t, m.DeleteMany(ctx, []string{"a/1.json"}))
	keys, err = m.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	assert.Equal(t, "mem://a/2.json", m.Location("a/2.json"))
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, "k", []byte("abc"), ContentTypeJSON))

	b, err := m.Get(ctx, "k")
	require.NoError(t, err)
	b[0] = 'z'

	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestS3Location(t *testing.T) {
	s := &S3{bucket: "harvest"}
	assert.Equal(t, "s3://harvest/job_postings/builtin/latest_jobs.json", s.Location("job_postings/builtin/latest_jobs.json"))
}
