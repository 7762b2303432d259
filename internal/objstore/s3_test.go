package objstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers every request with body and records the signing headers.
type fakeS3 struct {
	mu     sync.Mutex
	paths  []string
	tokens []string
	auth   []string
}

func (f *fakeS3) handler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.tokens = append(f.tokens, r.Header.Get("X-Amz-Security-Token"))
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		w.Header().Set("Content-Type", ContentTypeJSON)
		_, _ = w.Write([]byte(body))
	})
}

func TestS3StaticCredentialsCarrySessionToken(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake.handler("[]"))
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3(ctx, S3Config{
		Bucket:          "harvest",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
		AccessKeyID:     "ASIAEXAMPLE",
		SecretAccessKey: "secret",
		SessionToken:    "sts-session-token",
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "reference/company_table.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.Len(t, fake.tokens, 1)
	assert.Equal(t, "/harvest/reference/company_table.json", fake.paths[0])
	assert.Equal(t, "sts-session-token", fake.tokens[0])
	assert.Contains(t, fake.auth[0], "Credential=ASIAEXAMPLE/")
}

func TestS3LongLivedKeyOmitsSessionToken(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake.handler("[]"))
	defer srv.Close()

	ctx := context.Background()
	s, err := NewS3(ctx, S3Config{
		Bucket:          "harvest",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	_, err = s.Get(ctx, "latest_jobs.json")
	require.NoError(t, err)
	require.Len(t, fake.tokens, 1)
	assert.Empty(t, fake.tokens[0])
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
