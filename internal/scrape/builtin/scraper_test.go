package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/scrape/util"
)

func newTestScraper(t *testing.T, srv *httptest.Server, timeout time.Duration) *Scraper {
	t.Helper()
	return New(Config{
		BaseURL:          srv.URL,
		SearchPath:       "/jobs/remote",
		DaysSinceUpdated: 1,
		UserAgent:        "Mozilla/5.0",
		Label:            "BuiltIn",
		Timeout:          timeout,
	}, srv.Client(), util.NewHostLimiter(1000, 10), nil)
}

func TestScrapeOK(t *testing.T) {
	page, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv, time.Second)
	recs, err := s.Scrape(context.Background(), "data analyst", observed)
	require.NoError(t, err)

	assert.Len(t, recs, 3)
	assert.Equal(t, "search=data+analyst&daysSinceUpdated=1", gotQuery)
	assert.Equal(t, "Mozilla/5.0", gotUA)
	assert.Equal(t, srv.URL+"/job/senior-data-analyst/1001", recs[0].URL)
}

func TestScrapeNon200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	s := newTestScraper(t, srv, time.Second)
	recs, err := s.Scrape(context.Background(), "data analyst", observed)
	require.Error(t, err)
	assert.Nil(t, recs)
	assert.Equal(t, apperrors.ErrTypeTransport, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "403")
}

func TestScrapeTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := newTestScraper(t, srv, 50*time.Millisecond)
	_, err := s.Scrape(context.Background(), "data analyst", observed)
	require.Error(t, err)
	assert.True(t, apperrors.IsSoft(err))
}

func TestScrapeEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>nothing today</body></html>"))
	}))
	defer srv.Close()

	s := newTestScraper(t, srv, time.Second)
	recs, err := s.Scrape(context.Background(), "analytics engineer", observed)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
