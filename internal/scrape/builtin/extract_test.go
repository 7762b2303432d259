package builtin

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var observed = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

func TestExtractFixture(t *testing.T) {
	f, err := os.Open("testdata/listing.html")
	require.NoError(t, err)
	defer f.Close()

	e := NewExtractor("https://builtin.com", "BuiltIn")
	recs, st, err := e.Extract(f, "data analyst", observed)
	require.NoError(t, err)

	assert.Equal(t, 4, st.Cards)
	assert.Equal(t, 1, st.Dropped)
	require.Len(t, recs, 3)

	first := recs[0]
	assert.Equal(t, "data analyst", first.SearchedQuery)
	assert.Equal(t, "Senior Data Analyst", first.Title)
	assert.Equal(t, "Acme Analytics", first.Employer.Name)
	assert.False(t, first.Employer.Resolved())
	assert.Equal(t, "https://builtin.com/job/senior-data-analyst/1001", first.URL)
	assert.Equal(t, "Own the metrics layer for our growth team.", first.Description)
	assert.Equal(t, "$90K-$120K Annually", first.Salary)
	assert.Equal(t, "Austin, TX", first.Location)
	assert.Equal(t, "Senior level", first.Level)
	assert.Equal(t, observed, first.ObservedAt)
	assert.Equal(t, "BuiltIn", first.Source)

	second := recs[1]
	assert.Equal(t, "No description provided", second.Description)
	assert.Equal(t, "Remote", second.Location)
	assert.Equal(t, "Not Provided", second.Salary)
	assert.Equal(t, "Unknown", second.Level)

	third := recs[2]
	assert.Equal(t, "https://builtin.com/job/junior-analyst/1003", third.URL)
	assert.Equal(t, "USA", third.Location)
	assert.Equal(t, "Junior", third.Level)
}

func TestExtractDropsCardsMissingTitleOrCompany(t *testing.T) {
	html := `
<div class="rounded-3"><a data-id="job-card-title" href="/job/1">No company</a></div>
<div class="rounded-3"><a data-id="company-title">No title</a></div>
<div class="rounded-3"><a data-id="job-card-title">No href</a><a data-id="company-title">Co</a></div>
<div class="rounded-3"><a data-id="job-card-title" href="/job/3">Blank company</a><a data-id="company-title">  </a></div>
<div class="rounded-3"><a data-id="job-card-title" href="/job/4">Kept</a><a data-id="company-title">Co</a></div>`

	e := NewExtractor("https://builtin.com", "BuiltIn")
	recs, st, err := e.Extract(strings.NewReader(html), "q", observed)
	require.NoError(t, err)

	assert.Equal(t, 5, st.Cards)
	assert.Equal(t, 4, st.Dropped)
	require.Len(t, recs, 1)
	assert.Equal(t, "Kept", recs[0].Title)
	assert.NotEmpty(t, recs[0].URL)
}

func TestExtractNoCards(t *testing.T) {
	e := NewExtractor("https://builtin.com", "BuiltIn")
	recs, st, err := e.Extract(strings.NewReader("<html><body><p>No results</p></body></html>"), "q", observed)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, st.Cards)
}
