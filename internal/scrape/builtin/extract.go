package builtin

import (
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	"github.com/chris-coyne/job-scraping-pipeline/internal/scrape/util"
)

// Selectors are the structural markers of one listing card.
type Selectors struct {
	Card        string
	Title       string
	Company     string
	Description string
	Detail      string
}

var DefaultSelectors = Selectors{
	Card:        "div.rounded-3",
	Title:       `a[data-id="job-card-title"]`,
	Company:     `a[data-id="company-title"]`,
	Description: "div.fs-sm.fw-regular.mb-md.text-gray-04",
	Detail:      "span.font-barlow.text-gray-04",
}

type Extractor struct {
	BaseURL   string
	Source    string
	Selectors Selectors
}

func NewExtractor(baseURL, source string) *Extractor {
	return &Extractor{BaseURL: baseURL, Source: source, Selectors: DefaultSelectors}
}

type ExtractStats struct {
	Cards   int
	Dropped int
}

// Extract parses one listing page. Cards without a title or company anchor,
// with blank anchor text, or whose title has no usable link, are dropped.
func (e *Extractor) Extract(r io.Reader, query string, observedAt time.Time) ([]domain.JobRecord, ExtractStats, error) {
	var st ExtractStats

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, st, fmt.Errorf("parse listing html: %w", err)
	}

	var out []domain.JobRecord
	doc.Find(e.Selectors.Card).Each(func(_ int, card *goquery.Selection) {
		st.Cards++
		rec, ok := e.extractCard(card, query, observedAt)
		if !ok {
			st.Dropped++
			return
		}
		out = append(out, rec)
	})
	return out, st, nil
}

func (e *Extractor) extractCard(card *goquery.Selection, query string, observedAt time.Time) (domain.JobRecord, bool) {
	titleSel := card.Find(e.Selectors.Title).First()
	companySel := card.Find(e.Selectors.Company).First()
	if titleSel.Length() == 0 || companySel.Length() == 0 {
		return domain.JobRecord{}, false
	}

	href, _ := titleSel.Attr("href")
	jobURL := util.ResolveURL(e.BaseURL, href)
	if jobURL == "" {
		return domain.JobRecord{}, false
	}

	rec := domain.NewJobRecord()
	rec.SearchedQuery = query
	rec.Title = util.CleanText(titleSel.Text())
	rec.Employer = domain.UnresolvedEmployer(util.CleanText(companySel.Text()))
	rec.URL = jobURL
	rec.ObservedAt = observedAt
	rec.Source = e.Source
	if rec.Title == "" || rec.Employer.Name == "" {
		return domain.JobRecord{}, false
	}

	if d := card.Find(e.Selectors.Description).First(); d.Length() > 0 {
		rec.Description = util.CleanText(d.Text())
	}

	var fragments []string
	card.Find(e.Selectors.Detail).Each(func(_ int, s *goquery.Selection) {
		fragments = append(fragments, util.CleanText(s.Text()))
	})
	details := Classify(fragments)
	rec.Salary = details.Salary
	rec.Location = details.Location
	rec.Level = details.Level

	return rec, true
}
