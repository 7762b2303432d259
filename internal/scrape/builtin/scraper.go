package builtin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
	"github.com/chris-coyne/job-scraping-pipeline/internal/scrape/util"
)

const maxPageBytes = 8 << 20

type Config struct {
	BaseURL          string
	SearchPath       string
	DaysSinceUpdated int
	UserAgent        string
	Label            string
	Timeout          time.Duration
}

type Scraper struct {
	cfg       Config
	hc        *http.Client
	limiter   *util.HostLimiter
	extractor *Extractor
	logger    *zap.Logger
}

func New(cfg Config, hc *http.Client, limiter *util.HostLimiter, logger *zap.Logger) *Scraper {
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:       cfg,
		hc:        hc,
		limiter:   limiter,
		extractor: NewExtractor(cfg.BaseURL, cfg.Label),
		logger:    logger.Named("builtin"),
	}
}

func (s *Scraper) Name() string { return "builtin" }

// Scrape fetches and parses the listing page for one query. Non-200
// responses and timeouts come back as TRANSPORT errors; an empty page is
// (nil, nil).
func (s *Scraper) Scrape(ctx context.Context, query string, observedAt time.Time) ([]domain.JobRecord, error) {
	pageURL := util.SearchURL(s.cfg.BaseURL, s.cfg.SearchPath, query, s.cfg.DaysSinceUpdated)
	s.logger.Info("searching", zap.String("query", query), zap.String("url", pageURL))

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	recs, st, err := s.extractor.Extract(bytes.NewReader(body), query, observedAt)
	if err != nil {
		return nil, apperrors.InvalidInput("listing page", err)
	}
	if st.Cards == 0 {
		s.logger.Warn("no job listings found", zap.String("query", query))
		return nil, nil
	}
	s.logger.Info("extracted",
		zap.String("query", query),
		zap.Int("cards", st.Cards),
		zap.Int("records", len(recs)),
		zap.Int("dropped", st.Dropped))
	return recs, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.WaitURL(fctx, pageURL); err != nil {
			return nil, apperrors.Transport("rate limit wait", err)
		}
	}

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.InvalidInput("build request", err)
	}
	ua := s.cfg.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0"
	}
	req.Header.Set("User-Agent", ua)

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, apperrors.Transport("get listing page", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, apperrors.Transport(fmt.Sprintf("listing page status %d", res.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return nil, apperrors.Transport("read listing page", err)
	}
	return body, nil
}
