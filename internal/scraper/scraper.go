// Package scraper walks the challenge listing and harvests every detail page
// into canonical records.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"challenge-harvester/internal/config"
	"challenge-harvester/internal/crawler"
	"challenge-harvester/internal/ioformats"
	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/models"
	"challenge-harvester/internal/normalize"
	"challenge-harvester/internal/parser"
)

// Sheet names of the scrape workbook.
const (
	SheetBasicInfo = "Basic Info"
	SheetDetails   = "Challenge Details"
)

type Scraper struct {
	listing crawler.Fetcher
	detail  crawler.Fetcher
	parser  *parser.Parser
	limiter *rate.Limiter
	log     zerolog.Logger
}

type Option func(*Scraper)

// WithDetailFetcher fetches detail pages with f instead of the listing fetcher.
func WithDetailFetcher(f crawler.Fetcher) Option {
	return func(s *Scraper) { s.detail = f }
}

// WithLimiter spaces out page fetches.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

func New(f crawler.Fetcher, log zerolog.Logger, opts ...Option) *Scraper {
	s := &Scraper{listing: f, detail: f, parser: parser.New(), log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Build wires a scraper from cfg: the rendered or static fetcher, with the
// listing wait selector applied to the listing only, and the fetch delay.
// The returned closer releases the browser, if one was started.
func Build(cfg *config.Config, log zerolog.Logger) (*Scraper, func()) {
	limiter := llm.NewLimiter(cfg.ScrapeDelay(), 1)
	if !cfg.Scraper.Browser {
		f := crawler.NewHTTPClient(cfg.RequestTimeout(), 10*time.Second, cfg.Scraper.SizeCap)
		return New(f, log, WithLimiter(limiter)), func() {}
	}
	listing := crawler.NewBrowserFetcher(crawler.BrowserConfig{
		ControlURL:        cfg.Scraper.ControlURL,
		Headless:          cfg.Scraper.Headless,
		WaitSelector:      cfg.Scraper.ListingWaitSelector,
		NavigationTimeout: cfg.RequestTimeout(),
	}, log)
	detail := listing.WithWaitSelector(cfg.Scraper.DetailWaitSelector)
	s := New(listing, log, WithDetailFetcher(detail), WithLimiter(limiter))
	return s, func() { _ = listing.Close() }
}

// Skip records a detail page that could not be harvested.
type Skip struct {
	Entry models.ListingEntry
	Err   error
}

type Result struct {
	Listing []models.ListingEntry
	Records []models.Challenge
	Skipped []Skip
}

// Scrape reads the listing and harvests each linked page in order. Only a
// listing failure is an error; a failed detail page is logged and skipped.
func (s *Scraper) Scrape(ctx context.Context, listingURL string) (Result, error) {
	var res Result
	m, err := s.listing.FetchMarkup(ctx, listingURL)
	if err != nil {
		return res, fmt.Errorf("listing: %w", err)
	}
	entries, err := s.parser.ParseListing(bytes.NewReader(m.Body), m.ContentType, m.FinalURL)
	if err != nil {
		return res, fmt.Errorf("listing %s: %w", listingURL, err)
	}
	res.Listing = entries
	s.log.Info().Str("url", listingURL).Int("challenges", len(entries)).Msg("listing parsed")

	for _, e := range entries {
		if err := s.wait(ctx); err != nil {
			return res, err
		}
		rec, err := s.harvest(ctx, e)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.log.Warn().Err(err).Str("url", e.URL).Str("title", e.Title).Msg("detail page skipped")
			res.Skipped = append(res.Skipped, Skip{Entry: e, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func (s *Scraper) wait(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}

func (s *Scraper) harvest(ctx context.Context, e models.ListingEntry) (models.Challenge, error) {
	m, err := s.detail.FetchMarkup(ctx, e.URL)
	if err != nil {
		return models.Challenge{}, err
	}
	sec, err := s.parser.ParseDetail(bytes.NewReader(m.Body), m.ContentType, e.URL)
	if err != nil {
		return models.Challenge{}, err
	}
	if len(sec.Missing) > 0 {
		s.log.Warn().Str("url", e.URL).Strs("missing", sec.Missing).Msg("page elements missing")
	}
	return normalize.FromSection(sec, e.Title), nil
}

// ScrapeToWorkbook scrapes and saves a timestamped workbook in dir,
// returning its path.
func (s *Scraper) ScrapeToWorkbook(ctx context.Context, listingURL, dir, prefix string, now time.Time) (string, Result, error) {
	res, err := s.Scrape(ctx, listingURL)
	if err != nil {
		return "", res, err
	}
	path := filepath.Join(dir, ioformats.TimestampedName(prefix, now))
	err = ioformats.SaveWorkbook(path,
		ioformats.ListingTable(SheetBasicInfo, res.Listing),
		ioformats.SourceTable(SheetDetails, res.Records),
	)
	if err != nil {
		return "", res, fmt.Errorf("save workbook: %w", err)
	}
	s.log.Info().Str("path", path).Int("records", len(res.Records)).Int("skipped", len(res.Skipped)).Msg("workbook saved")
	return path, res, nil
}
