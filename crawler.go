package takkencrawler

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// State is where the crawl loop currently is.
type State int

const (
	StateResuming State = iota
	StatePaging
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResuming:
		return "RESUMING"
	case StatePaging:
		return "PAGING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Summary describes what one run did.
type Summary struct {
	State           State
	SeenBefore      int
	SkippedPages    int
	ResumeExhausted bool
	PagesVisited    int
	NewRecords      int
	Duration        time.Duration
}

// Crawler resumes past already harvested pages, then extracts and persists
// new records page by page until the listing runs out.
type Crawler struct {
	cfg       Config
	browser   Browser
	store     *RecordStore
	extractor Extractor
	pager     Pager
	sinks     []RecordSink
	logger    *Logger
	state     State
}

// NewCrawler wires the crawl loop for cfg. The browser must already show the
// first page of results.
func NewCrawler(cfg Config, browser Browser, logger *Logger, sinks ...RecordSink) *Crawler {
	return &Crawler{
		cfg:       cfg,
		browser:   browser,
		store:     NewRecordStore(cfg.OutputPath, cfg.Variant),
		extractor: NewExtractor(cfg, browser, logger),
		pager:     NewPager(cfg, browser),
		sinks:     sinks,
		logger:    logger,
		state:     StateResuming,
	}
}

func (c *Crawler) State() State {
	return c.state
}

// Run drives the crawl to DONE or FAILED. Records accepted before a failure
// stay persisted so the next run resumes after them.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	startTime := time.Now()
	summary := Summary{}
	finish := func(state State, err error) (Summary, error) {
		c.state = state
		summary.State = state
		summary.Duration = time.Since(startTime)
		if err != nil {
			c.dumpPage(ctx, err)
		}
		return summary, err
	}

	c.state = StateResuming
	seen, err := c.store.LoadSeenKeys()
	if err != nil {
		return finish(StateFailed, err)
	}
	if err := c.store.EnsureHeader(); err != nil {
		return finish(StateFailed, err)
	}
	summary.SeenBefore = seen.Size()

	skip := skipPages(seen.Size(), c.cfg.PerPage)
	c.logger.Info("Resuming with %d stored records: skipping %d page(s)", seen.Size(), skip)
	for i := 0; i < skip; i++ {
		ok, err := c.pager.Advance(ctx)
		if err != nil {
			return finish(StateFailed, fmt.Errorf("skipping page %d/%d: %w", i+1, skip, err))
		}
		if !ok {
			summary.ResumeExhausted = true
			c.logger.Warn("Listing ended after skipping %d of %d page(s); nothing left to collect", i, skip)
			return finish(StateDone, nil)
		}
		summary.SkippedPages++
	}

	c.state = StatePaging
	for page := 1; ; page++ {
		n, err := c.collectPage(ctx, seen)
		if err != nil {
			return finish(StateFailed, fmt.Errorf("page +%d: %w", page, err))
		}
		summary.PagesVisited++
		summary.NewRecords += n
		c.logger.Info("[page +%d] new=%d total_new=%d", page, n, summary.NewRecords)

		ok, err := c.pager.Advance(ctx)
		if err != nil {
			return finish(StateFailed, fmt.Errorf("advancing past page +%d: %w", page, err))
		}
		if !ok {
			return finish(StateDone, nil)
		}
		if page >= c.cfg.MaxPages {
			return finish(StateFailed, fmt.Errorf("next page would be +%d, max is %d: %w", page+1, c.cfg.MaxPages, ErrPageBoundExceeded))
		}
	}
}

// collectPage extracts the current page. Listing pages are committed only
// once they are known to hold exactly one page of new records.
func (c *Crawler) collectPage(ctx context.Context, seen *SeenSet) (int, error) {
	if c.cfg.Variant == VariantDetail {
		return c.extractor.ExtractPage(ctx, seen, func(record Record) error {
			return c.commit(ctx, record)
		})
	}

	var pending []Record
	n, err := c.extractor.ExtractPage(ctx, seen, func(record Record) error {
		pending = append(pending, record)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n != c.cfg.PerPage {
		return 0, fmt.Errorf("got %d new records, want %d: %w", n, c.cfg.PerPage, ErrIncompletePage)
	}
	for _, record := range pending {
		if err := c.commit(ctx, record); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (c *Crawler) commit(ctx context.Context, record Record) error {
	if err := c.store.Append(record); err != nil {
		return err
	}
	if len(c.sinks) == 0 {
		return nil
	}
	mirrored := MirroredRecord{Record: record, Source: c.cfg.SourceURL, CreatedAt: time.Now()}
	for _, sink := range c.sinks {
		if err := sink.Write(ctx, mirrored); err != nil {
			return fmt.Errorf("%s sink: %w", sink.Name(), err)
		}
	}
	return nil
}

// dumpPage keeps the page that broke the run next to the log.
func (c *Crawler) dumpPage(ctx context.Context, cause error) {
	if errors.Is(cause, context.Canceled) {
		c.logger.Error("Crawl cancelled: %v", cause)
		return
	}
	html, err := c.browser.Content(ctx)
	if err != nil {
		c.logger.Error("Crawl failed: %v", cause)
		return
	}
	c.logger.Html(html, c.cfg.SourceURL, fmt.Sprintf("Crawl failed: %v", cause))
}
