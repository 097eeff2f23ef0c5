package takkencrawler

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []MirroredRecord
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(ctx context.Context, record MirroredRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func seedStore(t *testing.T, cfg Config, records ...Record) {
	t.Helper()
	store := NewRecordStore(cfg.OutputPath, cfg.Variant)
	for _, record := range records {
		require.NoError(t, store.Append(record))
	}
}

func countRows(t *testing.T, cfg Config) int {
	t.Helper()
	n, err := NewRecordStore(cfg.OutputPath, cfg.Variant).CountRows()
	require.NoError(t, err)
	return n
}

func TestCrawlerFirstRunWritesHeaderAndPage(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	browser := newFakeBrowser(listingPage(1, 10, false))

	crawler := NewCrawler(cfg, browser, testLogger(t))
	summary, err := crawler.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, summary.State)
	assert.Equal(t, StateDone, crawler.State())
	assert.Equal(t, 10, summary.NewRecords)
	assert.Equal(t, 1, summary.PagesVisited)
	assert.Equal(t, 11, countRows(t, cfg))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.Equal(t, utf8BOM+"カナ,会社名,所在地,電話番号,資本金,区分", lines[0])
	assert.Equal(t, "カナ1,会社1,東京都 千代田区 1,03-0000-0001,1000千円,一般", lines[1])

	seen, err := NewRecordStore(cfg.OutputPath, cfg.Variant).LoadSeenKeys()
	require.NoError(t, err)
	assert.Equal(t, 10, seen.Size())
	assert.True(t, seen.Contains(listingRecord(7).Key()))
}

func TestCrawlerListingFollowsEveryPage(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	browser := newFakeBrowser(
		listingPage(1, 10, true),
		listingPage(11, 20, true),
		listingPage(21, 30, false),
	)

	summary, err := NewCrawler(cfg, browser, testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, summary.NewRecords)
	assert.Equal(t, 3, summary.PagesVisited)
	assert.Equal(t, 31, countRows(t, cfg))
	assert.Equal(t, []string{"次へ", "次へ"}, browser.clicks)
}

func TestCrawlerListingRejectsIncompletePage(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	browser := newFakeBrowser(
		listingPage(1, 10, true),
		listingPage(11, 19, false),
	)

	crawler := NewCrawler(cfg, browser, testLogger(t))
	summary, err := crawler.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompletePage))
	assert.Contains(t, err.Error(), "page +2")
	assert.Equal(t, StateFailed, crawler.State())
	assert.Equal(t, StateFailed, summary.State)
	assert.Equal(t, 10, summary.NewRecords)
	assert.Equal(t, 11, countRows(t, cfg), "nothing from the short page is appended")
}

func TestCrawlerListingRejectsPageOfDuplicates(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	seedStore(t, cfg, listingRecord(5))
	browser := newFakeBrowser(listingPage(1, 10, false))

	_, err := NewCrawler(cfg, browser, testLogger(t)).Run(context.Background())
	assert.ErrorIs(t, err, ErrIncompletePage)
	assert.Equal(t, 2, countRows(t, cfg))
}

func TestCrawlerResumeSkipsHarvestedPages(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	var prior []Record
	for i := 1; i <= 20; i++ {
		prior = append(prior, listingRecord(i))
	}
	seedStore(t, cfg, prior...)
	browser := newFakeBrowser(
		listingPage(1, 10, true),
		listingPage(11, 20, true),
		listingPage(21, 30, false),
	)

	summary, err := NewCrawler(cfg, browser, testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, summary.SeenBefore)
	assert.Equal(t, 2, summary.SkippedPages)
	assert.Equal(t, 1, summary.PagesVisited)
	assert.Equal(t, 10, summary.NewRecords)
	assert.Equal(t, 31, countRows(t, cfg))
}

func TestCrawlerRerunIsIdempotent(t *testing.T) {
	pages := []string{
		listingPage(1, 10, true),
		listingPage(11, 20, true),
		listingPage(21, 30, false),
	}
	cfg := testConfig(t, VariantListing)

	_, err := NewCrawler(cfg, newFakeBrowser(pages...), testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)

	summary, err := NewCrawler(cfg, newFakeBrowser(pages...), testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, summary.State)
	assert.True(t, summary.ResumeExhausted)
	assert.Equal(t, 2, summary.SkippedPages)
	assert.Zero(t, summary.NewRecords)

	after, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCrawlerFailsWhenPageBoundExceeded(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	cfg.MaxPages = 2
	browser := newFakeBrowser(
		listingPage(1, 10, true),
		listingPage(11, 20, true),
		listingPage(21, 30, false),
	)

	crawler := NewCrawler(cfg, browser, testLogger(t))
	summary, err := crawler.Run(context.Background())
	assert.ErrorIs(t, err, ErrPageBoundExceeded)
	assert.Equal(t, StateFailed, crawler.State())
	assert.Equal(t, 2, summary.PagesVisited)
	assert.Equal(t, 21, countRows(t, cfg))
}

func TestCrawlerStopsAtBoundWhenListingEnds(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	cfg.MaxPages = 2
	browser := newFakeBrowser(
		listingPage(1, 10, true),
		listingPage(11, 20, false),
	)

	summary, err := NewCrawler(cfg, browser, testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, summary.NewRecords)
}

func TestCrawlerDetailSkipsKnownCompany(t *testing.T) {
	cfg := testConfig(t, VariantDetail)
	seedStore(t, cfg, detailRecord(2))
	browser := newFakeBrowser()
	browser.pages = []string{browser.detailListingPage(1, 3, false)}

	summary, err := NewCrawler(cfg, browser, testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NewRecords)
	assert.Equal(t, 3, browser.backs, "every detail view returns to the listing")
	assert.Equal(t, 4, countRows(t, cfg))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "株式会社2,"))
	assert.Contains(t, string(data), utf8BOM+"カナ,会社名,所在地,電話番号,資本金\n")
}

func TestCrawlerDetailAcceptsEmptyPage(t *testing.T) {
	cfg := testConfig(t, VariantDetail)
	seedStore(t, cfg, detailRecord(1), detailRecord(2))
	browser := newFakeBrowser()
	browser.pages = []string{
		browser.detailListingPage(1, 2, true),
		browser.detailListingPage(3, 4, false),
	}

	summary, err := NewCrawler(cfg, browser, testLogger(t)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PagesVisited)
	assert.Equal(t, 2, summary.NewRecords)
	assert.Equal(t, 5, countRows(t, cfg))
}

func TestCrawlerDetailTimeoutIsFatal(t *testing.T) {
	cfg := testConfig(t, VariantDetail)
	browser := newFakeBrowser()
	browser.pages = []string{browser.detailListingPage(1, 2, false)}
	browser.stuck = true

	crawler := NewCrawler(cfg, browser, testLogger(t))
	_, err := crawler.Run(context.Background())
	assert.ErrorIs(t, err, ErrNavigationTimeout)
	assert.Equal(t, StateFailed, crawler.State())
	assert.Equal(t, 1, countRows(t, cfg))
}

func TestCrawlerMirrorsCommittedRecords(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	sink := &recordingSink{}
	browser := newFakeBrowser(listingPage(1, 10, false))

	_, err := NewCrawler(cfg, browser, testLogger(t), sink).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.records, 10)
	assert.Equal(t, listingRecord(1), sink.records[0].Record)
	assert.Equal(t, cfg.SourceURL, sink.records[0].Source)
	assert.False(t, sink.records[0].CreatedAt.IsZero())
}

func TestCrawlerSinkFailureIsFatal(t *testing.T) {
	cfg := testConfig(t, VariantListing)
	sink := &recordingSink{err: errors.New("unavailable")}
	browser := newFakeBrowser(listingPage(1, 10, false))

	_, err := NewCrawler(cfg, browser, testLogger(t), sink).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording sink")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "RESUMING", StateResuming.String())
	assert.Equal(t, "PAGING", StatePaging.String())
	assert.Equal(t, "DONE", StateDone.String())
	assert.Equal(t, "FAILED", StateFailed.String())
}
