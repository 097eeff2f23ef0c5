package takkencrawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Pager moves the listing forward by one page.
// Advance reports false, with no error, when there is no next page.
type Pager interface {
	Advance(ctx context.Context) (bool, error)
}

// NewPager picks the paging strategy that matches the extraction variant.
func NewPager(cfg Config, browser Browser) Pager {
	if cfg.Variant == VariantDetail {
		return &DetailPager{browser: browser, layout: cfg.Listing, timeout: cfg.NavigationTimeout}
	}
	return &ListingPager{browser: browser, layout: cfg.Listing, timeout: cfg.NavigationTimeout}
}

// ListingPager clicks the next-page control and waits for the page to settle.
type ListingPager struct {
	browser Browser
	layout  ListingLayout
	timeout time.Duration
}

func (p *ListingPager) Advance(ctx context.Context) (bool, error) {
	ok, err := HasText(ctx, p.browser, p.layout.NextPageSelector, p.layout.NextPageText)
	if err != nil || !ok {
		return false, err
	}
	if err := p.browser.ClickText(ctx, p.layout.NextPageSelector, p.layout.NextPageText); err != nil {
		return false, err
	}
	if err := p.browser.WaitForLoad(ctx, p.timeout); err != nil {
		return false, err
	}
	return true, nil
}

// firstRowText fingerprints the first data row, skipping header rows.
func firstRowText(rows *goquery.Selection) string {
	row := rows.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("td").Length() > 0
	}).First()
	return normalizeText(row.Text())
}

// DetailPager waits until the first result row differs from what it was
// before the click, since the listing is re-rendered in place.
type DetailPager struct {
	browser Browser
	layout  ListingLayout
	timeout time.Duration
}

const rowChangedScript = `([selector, previous]) => {
	const row = Array.from(document.querySelectorAll(selector)).find((r) => r.querySelector('td'));
	return !!row && row.textContent.replace(/\s+/g, ' ').trim() !== previous;
}`

func (p *DetailPager) Advance(ctx context.Context) (bool, error) {
	doc, err := Document(ctx, p.browser)
	if err != nil {
		return false, err
	}
	if !docHasText(doc, p.layout.NextPageSelector, p.layout.NextPageText) {
		return false, nil
	}
	fingerprint := firstRowText(doc.Find(p.layout.RowSelector))

	if err := p.browser.ClickText(ctx, p.layout.NextPageSelector, p.layout.NextPageText); err != nil {
		return false, err
	}
	arg := []interface{}{p.layout.RowSelector, fingerprint}
	if err := p.browser.WaitForFunction(ctx, rowChangedScript, arg, p.timeout); err != nil {
		return false, err
	}
	return true, nil
}
