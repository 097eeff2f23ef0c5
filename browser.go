package takkencrawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Browser is everything the crawl needs from a browser automation engine.
// Waits take an explicit timeout; exceeding it yields an error wrapping
// ErrNavigationTimeout.
type Browser interface {
	Goto(ctx context.Context, url string) error
	// Content returns the rendered HTML of the current view.
	Content(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error)

	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// WaitForFunction blocks until script, called with arg, returns a truthy value.
	WaitForFunction(ctx context.Context, script string, arg interface{}, timeout time.Duration) error
	WaitForLoad(ctx context.Context, timeout time.Duration) error

	// Click clicks the index-th element matching selector.
	Click(ctx context.Context, selector string, index int) error
	// ClickText clicks the first element matching selector whose text contains text.
	ClickText(ctx context.Context, selector, text string) error
	SelectOption(ctx context.Context, selector string, option SelectBy, timeout time.Duration) error
	GoBack(ctx context.Context) error

	Close() error
}

// SelectBy picks a <select> option either by value or by visible label.
type SelectBy struct {
	Value string
	Label string
}

// Document parses the browser's current view.
func Document(ctx context.Context, b Browser) (*goquery.Document, error) {
	html, err := b.Content(ctx)
	if err != nil {
		return nil, err
	}
	return documentFromHTML(html)
}

// HasText reports whether the current view has an element matching selector
// whose text contains text.
func HasText(ctx context.Context, b Browser, selector, text string) (bool, error) {
	doc, err := Document(ctx, b)
	if err != nil {
		return false, err
	}
	return docHasText(doc, selector, text), nil
}

func docHasText(doc *goquery.Document, selector, text string) bool {
	found := doc.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), text)
	})
	return found.Length() > 0
}

// OpenBrowser launches the adapter named in the engine config.
func OpenBrowser(engine Engine, logger *Logger) (Browser, error) {
	var (
		browser Browser
		err     error
	)
	switch engine.Adapter {
	case PlayWrightEngine, "":
		browser, err = newPlaywrightBrowser(engine, logger)
	case RodEngine:
		browser, err = newRodBrowser(engine, logger)
	default:
		return nil, fmt.Errorf("unsupported adapter: %s", engine.Adapter)
	}
	if err != nil {
		return nil, err
	}
	return browser, nil
}

func navigationError(op string, err error, timedOut bool) error {
	if err == nil {
		return nil
	}
	if timedOut {
		return fmt.Errorf("%s: %w: %v", op, ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
