package takkencrawler

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// AcceptFunc persists one newly seen record. Extractors mark the record's
// key as seen only once AcceptFunc has returned nil.
type AcceptFunc func(Record) error

// Extractor turns the current listing page into new records.
// It returns how many records it accepted.
type Extractor interface {
	ExtractPage(ctx context.Context, seen *SeenSet, accept AcceptFunc) (int, error)
}

// NewExtractor picks the strategy configured for the run.
func NewExtractor(cfg Config, browser Browser, logger *Logger) Extractor {
	if cfg.Variant == VariantDetail {
		return &DetailExtractor{
			browser: browser,
			listing: cfg.Listing,
			layout:  cfg.Detail,
			timeout: cfg.NavigationTimeout,
			logger:  logger,
		}
	}
	return &ListingExtractor{browser: browser, layout: cfg.Listing}
}

// ListingExtractor reads every field straight from the result table.
type ListingExtractor struct {
	browser Browser
	layout  ListingLayout
}

func (e *ListingExtractor) ExtractPage(ctx context.Context, seen *SeenSet, accept AcceptFunc) (int, error) {
	doc, err := Document(ctx, e.browser)
	if err != nil {
		return 0, err
	}
	records, err := parseListing(doc, e.layout)
	if err != nil {
		return 0, err
	}

	accepted := 0
	for _, record := range records {
		key := record.Key()
		if seen.Contains(key) {
			continue
		}
		if err := accept(record); err != nil {
			return accepted, err
		}
		seen.Insert(key)
		accepted++
	}
	return accepted, nil
}

func parseListing(doc *goquery.Document, layout ListingLayout) ([]Record, error) {
	var (
		records []Record
		err     error
	)
	want := layout.Columns.max() + 1
	cols := layout.Columns

	rows := doc.Find(layout.RowSelector)
	if rows.Length() == 0 && layout.FallbackRowSelector != "" {
		rows = doc.Find(layout.FallbackRowSelector)
	}
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return true
		}
		if cells.Length() < want {
			err = fmt.Errorf("row %d has %d cells, want %d: %w", i+1, cells.Length(), want, ErrUnexpectedLayout)
			return false
		}
		cell := func(idx int) string {
			return cellText(cells.Eq(idx))
		}
		records = append(records, Record{
			Kana:        cell(cols.Kana),
			CompanyName: cell(cols.CompanyName),
			Address:     cell(cols.Address),
			PhoneNumber: cell(cols.PhoneNumber),
			Capital:     cell(cols.Capital),
			Class:       cell(cols.Class),
		})
		return true
	})
	return records, err
}

// cellText reads a cell the way it renders: line breaks become spaces.
func cellText(s *goquery.Selection) string {
	s.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	})
	return normalizeText(s.Text())
}

// DetailExtractor opens each listing row's detail view and reads its labeled layout.
type DetailExtractor struct {
	browser Browser
	listing ListingLayout
	layout  DetailLayout
	timeout time.Duration
	logger  *Logger
}

const labelPresentScript = `(label) => {
	const want = label.replace(/\s+/g, '');
	return Array.from(document.querySelectorAll('th, td'))
		.some((el) => el.textContent.replace(/\s+/g, '') === want);
}`

func (e *DetailExtractor) ExtractPage(ctx context.Context, seen *SeenSet, accept AcceptFunc) (int, error) {
	doc, err := Document(ctx, e.browser)
	if err != nil {
		return 0, err
	}
	links := doc.Find(e.layout.LinkSelector).Length()

	accepted := 0
	for i := 0; i < links; i++ {
		record, err := e.openDetail(ctx, i)
		if err != nil {
			return accepted, fmt.Errorf("detail %d/%d: %w", i+1, links, err)
		}

		key := record.Key()
		if seen.Contains(key) {
			e.logger.Debug("[SKIP] already collected: %s", key)
		} else {
			if err := accept(record); err != nil {
				return accepted, err
			}
			seen.Insert(key)
			accepted++
		}

		if err := e.backToListing(ctx); err != nil {
			return accepted, fmt.Errorf("detail %d/%d: %w", i+1, links, err)
		}
	}
	return accepted, nil
}

func (e *DetailExtractor) openDetail(ctx context.Context, index int) (Record, error) {
	if err := e.browser.Click(ctx, e.layout.LinkSelector, index); err != nil {
		return Record{}, err
	}
	if err := e.browser.WaitForFunction(ctx, labelPresentScript, e.layout.ReadyLabel, e.timeout); err != nil {
		return Record{}, err
	}
	doc, err := Document(ctx, e.browser)
	if err != nil {
		return Record{}, err
	}

	record, split, err := parseDetail(doc, e.layout)
	if err != nil {
		return Record{}, err
	}
	if split == splitNone && record.Kana != "" {
		e.logger.Warn("kana %q not found in name cell; keeping the whole cell as company name", record.Kana)
	}
	return record, nil
}

func (e *DetailExtractor) backToListing(ctx context.Context) error {
	if err := e.browser.GoBack(ctx); err != nil {
		return err
	}
	return e.browser.WaitForSelector(ctx, e.listing.RowSelector, e.timeout)
}

// nameSplit records how the company name was separated from its kana.
type nameSplit int

const (
	splitNone nameSplit = iota
	splitStructural
	splitTextual
	splitLoose
)

func parseDetail(doc *goquery.Document, layout DetailLayout) (Record, nameSplit, error) {
	nameCell := labeledCell(doc, layout.NameLabel)
	if nameCell == nil {
		return Record{}, splitNone, fmt.Errorf("label %q: %w", layout.NameLabel, ErrUnexpectedLayout)
	}

	kana := ""
	if layout.KanaLabel != "" {
		if kanaCell := labeledCell(doc, layout.KanaLabel); kanaCell != nil {
			kana = cellText(kanaCell)
		}
	}
	name, kana, split := splitCompanyName(nameCell, kana, layout.KanaSelector)

	text := func(label string) string {
		if cell := labeledCell(doc, label); cell != nil {
			return cellText(cell)
		}
		return ""
	}
	return Record{
		Kana:        kana,
		CompanyName: name,
		Address:     text(layout.AddressLabel),
		PhoneNumber: text(layout.PhoneLabel),
		Capital:     text(layout.CapitalLabel),
	}, split, nil
}

// labeledCell finds the first th/td whose text equals label, ignoring
// whitespace, and returns the td that follows it.
func labeledCell(doc *goquery.Document, label string) *goquery.Selection {
	if label == "" {
		return nil
	}
	want := compactText(label)
	var found *goquery.Selection
	doc.Find("th, td").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if compactText(s.Text()) != want {
			return true
		}
		next := s.NextAllFiltered("td").First()
		if next.Length() == 0 {
			return true
		}
		found = next
		return false
	})
	return found
}

// splitCompanyName isolates the company name in a cell that also renders the
// kana. A distinct kana node is removed when there is one; otherwise the kana
// is subtracted from the cell text, first literally and then ignoring
// whitespace. When nothing matches, the whole cell is the name.
func splitCompanyName(cell *goquery.Selection, kana, kanaSelector string) (string, string, nameSplit) {
	var node *goquery.Selection
	if kanaSelector != "" {
		if s := cell.Find(kanaSelector).First(); s.Length() > 0 {
			node = s
		}
	}
	if node == nil && kana != "" {
		cell.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if normalizeText(s.Text()) == kana {
				node = s
				return false
			}
			return true
		})
	}
	if node != nil {
		if kana == "" {
			kana = cellText(node)
		}
		node.Remove()
		return cellText(cell), kana, splitStructural
	}

	raw := cellText(cell)
	if kana == "" {
		return raw, kana, splitNone
	}
	if strings.Contains(raw, kana) {
		return normalizeText(strings.Replace(raw, kana, "", 1)), kana, splitTextual
	}
	if rest, ok := removeLoose(raw, kana); ok {
		return normalizeText(rest), kana, splitLoose
	}
	return raw, kana, splitNone
}

// removeLoose removes the first occurrence of sub from text, allowing either
// side to carry whitespace the other does not.
func removeLoose(text, sub string) (string, bool) {
	target := []rune(compactText(sub))
	if len(target) == 0 {
		return text, false
	}
	runes := []rune(text)
	for start := range runes {
		if unicode.IsSpace(runes[start]) {
			continue
		}
		j, k := start, 0
		for j < len(runes) && k < len(target) {
			if unicode.IsSpace(runes[j]) {
				j++
				continue
			}
			if runes[j] != target[k] {
				break
			}
			j++
			k++
		}
		if k == len(target) {
			return string(runes[:start]) + " " + string(runes[j:]), true
		}
	}
	return text, false
}
