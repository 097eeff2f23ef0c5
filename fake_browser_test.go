package takkencrawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeBrowser serves canned listing pages and detail views.
type fakeBrowser struct {
	pages   []string
	details map[string]string

	page   int
	detail string

	stuck bool

	clicks    []string
	backs     int
	waitArgs  []interface{}
	selects   []searchField
	evaluated []string
	waitedFor []string
}

func newFakeBrowser(pages ...string) *fakeBrowser {
	return &fakeBrowser{pages: pages, details: map[string]string{}}
}

func (b *fakeBrowser) Goto(ctx context.Context, url string) error {
	b.page, b.detail = 0, ""
	return nil
}

func (b *fakeBrowser) Content(ctx context.Context) (string, error) {
	if b.detail != "" {
		return b.details[b.detail], nil
	}
	if b.page >= len(b.pages) {
		return "", errors.New("no page loaded")
	}
	return b.pages[b.page], nil
}

func (b *fakeBrowser) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	b.evaluated = append(b.evaluated, script)
	return nil, nil
}

func (b *fakeBrowser) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	b.waitedFor = append(b.waitedFor, selector)
	return nil
}

func (b *fakeBrowser) WaitForFunction(ctx context.Context, script string, arg interface{}, timeout time.Duration) error {
	b.waitArgs = append(b.waitArgs, arg)
	if b.stuck {
		return navigationError("wait for condition", errors.New("timeout exceeded"), true)
	}
	return nil
}

func (b *fakeBrowser) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (b *fakeBrowser) Click(ctx context.Context, selector string, index int) error {
	doc, err := documentFromHTML(b.pages[b.page])
	if err != nil {
		return err
	}
	href, ok := doc.Find(selector).Eq(index).Attr("href")
	if !ok {
		return fmt.Errorf("click %s[%d]: %w", selector, index, ErrUnexpectedLayout)
	}
	if _, ok := b.details[href]; !ok {
		return fmt.Errorf("no detail view for %s", href)
	}
	b.clicks = append(b.clicks, href)
	b.detail = href
	return nil
}

func (b *fakeBrowser) ClickText(ctx context.Context, selector, text string) error {
	if b.page+1 >= len(b.pages) {
		return fmt.Errorf("click %s %q: no such element", selector, text)
	}
	b.clicks = append(b.clicks, text)
	b.page++
	return nil
}

func (b *fakeBrowser) SelectOption(ctx context.Context, selector string, option SelectBy, timeout time.Duration) error {
	b.selects = append(b.selects, searchField{selector: selector, option: option})
	return nil
}

func (b *fakeBrowser) GoBack(ctx context.Context) error {
	b.backs++
	b.detail = ""
	return nil
}

func (b *fakeBrowser) Close() error {
	return nil
}

func listingRow(i int) string {
	return fmt.Sprintf(
		"<tr>\n<td>カナ%d</td>\n<td>会社%d</td>\n<td>第%d号</td>\n<td>東京都<br>千代田区 %d</td>\n<td>03-0000-%04d</td>\n<td>%d000千円</td>\n<td>一般</td>\n</tr>\n",
		i, i, i, i, i, i,
	)
}

func listingRecord(i int) Record {
	return Record{
		Kana:        fmt.Sprintf("カナ%d", i),
		CompanyName: fmt.Sprintf("会社%d", i),
		Address:     fmt.Sprintf("東京都 千代田区 %d", i),
		PhoneNumber: fmt.Sprintf("03-0000-%04d", i),
		Capital:     fmt.Sprintf("%d000千円", i),
		Class:       "一般",
	}
}

// listingPage renders records from..to inclusive.
func listingPage(from, to int, next bool) string {
	var rows []string
	for i := from; i <= to; i++ {
		rows = append(rows, listingRow(i))
	}
	return tablePage(rows, next)
}

func tablePage(rows []string, next bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="re_disp"><tbody>`)
	b.WriteString("<tr><th>商号</th><th>所在地</th></tr>\n")
	for _, row := range rows {
		b.WriteString(row)
	}
	b.WriteString(`</tbody></table><div class="pager"><a href="#">前へ</a>`)
	if next {
		b.WriteString(`<a href="#">次へ</a>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func detailHref(i int) string {
	return fmt.Sprintf("detail?id=%d", i)
}

// detailListingPage renders link rows from..to inclusive and registers a
// detail view for each of them.
func (b *fakeBrowser) detailListingPage(from, to int, next bool) string {
	var rows []string
	for i := from; i <= to; i++ {
		rows = append(rows, fmt.Sprintf("<tr>\n<td><a href=%q>会社%d</a></td>\n<td>東京都</td>\n</tr>\n", detailHref(i), i))
		b.details[detailHref(i)] = detailView(i)
	}
	return tablePage(rows, next)
}

func detailView(i int) string {
	return fmt.Sprintf(`<html><body><table>
<tr><th>商号又は名称（カナ）</th><td>カブシキガイシャ%d</td></tr>
<tr><th>商号又は名称</th><td><span class="phonetic">カブシキガイシャ%d</span><br>株式会社%d</td></tr>
<tr><th>所在地</th><td>東京都<br>千代田区</td></tr>
<tr><th>電話番号</th><td>03-1111-%04d</td></tr>
<tr><th>資本金額</th><td>1000万円</td></tr>
</table></body></html>`, i, i, i, i)
}

func detailRecord(i int) Record {
	return Record{
		Kana:        fmt.Sprintf("カブシキガイシャ%d", i),
		CompanyName: fmt.Sprintf("株式会社%d", i),
		Address:     "東京都 千代田区",
		PhoneNumber: fmt.Sprintf("03-1111-%04d", i),
		Capital:     "1000万円",
	}
}

func testConfig(t *testing.T, variant Variant) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Variant = variant
	cfg.OutputPath = filepath.Join(t.TempDir(), "data", "results.csv")
	cfg.NavigationTimeout = time.Second
	return cfg
}

func testLogger(t *testing.T) *Logger {
	t.Helper()
	return newLogger(io.Discard, t.TempDir())
}
