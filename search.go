package takkencrawler

import (
	"context"
	"fmt"
	"time"
)

const (
	searchFieldTimeout  = 20 * time.Second
	searchResultTimeout = 30 * time.Second
	searchScript        = "() => js_Search('0')"
)

// SearchConditions are the filters submitted before the crawl starts.
// Empty fields are left at whatever the form defaults to.
type SearchConditions struct {
	Choice     string // search by: "1" is licence holder
	KenCode    string // prefecture code, "13" is Tokyo
	Gyosyu     string
	GyosyuType string // selected by label
	DispCount  string // rows per result page
}

func DefaultSearchConditions() SearchConditions {
	return SearchConditions{
		Choice:     "1",
		KenCode:    "13",
		Gyosyu:     "5",
		GyosyuType: "一般建設業",
		DispCount:  "10",
	}
}

type searchField struct {
	selector string
	option   SelectBy
}

func (c SearchConditions) fields() []searchField {
	var fields []searchField
	add := func(selector string, option SelectBy) {
		if option.Value != "" || option.Label != "" {
			fields = append(fields, searchField{selector: selector, option: option})
		}
	}
	add("#choice", SelectBy{Value: c.Choice})
	add("#kenCode", SelectBy{Value: c.KenCode})
	add("#gyosyu", SelectBy{Value: c.Gyosyu})
	add("#gyosyuType", SelectBy{Label: c.GyosyuType})
	add(`select[name="dispCount"]`, SelectBy{Value: c.DispCount})
	return fields
}

// ApplySearchConditions fills the search form, submits it and waits for the
// result table.
func ApplySearchConditions(ctx context.Context, browser Browser, conditions SearchConditions, readySelector string) error {
	for _, field := range conditions.fields() {
		if err := browser.SelectOption(ctx, field.selector, field.option, searchFieldTimeout); err != nil {
			return fmt.Errorf("search condition %s: %w", field.selector, err)
		}
	}
	if _, err := browser.Evaluate(ctx, searchScript, nil); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	if err := browser.WaitForSelector(ctx, readySelector, searchResultTimeout); err != nil {
		return fmt.Errorf("search results: %w", err)
	}
	return nil
}
