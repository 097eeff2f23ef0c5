package takkencrawler

// ListingLayout locates the result table and its pager control.
type ListingLayout struct {
	ReadySelector string // present once the search has produced results
	RowSelector   string
	// FallbackRowSelector is tried when RowSelector matches nothing.
	FallbackRowSelector string
	NextPageSelector    string
	NextPageText        string
	Columns             ListingColumns
}

// ListingColumns are zero-based cell positions inside a result row.
type ListingColumns struct {
	Kana        int
	CompanyName int
	Address     int
	PhoneNumber int
	Capital     int
	Class       int
}

func (c ListingColumns) max() int {
	m := 0
	for _, i := range []int{c.Kana, c.CompanyName, c.Address, c.PhoneNumber, c.Capital, c.Class} {
		if i > m {
			m = i
		}
	}
	return m
}

// DetailLayout locates a listing row's detail link and the labeled cells of
// the detail view.
type DetailLayout struct {
	LinkSelector string
	// ReadyLabel is waited for after opening a detail view.
	ReadyLabel string

	NameLabel    string
	KanaLabel    string
	KanaSelector string // element inside the name cell that carries the kana
	AddressLabel string
	PhoneLabel   string
	CapitalLabel string
}

func DefaultListingLayout() ListingLayout {
	return ListingLayout{
		ReadySelector:       "table.re_disp",
		RowSelector:         "table.re_disp tbody tr",
		FallbackRowSelector: "table tbody tr",
		NextPageSelector:    "a",
		NextPageText:        "次へ",
		Columns: ListingColumns{
			Kana:        0,
			CompanyName: 1,
			Address:     3,
			PhoneNumber: 4,
			Capital:     5,
			Class:       6,
		},
	}
}

func DefaultDetailLayout() DetailLayout {
	return DetailLayout{
		LinkSelector: "table.re_disp tbody tr td a",
		ReadyLabel:   "商号又は名称",
		NameLabel:    "商号又は名称",
		KanaLabel:    "商号又は名称（カナ）",
		KanaSelector: ".phonetic",
		AddressLabel: "所在地",
		PhoneLabel:   "電話番号",
		CapitalLabel: "資本金額",
	}
}
