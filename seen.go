package takkencrawler

// SeenSet holds the identity keys that are already persisted.
// It is owned by the crawl and shared with the extractor for the duration
// of one run; nothing else mutates it.
type SeenSet struct {
	keys map[IdentityKey]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[IdentityKey]struct{})}
}

func (s *SeenSet) Contains(key IdentityKey) bool {
	_, ok := s.keys[key]
	return ok
}

// Insert adds key and reports whether it was new.
func (s *SeenSet) Insert(key IdentityKey) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *SeenSet) Size() int {
	return len(s.keys)
}

// skipPages is the number of listing pages a resumed run advances past
// before extracting again.
func skipPages(seen, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return seen / perPage
}
