package suggest

import "strings"

// Entry is one suggestion. Identity is the URL alone; Title is nil for
// corpus domains and for URLs first seen without a title.
type Entry struct {
	URL   string
	Title *string
}

// index is an insertion-ordered set of entries keyed by URL. It is built
// once, published, and never mutated afterwards.
type index struct {
	entries map[string]Entry
	order   []string
	corpus  int
}

func newIndex(capacity int) *index {
	return &index{
		entries: make(map[string]Entry, capacity),
		order:   make([]string, 0, capacity),
	}
}

// insert adds e unless its URL is already present, in which case the
// existing entry keeps both its position and its title.
func (ix *index) insert(e Entry) bool {
	if e.URL == "" {
		return false
	}
	if _, ok := ix.entries[e.URL]; ok {
		return false
	}
	ix.entries[e.URL] = e
	ix.order = append(ix.order, e.URL)
	return true
}

func (ix *index) len() int {
	return len(ix.order)
}

// filter returns copies of every entry whose URL contains substr, in
// index order.
func (ix *index) filter(substr string) []Entry {
	results := []Entry{}
	for _, u := range ix.order {
		if strings.Contains(u, substr) {
			results = append(results, ix.entries[u].clone())
		}
	}
	return results
}

func (ix *index) title(url string) *string {
	e, ok := ix.entries[url]
	if !ok {
		return nil
	}
	return e.clone().Title
}

// clone detaches the title pointer so callers cannot write through it.
func (e Entry) clone() Entry {
	if e.Title == nil {
		return e
	}
	t := *e.Title
	return Entry{URL: e.URL, Title: &t}
}
