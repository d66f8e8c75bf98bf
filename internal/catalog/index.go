// Package catalog provides an in-memory approximate text search over the
// cached title catalog. The index maps every 3-character substring of the
// title words to the entries containing it; queries are scored by gram
// overlap count. The whole structure is rebuilt at the start of each scan
// pass, which is cheap at catalog scale.
package catalog

import (
	"sort"
	"strings"
)

const gramSize = 3

// Entry is one catalog title.
type Entry struct {
	Title      string
	ExternalID string
	Year       int // 0 when unknown
}

// Result is a scored search hit.
type Result struct {
	Entry Entry
	Score int // number of query grams the entry shares
}

// Index is a 3-gram inverted index over catalog entries.
type Index struct {
	grams map[string][]int // gram -> entry positions, duplicates preserved
	list  []Entry
}

// Build constructs the index from the given entries.
func Build(entries []Entry) *Index {
	ix := &Index{
		grams: make(map[string][]int),
		list:  make([]Entry, len(entries)),
	}
	copy(ix.list, entries)

	for i, e := range ix.list {
		for gram := range gramSet(Normalize(e.Title)) {
			ix.grams[gram] = append(ix.grams[gram], i)
		}
	}
	return ix
}

// Search scores every entry sharing at least one gram with the query and
// returns hits sorted by descending overlap count. Ties keep the order in
// which entries were first encountered. A non-zero year restricts scoring to
// entries with that exact year.
func (ix *Index) Search(query string, year int) []Result {
	queryGrams := gramSet(Normalize(query))
	if len(queryGrams) == 0 {
		return nil
	}

	// Sorted grams keep encounter order deterministic across runs.
	ordered := make([]string, 0, len(queryGrams))
	for gram := range queryGrams {
		ordered = append(ordered, gram)
	}
	sort.Strings(ordered)

	scores := make(map[int]int)
	var encounter []int
	for _, gram := range ordered {
		for _, pos := range ix.grams[gram] {
			if year != 0 && ix.list[pos].Year != year {
				continue
			}
			if _, seen := scores[pos]; !seen {
				encounter = append(encounter, pos)
			}
			scores[pos]++
		}
	}

	results := make([]Result, 0, len(encounter))
	for _, pos := range encounter {
		results = append(results, Result{Entry: ix.list[pos], Score: scores[pos]})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Normalize lower-cases text and strips every character except letters,
// digits, whitespace, and periods.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == ' ', r == '\t', r == '\n', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// gramSet returns the set of 3-grams over the words of already-normalized
// text. Words shorter than three characters contribute nothing.
func gramSet(text string) map[string]struct{} {
	grams := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		for i := 0; i+gramSize <= len(word); i++ {
			grams[word[i:i+gramSize]] = struct{}{}
		}
	}
	return grams
}
