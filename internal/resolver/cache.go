package resolver

// memoCache is a bounded FIFO cache of successful resolutions keyed by
// (cleaned query, year). Bounding it keeps memory predictable in a
// long-running daemon; failures are not cached so they retry next pass.
type memoCache struct {
	entries map[memoKey]string
	order   []memoKey
	limit   int
}

type memoKey struct {
	query string
	year  int
}

func newMemoCache(limit int) *memoCache {
	if limit <= 0 {
		limit = 1024
	}
	return &memoCache{
		entries: make(map[memoKey]string, limit),
		limit:   limit,
	}
}

func (c *memoCache) get(query string, year int) (string, bool) {
	title, ok := c.entries[memoKey{query, year}]
	return title, ok
}

func (c *memoCache) put(query string, year int, title string) {
	key := memoKey{query, year}
	if _, exists := c.entries[key]; exists {
		c.entries[key] = title
		return
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = title
	c.order = append(c.order, key)
}
