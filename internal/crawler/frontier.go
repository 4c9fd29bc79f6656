package crawler

// Frontier is the FIFO queue of candidate URLs awaiting a visit. Duplicates
// may coexist in the queue; deduplication happens at dequeue time against the
// visited ledger. Owned by a single session goroutine, so no locking.
type Frontier struct {
	items []string
}

// NewFrontier creates a frontier seeded with the given URLs
func NewFrontier(seeds ...string) *Frontier {
	f := &Frontier{items: make([]string, 0, len(seeds))}
	f.items = append(f.items, seeds...)
	return f
}

// Push appends a candidate URL to the back of the queue
func (f *Frontier) Push(url string) {
	f.items = append(f.items, url)
}

// Pop removes and returns the front URL. ok is false when the queue is empty.
func (f *Frontier) Pop() (url string, ok bool) {
	if len(f.items) == 0 {
		return "", false
	}
	url = f.items[0]
	f.items = f.items[1:]
	return url, true
}

// Len returns the number of queued candidates
func (f *Frontier) Len() int {
	return len(f.items)
}

// Ledger is the set of URLs that have completed a visit. It only grows within
// a session; navigation failures are never recorded. Its size is the
// traversal's termination bound.
type Ledger struct {
	urls map[string]struct{}
}

// NewLedger creates an empty visited ledger
func NewLedger() *Ledger {
	return &Ledger{urls: make(map[string]struct{})}
}

// Add records a URL as visited
func (l *Ledger) Add(url string) {
	l.urls[url] = struct{}{}
}

// Has reports whether the URL has already been visited
func (l *Ledger) Has(url string) bool {
	_, ok := l.urls[url]
	return ok
}

// Len returns the number of visited URLs
func (l *Ledger) Len() int {
	return len(l.urls)
}
