package session

import (
	"sync"
	"time"

	"mediakeep/internal/catalog"
	"mediakeep/internal/writer"
)

const defaultLogSize = 20

// Counters tallies outcomes by kind.
type Counters struct {
	Success int
	Partial int
	Error   int
	Skipped int
	// PersistFailures counts outcomes the catalog did not store.
	PersistFailures int
}

// Total returns the number of processed records.
func (c Counters) Total() int {
	return c.Success + c.Partial + c.Error + c.Skipped
}

// Entry is one line of the rolling activity log.
type Entry struct {
	Time    time.Time
	Path    string
	Status  catalog.WriteStatus
	Summary string
}

// Snapshot is a copy of the aggregator state.
type Snapshot struct {
	Counters Counters
	// Recent holds the newest entries, oldest first.
	Recent []Entry
}

// Aggregator implements writer.Observer. It is safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	counters Counters
	ring     []Entry
	next     int
	full     bool
	now      func() time.Time
}

var _ writer.Observer = (*Aggregator)(nil)

// NewAggregator returns an aggregator keeping the last size entries. Sizes
// below 1 use the default.
func NewAggregator(size int) *Aggregator {
	if size < 1 {
		size = defaultLogSize
	}
	return &Aggregator{ring: make([]Entry, size), now: time.Now}
}

// Observe records one outcome.
func (a *Aggregator) Observe(res writer.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch res.Status {
	case catalog.StatusSuccess:
		a.counters.Success++
	case catalog.StatusPartial:
		a.counters.Partial++
	case catalog.StatusError:
		a.counters.Error++
	case catalog.StatusSkipped:
		a.counters.Skipped++
	}
	if res.PersistErr != nil {
		a.counters.PersistFailures++
	}

	a.ring[a.next] = Entry{
		Time:    a.now(),
		Path:    res.Path,
		Status:  res.Status,
		Summary: res.Summary(),
	}
	a.next = (a.next + 1) % len(a.ring)
	if a.next == 0 {
		a.full = true
	}
}

// Snapshot copies the current counters and recent entries.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{Counters: a.counters}
	if a.full {
		snap.Recent = make([]Entry, 0, len(a.ring))
		snap.Recent = append(snap.Recent, a.ring[a.next:]...)
		snap.Recent = append(snap.Recent, a.ring[:a.next]...)
	} else {
		snap.Recent = append([]Entry(nil), a.ring[:a.next]...)
	}
	return snap
}
