// Package dedupe tracks delivered punch identities so that terminal
// re-delivery of the same punch is answered as a duplicate instead of being
// processed twice.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxSize = 50000

// Key builds the delivery identity of one punch. Two pushes of the same
// employee at the same captured instant are the same punch.
func Key(employeeID string, ts time.Time) string {
	return employeeID + "@" + ts.UTC().Format(time.RFC3339)
}

// Deduper records seen punch identities for at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so the punch can be retried. Used when a
	// punch was marked seen but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of identities currently tracked.
	Size() int64
}

// entry is one node of the recency list.
type entry struct {
	id   string
	next *entry
}

// memDeduper keeps identities in a map plus a singly linked recency list.
// With maxSize > 0 the newest-first list allows evicting the oldest entry
// when full; with maxSize <= 0 the set grows without bound.
type memDeduper struct {
	mu      sync.Mutex
	seen    map[string]*entry
	head    *entry
	maxSize int
	size    atomic.Int64
}

// NewInMemory creates a deduper with configuration options.
func NewInMemory(opts ...Option) Deduper {
	d := &memDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*entry)
	return d
}

func (d *memDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
		e := &entry{id: id, next: d.head}
		d.head = e
		d.seen[id] = e
	} else {
		d.seen[id] = nil
	}
	d.size.Add(1)
	return false
}

func (d *memDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	if d.maxSize <= 0 {
		return
	}

	if d.head == e {
		d.head = e.next
		return
	}
	for cur := d.head; cur != nil; cur = cur.next {
		if cur.next == e {
			cur.next = e.next
			return
		}
	}
}

// evictOldest drops the tail of the recency list. Caller holds d.mu.
func (d *memDeduper) evictOldest() {
	if d.head == nil {
		return
	}
	if d.head.next == nil {
		delete(d.seen, d.head.id)
		d.head = nil
		d.size.Add(-1)
		return
	}
	prev := d.head
	for prev.next.next != nil {
		prev = prev.next
	}
	delete(d.seen, prev.next.id)
	prev.next = nil
	d.size.Add(-1)
}

func (d *memDeduper) Size() int64 {
	return d.size.Load()
}
