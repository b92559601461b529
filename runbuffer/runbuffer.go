// Package runbuffer accumulates one external-sort run in RAM before it is
// flushed to disk. It is a flattened descendant of memtable's
// ordered-type-constraint + Record[K,V] shape (memtable/memtable.go): a
// run buffer doesn't need a skip list's logarithmic point lookups, only
// "accumulate then drain in sorted order once," so the skip list's O(log n)
// insert is traded for a flat append plus one sort per flush.
package runbuffer

import (
	"sort"

	"github.com/Priyanshu23/FlashLogGo/types"
)

// Entry is one buffered record, tagged with its original insertion
// sequence so a stable sort downstream can break comparator ties by
// input order (required for GROUP BY correctness, spec.md §4.5).
type Entry struct {
	Key, Value []byte
	Seq        int
}

// Buffer holds one run's worth of entries ahead of a sort+flush.
type Buffer struct {
	cmp     types.Comparator
	entries []Entry
	nextSeq int
	bytes   int
}

// New returns an empty run buffer ordered by cmp.
func New(cmp types.Comparator) *Buffer {
	return &Buffer{cmp: cmp}
}

// Add appends key/value, recording its arrival order.
func (b *Buffer) Add(key, value []byte) {
	b.entries = append(b.entries, Entry{Key: key, Value: value, Seq: b.nextSeq})
	b.nextSeq++
	b.bytes += len(key) + len(value)
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int { return len(b.entries) }

// Bytes returns the approximate memory footprint of buffered key/value
// pairs, used by the sort package to decide when a run is full.
func (b *Buffer) Bytes() int { return b.bytes }

// Reset empties the buffer for reuse across runs.
func (b *Buffer) Reset() {
	b.entries = b.entries[:0]
	b.nextSeq = 0
	b.bytes = 0
}

// Sorted returns the buffered entries ordered by the buffer's comparator,
// with comparator ties broken by original insertion order (stable sort).
func (b *Buffer) Sorted() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return b.cmp(out[i].Key, out[j].Key) < 0
	})
	return out
}
