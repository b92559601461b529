// Package segmentmanager adapts the teacher's rotating segment-file log
// manager into a fixed-size page allocator: instead of handing back a
// growing *os.File once it crosses a byte threshold and rotating to a
// fresh numbered segment, it hands out fixed-size page indices within a
// single backing file, reusing freed pages (tracked with a bitset, the
// same free-list structure the teacher's rotation logic never needed but
// a page allocator does) before growing the page count. It backs the
// linear-hash dictionary's overflow-page allocator (spec.md §9's tail-
// append overflow-growth resolution).
package segmentmanager

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

const defaultPageSize = 4096

// Option configures a PageAllocator at construction, the same functional-
// option shape the teacher's DiskSegmentManagerOption used for
// WithMaxSegmentSize.
type Option func(*PageAllocator)

// WithPageSize sets the allocator's nominal page size. The allocator
// itself is page-index-only (the backing file's actual byte layout is
// the caller's concern); this is carried for callers that want to derive
// byte offsets from an allocator-owned constant instead of duplicating it.
func WithPageSize(n int) Option {
	return func(a *PageAllocator) { a.pageSize = n }
}

// PageAllocator hands out page indices, reusing freed ones before
// growing, mirroring the teacher's RotateSegment/active-file-replacement
// logic one level down: "rotate to a new segment" becomes "allocate the
// next page."
type PageAllocator struct {
	mu       sync.Mutex
	pageSize int
	free     *bitset.BitSet
	count    int
}

// New returns an empty PageAllocator.
func New(opts ...Option) *PageAllocator {
	a := &PageAllocator{pageSize: defaultPageSize, free: bitset.New(0)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PageSize returns the allocator's configured page size.
func (a *PageAllocator) PageSize() int {
	return a.pageSize
}

// Alloc returns a page index: the lowest freed index if any is
// available, otherwise a new index at the end of the backing file.
func (a *PageAllocator) Alloc() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if idx, ok := a.free.NextSet(0); ok {
		a.free.Clear(idx)
		return int64(idx)
	}
	idx := a.count
	a.count++
	return int64(idx)
}

// Free returns idx to the free list for reuse by a future Alloc.
func (a *PageAllocator) Free(idx int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free.Set(uint(idx))
}

// Count returns the number of pages ever allocated (the backing file's
// high-water mark, not the number currently live).
func (a *PageAllocator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// SetCount seeds the allocator's high-water mark, used when reopening a
// dictionary whose page count was persisted in its own header (the free
// list itself is not persisted: spec.md's dictionaries track their own
// in-use/deleted state, and Open rebuilds any derived index, bloom
// filters included, from the records actually on disk rather than from
// allocator bookkeeping).
func (a *PageAllocator) SetCount(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count = n
}
