package sort

import (
	"container/heap"
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// runReader walks one sorted run sequentially. runIndex is the run's
// position in the input order (run 0 was written first) and breaks ties
// when two readers' current records compare equal, so the merge output
// preserves input order across runs the same way a single in-memory
// sort.SliceStable would within one run.
type runReader struct {
	f        storage.File
	recSize  int
	runIndex int
	pos      int64
	cur      []byte
	done     bool
}

func (r *runReader) advance() error {
	buf := make([]byte, r.recSize)
	n, err := r.f.ReadAt(buf, r.pos)
	if n < r.recSize || err != nil {
		r.done = true
		r.cur = nil
		return nil
	}
	r.pos += int64(r.recSize)
	r.cur = buf
	return nil
}

// mergeHeap is a min-heap of runReaders ordered by spec.Compare on their
// current record.
type mergeHeap struct {
	readers []*runReader
	spec    Spec
}

func (h *mergeHeap) Len() int { return len(h.readers) }
func (h *mergeHeap) Less(i, j int) bool {
	if c := h.spec.Compare(h.readers[i].cur, h.readers[j].cur); c != 0 {
		return c < 0
	}
	return h.readers[i].runIndex < h.readers[j].runIndex
}
func (h *mergeHeap) Swap(i, j int) { h.readers[i], h.readers[j] = h.readers[j], h.readers[i] }
func (h *mergeHeap) Push(x any)    { h.readers = append(h.readers, x.(*runReader)) }
func (h *mergeHeap) Pop() any {
	old := h.readers
	n := len(old)
	item := old[n-1]
	h.readers = old[:n-1]
	return item
}

// mergeRuns performs one k-way merge of runs into out, writing
// spec.RecordSize-byte records sequentially. It returns the total number
// of records written.
func mergeRuns(runs []storage.File, spec Spec, out storage.File) (int, error) {
	h := &mergeHeap{spec: spec}
	for i, f := range runs {
		r := &runReader{f: f, recSize: spec.RecordSize, runIndex: i}
		if err := r.advance(); err != nil {
			return 0, err
		}
		if !r.done {
			h.readers = append(h.readers, r)
		}
	}
	heap.Init(h)

	total := 0
	var offset int64
	for h.Len() > 0 {
		top := h.readers[0]
		if _, err := out.WriteAt(top.cur, offset); err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrFileWrite, err)
		}
		offset += int64(spec.RecordSize)
		total++

		if err := top.advance(); err != nil {
			return 0, err
		}
		if top.done {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return total, nil
}
