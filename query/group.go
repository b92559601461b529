package query

import (
	"bytes"
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	qsort "github.com/Priyanshu23/FlashLogGo/sort"
	"github.com/Priyanshu23/FlashLogGo/sst"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// groupOutLayout describes one finalized-group output record:
// [order-by key | finalized aggregates | representative projected row].
type groupOutLayout struct {
	orderOff, orderSize int
	aggOff, aggSize     int
	projOff, projSize   int
	recordSize          int
}

func buildGroupOutLayout(cfg Config) groupOutLayout {
	orderSize := partsSize(cfg.OrderBy)
	aggSize := len(cfg.Aggregates) * 8
	projSize := RowSize(cfg.Sources)

	l := groupOutLayout{
		orderOff: 0, orderSize: orderSize,
		aggOff: orderSize, aggSize: aggSize,
		projOff: orderSize + aggSize, projSize: projSize,
	}
	l.recordSize = l.projOff + projSize
	return l
}

// group runs the Group phase of the materialized path: if GroupBy has
// any parts, external-sorts the spool by the group-by key (stable) and
// folds aggregates on each run of equal keys; otherwise (Aggregates with
// no GroupBy) folds a single implicit global group over every spooled
// row (spec.md §4.6).
func group(cfg Config, sub storage.Substrate, layout spoolLayout, meta sst.SpoolMeta) (cursor.Cursor, groupOutLayout, error) {
	outLayout := buildGroupOutLayout(cfg)

	gf, err := sub.Create("groups")
	if err != nil {
		return nil, outLayout, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}

	if len(cfg.Aggregates) == 0 {
		// no grouping, no aggregation declared: pass every spooled row
		// through as its own "group" unchanged.
		var count int
		err := readSpoolRows(sub, layout, meta, func(record []byte) error {
			out := make([]byte, outLayout.recordSize)
			copy(out[outLayout.orderOff:], record[layout.orderOff:layout.orderOff+layout.orderSize])
			copy(out[outLayout.projOff:], record[layout.projOff:layout.projOff+layout.projSize])
			if _, err := gf.WriteAt(out, int64(count*outLayout.recordSize)); err != nil {
				return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
			}
			count++
			return nil
		})
		if err != nil {
			return nil, outLayout, err
		}
		gf.Sync()
		gf.Close()
		return openGroupCursor(sub, outLayout, count)
	}

	if len(cfg.GroupBy) == 0 {
		count, err := foldGlobalGroup(cfg, sub, layout, meta, outLayout, gf)
		if err != nil {
			return nil, outLayout, err
		}
		gf.Sync()
		gf.Close()
		return openGroupCursor(sub, outLayout, count)
	}

	count, err := foldSortedGroups(cfg, sub, layout, meta, outLayout, gf)
	if err != nil {
		return nil, outLayout, err
	}
	gf.Sync()
	gf.Close()
	return openGroupCursor(sub, outLayout, count)
}

func newAggregators(cfg Config) []Aggregate {
	out := make([]Aggregate, len(cfg.Aggregates))
	copy(out, cfg.Aggregates)
	for i := range out {
		out[i].reset()
	}
	return out
}

func finalizeGroupRow(aggs []Aggregate, orderKey, projRow []byte, outLayout groupOutLayout) []byte {
	out := make([]byte, outLayout.recordSize)
	copy(out[outLayout.orderOff:], orderKey)
	for i := range aggs {
		aggs[i].finalize(out[outLayout.aggOff:], i*8)
	}
	copy(out[outLayout.projOff:], projRow)
	return out
}

func foldGlobalGroup(cfg Config, sub storage.Substrate, layout spoolLayout, meta sst.SpoolMeta, outLayout groupOutLayout, gf storage.File) (int, error) {
	aggs := newAggregators(cfg)
	var lastOrderKey, lastProj []byte
	seen := false

	err := readSpoolRows(sub, layout, meta, func(record []byte) error {
		seen = true
		proj := record[layout.projOff : layout.projOff+layout.projSize]
		for i := range aggs {
			aggs[i].fold(proj)
		}
		lastOrderKey = append([]byte(nil), record[layout.orderOff:layout.orderOff+layout.orderSize]...)
		lastProj = append([]byte(nil), proj...)
		return nil
	})
	if err != nil || !seen {
		return 0, err
	}

	out := finalizeGroupRow(aggs, lastOrderKey, lastProj, outLayout)
	if cfg.Having != nil && !cfg.Having(out) {
		return 0, nil
	}
	if _, err := gf.WriteAt(out, 0); err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	return 1, nil
}

func foldSortedGroups(cfg Config, sub storage.Substrate, layout spoolLayout, meta sst.SpoolMeta, outLayout groupOutLayout, gf storage.File) (int, error) {
	s := qsort.New(sub, "groupsort", qsort.Spec{
		RecordSize: layout.recordSize,
		KeyParts: []qsort.KeyPart{
			{Offset: layout.groupOff, Size: layout.groupSize, Direction: types.Ascending, Cmp: types.CompareBytes},
		},
	}, cfg.MemoryBudget)

	if err := readSpoolRows(sub, layout, meta, func(record []byte) error {
		return s.Add(record)
	}); err != nil {
		return 0, err
	}

	sorted, err := s.Finish()
	if err != nil {
		return 0, err
	}
	defer sorted.Destroy()

	count := 0
	var curKey []byte
	var aggs []Aggregate
	var orderKey, projRow []byte
	started := false

	flush := func() error {
		if !started {
			return nil
		}
		out := finalizeGroupRow(aggs, orderKey, projRow, outLayout)
		if cfg.Having != nil && !cfg.Having(out) {
			return nil
		}
		if _, err := gf.WriteAt(out, int64(count*outLayout.recordSize)); err != nil {
			return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
		}
		count++
		return nil
	}

	var rec types.Record
	for {
		status := sorted.Next(&rec)
		if status != cursor.Active {
			break
		}
		record := rec.Key
		key := record[layout.groupOff : layout.groupOff+layout.groupSize]

		if !started || !bytes.Equal(key, curKey) {
			if err := flush(); err != nil {
				return 0, err
			}
			curKey = append([]byte(nil), key...)
			aggs = newAggregators(cfg)
			started = true
		}

		proj := record[layout.projOff : layout.projOff+layout.projSize]
		for i := range aggs {
			aggs[i].fold(proj)
		}
		orderKey = append([]byte(nil), record[layout.orderOff:layout.orderOff+layout.orderSize]...)
		projRow = append([]byte(nil), proj...)
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return count, nil
}

// groupCursor replays finalized-group output records sequentially.
type groupCursor struct {
	f          storage.File
	recordSize int
	total      int
	pos        int
	sm         cursor.StateMachine
	seeded     bool
}

func openGroupCursor(sub storage.Substrate, layout groupOutLayout, total int) (cursor.Cursor, groupOutLayout, error) {
	f, err := sub.Open("groups")
	if err != nil {
		return nil, layout, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}
	return &groupCursor{f: f, recordSize: layout.recordSize, total: total}, layout, nil
}

func (c *groupCursor) seed() {
	c.sm = cursor.NewStateMachine(c.total > 0)
	c.seeded = true
}

func (c *groupCursor) Next(out *types.Record) cursor.Status {
	if !c.seeded {
		c.seed()
	}
	status := c.sm.Status()
	if status == cursor.EndOfResults || status == cursor.Invalid {
		return status
	}
	if c.pos >= c.total {
		return c.sm.Advance(false, false)
	}
	buf := make([]byte, c.recordSize)
	if _, err := c.f.ReadAt(buf, int64(c.pos*c.recordSize)); err != nil {
		return c.sm.Advance(false, true)
	}
	c.pos++
	out.Key = buf
	out.Value = nil
	return c.sm.Advance(true, false)
}

func (c *groupCursor) Status() cursor.Status {
	if !c.seeded {
		c.seed()
	}
	return c.sm.Status()
}

func (c *groupCursor) Destroy() error {
	return c.f.Close()
}
