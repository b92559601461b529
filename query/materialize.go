package query

import (
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/sst"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// spoolLayout describes one materialized-path spool record:
// [group-by key | order-by key | aggregate placeholders | projected row],
// page-padded (spec.md §4.6).
type spoolLayout struct {
	groupOff, groupSize int
	orderOff, orderSize int
	aggOff, aggSize     int
	projOff, projSize   int
	recordSize          int
}

func buildLayout(cfg Config) spoolLayout {
	groupSize := partsSize(cfg.GroupBy)
	orderSize := partsSize(cfg.OrderBy)
	aggSize := len(cfg.Aggregates) * 8
	projSize := RowSize(cfg.Sources)

	l := spoolLayout{
		groupOff: 0, groupSize: groupSize,
		orderOff: groupSize, orderSize: orderSize,
		aggOff: groupSize + orderSize, aggSize: aggSize,
		projOff: groupSize + orderSize + aggSize, projSize: projSize,
	}
	l.recordSize = l.projOff + projSize
	return l
}

func partsSize(parts []KeyPart) int {
	n := 0
	for _, p := range parts {
		n += p.Size
	}
	return n
}

// extractKey copies the named fields out of a projected row into a
// contiguous key buffer, in declaration order.
func extractKey(parts []KeyPart, projected []byte, out []byte) {
	n := 0
	for _, p := range parts {
		n += copy(out[n:], projected[p.Offset:p.Offset+p.Size])
	}
}

// runMaterialized implements the spill → group → order pipeline of
// spec.md §4.6.
func runMaterialized(cfg Config, driver *joinDriver, state any) error {
	layout := buildLayout(cfg)
	if cfg.PageSize > 0 && layout.recordSize > cfg.PageSize {
		return types.ErrRecordTooLarge
	}

	sub := storage.NewMemory()
	defer sub.Remove("spool")

	meta, err := spill(cfg, driver, sub, layout)
	if err != nil {
		return err
	}

	groupOut, groupLayout, err := group(cfg, sub, layout, meta)
	if err != nil {
		return err
	}
	defer sub.Remove("groups")

	var final cursor.Cursor
	var finalLayout groupOutLayout
	if len(cfg.OrderBy) > 0 {
		final, finalLayout, err = order(cfg, sub, groupOut, groupLayout)
		if err != nil {
			return err
		}
	} else {
		final, finalLayout = groupOut, groupLayout
	}
	defer final.Destroy()

	return drainFinal(cfg, final, finalLayout, state)
}

// spill runs the join, filters through Where, projects, and writes one
// page-padded spool record per surviving row via sst.SpoolWriter: rows
// never span a page boundary, the remainder of a page is left zero-filled
// (spec.md §4.6). The group-by key doubles as the spool's page-index key,
// so a future seek-to-group optimization can consult it directly.
func spill(cfg Config, driver *joinDriver, sub storage.Substrate, layout spoolLayout) (sst.SpoolMeta, error) {
	f, err := sub.Create("spool")
	if err != nil {
		return sst.SpoolMeta{}, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}
	defer f.Close()

	w := sst.NewSpoolWriter(f, layout.recordSize, cfg.PageSize)

	projBuf := make([]byte, layout.projSize)
	record := make([]byte, layout.recordSize)

	for {
		ok, err := driver.next()
		if err != nil {
			return sst.SpoolMeta{}, err
		}
		if !ok {
			break
		}
		if cfg.Where != nil && !cfg.Where(driver.row) {
			continue
		}

		n := cfg.Project(driver.row, projBuf)
		projected := projBuf[:n]

		for i := range record {
			record[i] = 0
		}
		extractKey(cfg.GroupBy, projected, record[layout.groupOff:layout.groupOff+layout.groupSize])
		extractKey(cfg.OrderBy, projected, record[layout.orderOff:layout.orderOff+layout.orderSize])
		copy(record[layout.projOff:], projected)

		if err := w.Write(record, record[layout.groupOff:layout.groupOff+layout.groupSize]); err != nil {
			return sst.SpoolMeta{}, err
		}
	}
	return w.Flush()
}

// drainFinal walks the finalized (optionally ordered) group output,
// dropping the internal order-by key prefix and handing
// [finalized aggregates | representative projected row] to When/Limit/
// Sink.
func drainFinal(cfg Config, final cursor.Cursor, layout groupOutLayout, state any) error {
	emitted := 0
	out := make([]byte, layout.aggSize+layout.projSize)

	var rec types.Record
	for {
		status := final.Next(&rec)
		if status != cursor.Active {
			break
		}
		record := rec.Key
		copy(out, record[layout.aggOff:layout.aggOff+layout.aggSize])
		copy(out[layout.aggSize:], record[layout.projOff:layout.projOff+layout.projSize])

		if cfg.When != nil && !cfg.When(out) {
			continue
		}
		if cfg.Limit > 0 && emitted >= cfg.Limit {
			break
		}
		if err := cfg.Sink(out, state); err != nil {
			return err
		}
		emitted++
		if cfg.Limit > 0 && emitted >= cfg.Limit {
			break
		}
	}
	return nil
}

// readSpoolRows replays spill's page-aware layout via sst.SpoolReader,
// invoking visit once per record in write order.
func readSpoolRows(sub storage.Substrate, layout spoolLayout, meta sst.SpoolMeta, visit func(record []byte) error) error {
	f, err := sub.Open("spool")
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}
	defer f.Close()

	return sst.NewSpoolReader(f, meta).ReadAll(visit)
}
