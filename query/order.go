package query

import (
	"github.com/Priyanshu23/FlashLogGo/cursor"
	qsort "github.com/Priyanshu23/FlashLogGo/sort"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// order runs the Order phase: external-sorts the group output by the
// order-by composite key and returns a cursor over the result (spec.md
// §4.6 step 3).
func order(cfg Config, sub storage.Substrate, groupOut cursor.Cursor, layout groupOutLayout) (cursor.Cursor, groupOutLayout, error) {
	s := qsort.New(sub, "ordersort", qsort.Spec{
		RecordSize: layout.recordSize,
		KeyParts:   toGroupOutKeyParts(cfg.OrderBy, layout),
	}, cfg.MemoryBudget)

	var rec types.Record
	for {
		status := groupOut.Next(&rec)
		if status != cursor.Active {
			break
		}
		if err := s.Add(rec.Key); err != nil {
			return nil, layout, err
		}
	}
	groupOut.Destroy()

	sorted, err := s.Finish()
	if err != nil {
		return nil, layout, err
	}
	return sorted, layout, nil
}

// toGroupOutKeyParts maps OrderBy parts (declared as offsets into a
// projected row) to their location within the group-output record's
// prepended order-key region.
func toGroupOutKeyParts(parts []KeyPart, layout groupOutLayout) []qsort.KeyPart {
	out := make([]qsort.KeyPart, len(parts))
	off := layout.orderOff
	for i, p := range parts {
		out[i] = qsort.KeyPart{Offset: off, Size: p.Size, Direction: p.Direction, Cmp: p.Cmp}
		off += p.Size
	}
	return out
}
