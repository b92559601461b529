// Package query implements the cross-dictionary query executor of
// spec.md §4.6: a nested-loop join over any number of dictionary
// cursors, a WHERE/Project/When/Limit pipeline for the non-materialized
// path, and a spill-group-order pipeline for aggregation/ordering. It
// replaces the original source's macro-spliced `QUERY`/`MATERIALIZED_QUERY`
// control flow (`original_source/src/iinq/iinq.h`) with a data-driven
// Config plus a defer-based resource guard.
package query

import (
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/dictionary"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Row is the query row of spec.md §3: one (key, value) pair per source,
// in source declaration order.
type Row []types.Record

// Config describes one query invocation.
type Config struct {
	Sources []dictionary.Dictionary

	Where   func(row Row) bool
	Project func(row Row, out []byte) int

	Aggregates []Aggregate
	GroupBy    []KeyPart
	OrderBy    []KeyPart
	Having     func(groupRow []byte) bool

	Limit int
	When  func(projected []byte) bool
	Sink  func(row []byte, state any) error

	PageSize     int
	MemoryBudget int
}

// KeyPart names one field of a composite group-by/order-by key within
// the projected row buffer.
type KeyPart struct {
	Offset, Size int
	Direction    types.Direction
	Cmp          types.Comparator
}

// ProjectAll is a ready-made Project implementing the original source's
// SELECT_ALL: concatenate every source's current key+value in
// declaration order.
func ProjectAll(row Row, out []byte) int {
	n := 0
	for _, rec := range row {
		n += copy(out[n:], rec.Key)
		n += copy(out[n:], rec.Value)
	}
	return n
}

// RowSize returns the sum of every source's record size, the
// preallocation length for a projected row (spec.md §3's "Query row").
func RowSize(sources []dictionary.Dictionary) int {
	n := 0
	for _, s := range sources {
		n += s.RecordSize()
	}
	return n
}

// Run executes cfg, driving rows through Sink(row, state). It chooses the
// non-materialized or materialized path based on whether GroupBy/OrderBy/
// Aggregates were declared.
func Run(cfg Config, state any) error {
	if err := validate(cfg); err != nil {
		return err
	}

	driver, err := newJoinDriver(cfg.Sources)
	if err != nil {
		return fmt.Errorf("open sources: %w", err)
	}
	defer driver.Close()

	materialized := len(cfg.GroupBy) > 0 || len(cfg.OrderBy) > 0 || len(cfg.Aggregates) > 0

	if !materialized {
		return runStreaming(cfg, driver, state)
	}
	return runMaterialized(cfg, driver, state)
}

func validate(cfg Config) error {
	if len(cfg.Sources) == 0 {
		return types.ErrIllegalState
	}
	if len(cfg.GroupBy) == 0 && len(cfg.Aggregates) > 0 {
		// Aggregates with no GroupBy is one implicit global group,
		// not an error (spec.md §4.6) — nothing to validate here.
	}
	if len(cfg.GroupBy) > 0 && len(cfg.Aggregates) == 0 {
		return types.ErrIllegalState
	}
	return nil
}

func rowBuffer(cfg Config) []byte {
	size := RowSize(cfg.Sources)
	return make([]byte, size)
}

// sinkRow projects row through Project/When/Limit into Sink, returning
// whether the caller should keep iterating (false once Limit is hit).
func sinkRow(cfg Config, row Row, buf []byte, emitted *int, state any) (bool, error) {
	n := cfg.Project(row, buf)
	projected := buf[:n]

	if cfg.When != nil && !cfg.When(projected) {
		return true, nil
	}
	if cfg.Limit > 0 && *emitted >= cfg.Limit {
		return false, nil
	}
	if err := cfg.Sink(projected, state); err != nil {
		return false, err
	}
	*emitted++
	if cfg.Limit > 0 && *emitted >= cfg.Limit {
		return false, nil
	}
	return true, nil
}
