package query

import (
	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/dictionary"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// joinDriver walks N dictionary cursors as nested loops, source 0
// outermost, advancing the innermost cursor each step and, on its
// exhaustion, destroying and re-Find-ing it while advancing the next
// cursor out — exactly the original source's _FROM_ADVANCE_CURSORS macro
// expansion (original_source/src/iinq/iinq.h), re-architected here as an
// explicit Go loop instead of C preprocessor recursion.
type joinDriver struct {
	sources []dictionary.Dictionary
	curs    []cursor.Cursor
	row     Row
	started bool
	done    bool
}

func newJoinDriver(sources []dictionary.Dictionary) (*joinDriver, error) {
	curs := make([]cursor.Cursor, len(sources))
	for i, s := range sources {
		c, err := s.Find(predicate.BuildAll())
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				curs[j].Destroy()
			}
			return nil, err
		}
		curs[i] = c
	}
	return &joinDriver{
		sources: sources,
		curs:    curs,
		row:     make(Row, len(sources)),
	}, nil
}

// Close destroys every live cursor in reverse order then closes every
// source dictionary in reverse order (spec.md §5's single cleanup
// sequence).
func (d *joinDriver) Close() {
	for i := len(d.curs) - 1; i >= 0; i-- {
		if d.curs[i] != nil {
			d.curs[i].Destroy()
		}
	}
	for i := len(d.sources) - 1; i >= 0; i-- {
		d.sources[i].Close()
	}
}

// next advances the join to the next cross-product tuple, filling d.row.
// It returns false once every combination has been produced.
func (d *joinDriver) next() (bool, error) {
	if d.done {
		return false, nil
	}
	n := len(d.curs)

	if !d.started {
		d.started = true
		for i := 0; i < n; i++ {
			var rec types.Record
			status := d.curs[i].Next(&rec)
			if status != cursor.Active {
				d.done = true
				return false, nil
			}
			d.row[i] = rec
		}
		return true, nil
	}

	for i := n - 1; i >= 0; i-- {
		var rec types.Record
		status := d.curs[i].Next(&rec)
		if status == cursor.Active {
			d.row[i] = rec
			for j := i + 1; j < n; j++ {
				if err := d.reinitialize(j); err != nil {
					return false, err
				}
				var rec2 types.Record
				s2 := d.curs[j].Next(&rec2)
				if s2 != cursor.Active {
					d.done = true
					return false, nil
				}
				d.row[j] = rec2
			}
			return true, nil
		}
		if i == 0 {
			d.done = true
			return false, nil
		}
	}
	d.done = true
	return false, nil
}

func (d *joinDriver) reinitialize(i int) error {
	if err := d.curs[i].Destroy(); err != nil {
		return err
	}
	c, err := d.sources[i].Find(predicate.BuildAll())
	if err != nil {
		return err
	}
	d.curs[i] = c
	return nil
}
