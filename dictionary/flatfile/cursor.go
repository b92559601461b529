package flatfile

import (
	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Cursor iterates a flat-file dictionary's slots in insertion order,
// skipping empty and deleted slots and testing in-use slots against a
// predicate (spec.md §4.3).
type Cursor struct {
	dict      *Dictionary
	predicate predicate.Predicate
	pos       int64
	sm        cursor.StateMachine
}

// peekNextMatch reports whether a matching slot exists at or after pos,
// without advancing pos.
func (c *Cursor) peekNextMatch() (bool, error) {
	for i := c.pos; i < c.dict.numSlots; i++ {
		status, k, _, err := c.dict.readSlot(i)
		if err != nil {
			return false, err
		}
		if status == statusInUse && c.predicate.Matches(k) {
			return true, nil
		}
	}
	return false, nil
}

// Next advances the cursor to the next matching in-use slot.
func (c *Cursor) Next(out *types.Record) cursor.Status {
	status := c.sm.Status()
	if status == cursor.EndOfResults || status == cursor.Invalid {
		return status
	}

	for c.pos < c.dict.numSlots {
		slotStatus, k, v, err := c.dict.readSlot(c.pos)
		c.pos++
		if err != nil {
			return c.sm.Advance(false, true)
		}
		if slotStatus != statusInUse {
			continue
		}
		if !c.predicate.Matches(k) {
			continue
		}
		out.Key = k
		out.Value = v
		return c.sm.Advance(true, false)
	}

	return c.sm.Advance(false, false)
}

// Status returns the cursor's current state.
func (c *Cursor) Status() cursor.Status {
	return c.sm.Status()
}

// Destroy is a no-op for flatfile cursors: they hold no resources beyond a
// position into the already-open dictionary file.
func (c *Cursor) Destroy() error {
	return nil
}
