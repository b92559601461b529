package sort

import (
	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Cursor replays a merged sort output sequentially. It satisfies
// cursor.Cursor so query can drive it exactly like a dictionary cursor.
type Cursor struct {
	f          storage.File
	recordSize int
	total      int
	pos        int
	sm         cursor.StateMachine
	seeded     bool
}

func (c *Cursor) seed() {
	c.sm = cursor.NewStateMachine(c.total > 0)
	c.seeded = true
}

// Next returns the next record in sorted order.
func (c *Cursor) Next(out *types.Record) cursor.Status {
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

// Status returns the cursor's current state.
func (c *Cursor) Status() cursor.Status {
	if !c.seeded {
		c.seed()
	}
	return c.sm.Status()
}

// Destroy closes the backing sorted-output file.
func (c *Cursor) Destroy() error {
	return c.f.Close()
}
