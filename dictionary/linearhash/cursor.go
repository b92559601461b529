package linearhash

import (
	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Cursor iterates a linear-hash dictionary's records. An Equality
// predicate narrows the walk to a single bucket's chain (singleBucket);
// All and Range predicates scan every addressable bucket in order.
type Cursor struct {
	dict      *Dictionary
	predicate predicate.Predicate

	singleBucket bool
	bucket       int

	bucketIdx int // next bucket to scan, when !singleBucket
	chain     []heldRecord
	chainPos  int
	loaded    bool

	sm cursor.StateMachine
}

// loadBucket walks bucket b's chain into chain/chainPos, without
// mutating dictionary state.
func (c *Cursor) loadBucket(b int) error {
	c.chain = c.chain[:0]
	err := c.dict.walkBucket(b, func(key, value []byte) (bool, error) {
		if c.predicate.Matches(key) {
			c.chain = append(c.chain, heldRecord{
				key:   append([]byte(nil), key...),
				value: append([]byte(nil), value...),
			})
		}
		return true, nil
	})
	c.chainPos = 0
	c.loaded = true
	return err
}

// peekNextMatch reports whether any matching record exists ahead of the
// cursor's current position, without advancing it.
func (c *Cursor) peekNextMatch() (bool, error) {
	if c.singleBucket {
		if err := c.loadBucket(c.bucket); err != nil {
			return false, err
		}
		return len(c.chain) > 0, nil
	}

	size := c.dict.currentSize()
	for b := c.bucketIdx; b < size; b++ {
		if err := c.loadBucket(b); err != nil {
			return false, err
		}
		if len(c.chain) > 0 {
			c.bucketIdx = b
			return true, nil
		}
	}
	c.bucketIdx = size
	return false, nil
}

// Next advances to the next matching record.
func (c *Cursor) Next(out *types.Record) cursor.Status {
	status := c.sm.Status()
	if status == cursor.EndOfResults || status == cursor.Invalid {
		return status
	}

	for {
		if c.loaded && c.chainPos < len(c.chain) {
			rec := c.chain[c.chainPos]
			c.chainPos++
			out.Key = rec.key
			out.Value = rec.value
			return c.sm.Advance(true, false)
		}

		if c.singleBucket {
			return c.sm.Advance(false, false)
		}

		c.bucketIdx++
		if c.bucketIdx >= c.dict.currentSize() {
			return c.sm.Advance(false, false)
		}
		if err := c.loadBucket(c.bucketIdx); err != nil {
			return c.sm.Advance(false, true)
		}
	}
}

// Status returns the cursor's current state.
func (c *Cursor) Status() cursor.Status {
	return c.sm.Status()
}

// Destroy is a no-op: the cursor holds no resources beyond the
// already-open dictionary files.
func (c *Cursor) Destroy() error {
	return nil
}
