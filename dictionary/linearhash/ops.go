package linearhash

import (
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Insert adds a record at its addressed bucket, following the overflow
// chain for free space and tail-appending a new overflow page when every
// page in the chain is full.
func (d *Dictionary) Insert(key, value []byte) (types.Status, error) {
	addr := d.address(key)

	if d.writeConcern == types.WriteConcernUnique {
		exists, err := d.existsIn(addr, key)
		if err != nil {
			return types.Status{Err: err}, err
		}
		if exists {
			return types.Status{Err: types.ErrDuplicateKey}, nil
		}
	}

	if err := d.insertIntoBucket(addr, key, value); err != nil {
		return types.Status{Err: err}, err
	}
	d.numRecords++
	d.exists.Add(key)

	if err := d.maybeSplit(); err != nil {
		return types.Status{Err: err}, err
	}
	if err := d.writeHeader(); err != nil {
		return types.Status{Err: err}, err
	}
	return types.Status{Count: 1}, nil
}

// existsIn reports whether bucket addr's chain already holds key, using
// the bloom filter to skip the chain walk when the filter reports a
// definite miss.
func (d *Dictionary) existsIn(addr int, key []byte) (bool, error) {
	if !d.exists.Test(key) {
		return false, nil
	}
	found := false
	err := d.walkBucket(addr, func(k, _ []byte) (bool, error) {
		if d.cmp(k, key) == 0 {
			found = true
			return false, nil
		}
		return true, nil
	})
	return found, err
}

// insertIntoBucket writes key/value into the first free slot of bucket
// bucketID's primary page or its overflow chain, tail-appending a new
// overflow page if none has room.
func (d *Dictionary) insertIntoBucket(bucketID int, key, value []byte) error {
	p, err := d.readPage(d.primary, int64(bucketID))
	if err != nil {
		return err
	}

	if slot, ok := freeSlot(p); ok {
		p.slots[slot] = d.encodeSlot(key, value)
		p.occupied++
		p.bucketID = int32(bucketID)
		return d.writePage(d.primary, int64(bucketID), p)
	}

	// walk the overflow chain looking for room.
	var (
		prevIsPrimary = true
		prevIndex     int64
		prevPage      = p
	)
	cur := p.overflowHead
	for cur != noOverflow {
		op, err := d.readPage(d.overflow, int64(cur))
		if err != nil {
			return err
		}
		if slot, ok := freeSlot(op); ok {
			op.slots[slot] = d.encodeSlot(key, value)
			op.occupied++
			op.bucketID = int32(bucketID)
			return d.writePage(d.overflow, cur, op)
		}
		prevIsPrimary = false
		prevIndex = cur
		prevPage = op
		cur = op.overflowHead
	}

	// nothing had room: allocate a new overflow page and tail-append it.
	newIdx, err := d.allocOverflowPage()
	if err != nil {
		return err
	}
	np := d.newPage()
	np.bucketID = int32(bucketID)
	np.slots[0] = d.encodeSlot(key, value)
	np.occupied = 1
	if err := d.writePage(d.overflow, newIdx, np); err != nil {
		return err
	}

	prevPage.overflowHead = int32(newIdx)
	if prevIsPrimary {
		return d.writePage(d.primary, int64(bucketID), prevPage)
	}
	return d.writePage(d.overflow, prevIndex, prevPage)
}

func freeSlot(p page) (int, bool) {
	for i, slot := range p.slots {
		if slot[0] != slotInUse {
			return i, true
		}
	}
	return 0, false
}

// Get returns the first matching record's value.
func (d *Dictionary) Get(key []byte, out *[]byte) error {
	if !d.exists.Test(key) {
		return types.ErrItemNotFound
	}
	addr := d.address(key)
	var found []byte
	err := d.walkBucket(addr, func(k, v []byte) (bool, error) {
		if d.cmp(k, key) == 0 {
			found = append([]byte(nil), v...)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if found == nil {
		return types.ErrItemNotFound
	}
	*out = found
	return nil
}

// Update upserts: replaces the value of every matching slot in the
// addressed chain (Count = records modified), or inserts if none match.
func (d *Dictionary) Update(key, value []byte) (types.Status, error) {
	addr := d.address(key)
	count := 0

	err := d.mutateBucket(addr, func(slot []byte) (bool, bool) {
		if slot[0] == slotInUse && d.cmp(slotKey(slot, d.keySize), key) == 0 {
			copy(slotValue(slot, d.keySize), value)
			count++
			return true, true
		}
		return false, true
	})
	if err != nil {
		return types.Status{Err: err}, err
	}

	if count == 0 {
		if err := d.insertIntoBucket(addr, key, value); err != nil {
			return types.Status{Err: err}, err
		}
		d.numRecords++
		d.exists.Add(key)
		if err := d.maybeSplit(); err != nil {
			return types.Status{Err: err}, err
		}
		if err := d.writeHeader(); err != nil {
			return types.Status{Err: err}, err
		}
		return types.Status{Count: 1}, nil
	}
	return types.Status{Count: count}, nil
}

// Delete removes every record with key from its addressed chain.
func (d *Dictionary) Delete(key []byte) (types.Status, error) {
	addr := d.address(key)
	count := 0

	err := d.mutateBucket(addr, func(slot []byte) (bool, bool) {
		if slot[0] == slotInUse && d.cmp(slotKey(slot, d.keySize), key) == 0 {
			slot[0] = slotEmpty
			count++
			return true, true
		}
		return false, true
	})
	if err != nil {
		return types.Status{Err: err}, err
	}
	if count > 0 {
		d.numRecords -= count
		if err := d.writeHeader(); err != nil {
			return types.Status{Err: err}, err
		}
	}
	return types.Status{Count: count}, nil
}

// mutateBucket visits every slot (in-use or not) reachable from bucketID,
// calling mutate(slot); a true "changed" return writes the page back.
func (d *Dictionary) mutateBucket(bucketID int, mutate func(slot []byte) (changed, cont bool)) error {
	p, err := d.readPage(d.primary, int64(bucketID))
	if err != nil {
		return err
	}
	changed := false
	for _, slot := range p.slots {
		c, cont := mutate(slot)
		changed = changed || c
		if !cont {
			break
		}
	}
	if changed {
		if err := d.writePage(d.primary, int64(bucketID), p); err != nil {
			return err
		}
	}

	next := p.overflowHead
	for next != noOverflow {
		op, err := d.readPage(d.overflow, int64(next))
		if err != nil {
			return err
		}
		changed := false
		for _, slot := range op.slots {
			c, cont := mutate(slot)
			changed = changed || c
			if !cont {
				break
			}
		}
		if changed {
			if err := d.writePage(d.overflow, int64(next), op); err != nil {
				return err
			}
		}
		next = op.overflowHead
	}
	return nil
}

// Find returns a cursor over records matching p, scanning every
// addressable bucket (spec.md §4.2: no secondary index, every Find is a
// full logical scan unless the predicate is an Equality on the hash key,
// in which case only the addressed bucket's chain is walked).
func (d *Dictionary) Find(p predicate.Predicate) (cursor.Cursor, error) {
	c := &Cursor{dict: d, predicate: p}
	if p.Kind == predicate.Equality {
		c.singleBucket = true
		c.bucket = d.address(p.Key)
	}

	hasMatch, err := c.peekNextMatch()
	if err != nil {
		sm := cursor.NewStateMachine(false)
		sm.Invalidate()
		c.sm = sm
		return c, nil
	}
	c.sm = cursor.NewStateMachine(hasMatch)
	return c, nil
}

// Close flushes the header and releases both file handles.
func (d *Dictionary) Close() error {
	if err := d.writeHeader(); err != nil {
		return err
	}
	if err := d.primary.Sync(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileClose, err)
	}
	if err := d.primary.Close(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileClose, err)
	}
	if err := d.overflow.Sync(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileClose, err)
	}
	if err := d.overflow.Close(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileClose, err)
	}
	return nil
}

// Destroy removes both on-disk files.
func (d *Dictionary) Destroy() error {
	if err := d.sub.Remove(primaryName(d.id)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileDelete, err)
	}
	if err := d.sub.Remove(overflowName(d.id)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileDelete, err)
	}
	return nil
}
