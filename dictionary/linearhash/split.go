package linearhash

type heldRecord struct {
	key, value []byte
}

// maybeSplit runs one split step if the dictionary's load factor has
// crossed splitThreshold (spec.md §3: "split-on-load").
func (d *Dictionary) maybeSplit() error {
	capacity := d.currentSize() * d.recordsPerBucket
	if capacity == 0 {
		return nil
	}
	load := d.numRecords * 100 / capacity
	if load < d.splitThreshold {
		return nil
	}
	return d.split()
}

// split rehashes bucket splitPointer's chain across itself and a newly
// appended bucket, per spec.md §3's linear-hash split algorithm.
func (d *Dictionary) split() error {
	oldBucket := d.splitPointer
	newBucket := d.currentSize()

	records, freed, err := d.collectAndClearBucket(oldBucket)
	if err != nil {
		return err
	}

	if err := d.writePage(d.primary, int64(newBucket), page{bucketID: int32(newBucket), overflowHead: noOverflow}); err != nil {
		return err
	}

	d.splitPointer++

	for _, r := range records {
		addr := d.address(r.key)
		if err := d.insertIntoBucket(addr, r.key, r.value); err != nil {
			return err
		}
	}

	for _, idx := range freed {
		d.freeOverflowPage(idx)
	}

	if d.splitPointer >= d.levelBase() {
		d.splitPointer = 0
		d.level++
	}

	return nil
}

// collectAndClearBucket reads every in-use slot reachable from bucketID,
// resets its primary page to empty, and returns the overflow page indices
// that are now free to reuse.
func (d *Dictionary) collectAndClearBucket(bucketID int) ([]heldRecord, []int64, error) {
	var records []heldRecord
	var freedPages []int64

	p, err := d.readPage(d.primary, int64(bucketID))
	if err != nil {
		return nil, nil, err
	}
	for _, slot := range p.slots {
		if slot[0] == slotInUse {
			records = append(records, heldRecord{
				key:   append([]byte(nil), slotKey(slot, d.keySize)...),
				value: append([]byte(nil), slotValue(slot, d.keySize)...),
			})
		}
	}

	next := p.overflowHead
	for next != noOverflow {
		op, err := d.readPage(d.overflow, int64(next))
		if err != nil {
			return nil, nil, err
		}
		for _, slot := range op.slots {
			if slot[0] == slotInUse {
				records = append(records, heldRecord{
					key:   append([]byte(nil), slotKey(slot, d.keySize)...),
					value: append([]byte(nil), slotValue(slot, d.keySize)...),
				})
			}
		}
		freedPages = append(freedPages, next)
		next = op.overflowHead
	}

	empty := d.newPage()
	empty.bucketID = int32(bucketID)
	if err := d.writePage(d.primary, int64(bucketID), empty); err != nil {
		return nil, nil, err
	}

	return records, freedPages, nil
}
