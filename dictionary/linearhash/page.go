package linearhash

import (
	"encoding/binary"
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/types"
)

// page is the in-RAM decoding of one bucket or overflow page.
type page struct {
	bucketID     int32
	occupied     int32
	overflowHead int32
	slots        [][]byte // raw slotSize-byte slots, status byte first
}

func (d *Dictionary) newPage() page {
	p := page{overflowHead: noOverflow, slots: make([][]byte, d.recordsPerBucket)}
	for i := range p.slots {
		p.slots[i] = make([]byte, d.slotSize)
	}
	return p
}

// primaryBase is where bucket pages start in the primary file, after the
// fixed-size persistent header (header.go).
const primaryBase = int64(headerSize)

func (d *Dictionary) readPage(f pageFile, index int64) (page, error) {
	base := int64(0)
	if f == pageFile(d.primary) {
		base = primaryBase
	}
	buf := make([]byte, d.pageSize)
	if _, err := f.ReadAt(buf, base+index*d.pageSize); err != nil {
		return page{}, fmt.Errorf("%w: %v", types.ErrFileRead, err)
	}

	p := page{
		bucketID:     int32(binary.LittleEndian.Uint32(buf[0:4])),
		occupied:     int32(binary.LittleEndian.Uint32(buf[4:8])),
		overflowHead: int32(binary.LittleEndian.Uint32(buf[8:12])),
		slots:        make([][]byte, d.recordsPerBucket),
	}
	for i := 0; i < d.recordsPerBucket; i++ {
		off := pageHeaderSize + i*d.slotSize
		p.slots[i] = append([]byte(nil), buf[off:off+d.slotSize]...)
	}
	return p, nil
}

func (d *Dictionary) writePage(f pageFile, index int64, p page) error {
	base := int64(0)
	if f == pageFile(d.primary) {
		base = primaryBase
	}

	buf := make([]byte, d.pageSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.bucketID))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.occupied))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.overflowHead))

	for i := 0; i < d.recordsPerBucket; i++ {
		off := pageHeaderSize + i*d.slotSize
		if i < len(p.slots) && p.slots[i] != nil {
			copy(buf[off:off+d.slotSize], p.slots[i])
		}
	}

	if _, err := f.WriteAt(buf, base+index*d.pageSize); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	return nil
}

// pageFile is the subset of storage.File page IO needs.
type pageFile interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
}

func slotKey(slot []byte, keySize int) []byte {
	return slot[1 : 1+keySize]
}

func slotValue(slot []byte, keySize int) []byte {
	return slot[1+keySize:]
}

func (d *Dictionary) encodeSlot(key, value []byte) []byte {
	buf := make([]byte, d.slotSize)
	buf[0] = slotInUse
	copy(buf[1:1+d.keySize], key)
	copy(buf[1+d.keySize:], value)
	return buf
}

// allocOverflowPage returns a free overflow page index, reusing one from
// the allocator's free list if available, else extending the overflow
// file (tail-append per spec.md §9's resolution of the overflow-growth
// open question).
func (d *Dictionary) allocOverflowPage() (int64, error) {
	return d.overflowPages.Alloc(), nil
}

func (d *Dictionary) freeOverflowPage(index int64) {
	d.overflowPages.Free(index)
}

// walkBucket visits every in-use (key, value) pair reachable from bucket
// bucketID's primary page, following its overflow chain. visit returning
// false stops the walk early.
func (d *Dictionary) walkBucket(bucketID int, visit func(key, value []byte) (bool, error)) error {
	p, err := d.readPage(d.primary, int64(bucketID))
	if err != nil {
		return err
	}

	cont, err := d.walkPageSlots(p, visit)
	if err != nil || !cont {
		return err
	}

	next := p.overflowHead
	for next != noOverflow {
		op, err := d.readPage(d.overflow, int64(next))
		if err != nil {
			return err
		}
		cont, err := d.walkPageSlots(op, visit)
		if err != nil || !cont {
			return err
		}
		next = op.overflowHead
	}
	return nil
}

func (d *Dictionary) walkPageSlots(p page, visit func(key, value []byte) (bool, error)) (bool, error) {
	for _, slot := range p.slots {
		if slot[0] != slotInUse {
			continue
		}
		cont, err := visit(slotKey(slot, d.keySize), slotValue(slot, d.keySize))
		if err != nil || !cont {
			return false, err
		}
	}
	return true, nil
}
