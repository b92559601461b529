// Package flatfile implements the ordered-append, status-flagged dictionary
// of spec.md §4.3: records are appended contiguously to a single file, each
// slot carrying a status byte alongside its fixed-size key and value.
// Deletions mark a slot deleted without compaction; later inserts may reuse
// a deleted slot from the front of the file.
package flatfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

const (
	magic   = 0x46464C31 // "FFL1"
	version = 1

	statusEmpty byte = iota
	statusInUse
	statusDeleted
)

const headerSize = 4 + 4 + 4 + 4 + 4 + 4 // magic, version, keyType, keySize, valueSize, declaredCapacity

// Dictionary is the flat-file implementation of dictionary.Dictionary.
type Dictionary struct {
	id            string
	sub           storage.Substrate
	f             storage.File
	keyType       types.KeyType
	keySize       int
	valueSize     int
	declaredCap   int
	writeConcern  types.WriteConcern
	cmp           types.Comparator
	slotSize      int64
	numSlots      int64
	inUse         *bitset.BitSet
	deleted       *bitset.BitSet
}

func fileName(id string) string { return id + ".ff" }

// Create allocates a new flat-file dictionary, writes its header, and
// returns it ready for use.
func Create(
	id string,
	sub storage.Substrate,
	keyType types.KeyType,
	keySize, valueSize, declaredCapacity int,
	writeConcern types.WriteConcern,
	cmp types.Comparator,
) (*Dictionary, error) {
	f, err := sub.Create(fileName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}

	d := &Dictionary{
		id:           id,
		sub:          sub,
		f:            f,
		keyType:      keyType,
		keySize:      keySize,
		valueSize:    valueSize,
		declaredCap:  declaredCapacity,
		writeConcern: writeConcern,
		cmp:          cmp,
		slotSize:     int64(1 + keySize + valueSize),
		inUse:        bitset.New(0),
		deleted:      bitset.New(0),
	}

	if err := d.writeHeader(); err != nil {
		return nil, err
	}

	return d, nil
}

// Open re-hydrates a flat-file dictionary from its persistent header and
// scans the body to rebuild the in-RAM slot bitsets.
func Open(id string, sub storage.Substrate, writeConcern types.WriteConcern, cmp types.Comparator) (*Dictionary, error) {
	f, err := sub.Open(fileName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}

	d := &Dictionary{
		id:           id,
		sub:          sub,
		f:            f,
		writeConcern: writeConcern,
		cmp:          cmp,
		inUse:        bitset.New(0),
		deleted:      bitset.New(0),
	}

	if err := d.readHeader(); err != nil {
		return nil, err
	}
	d.slotSize = int64(1 + d.keySize + d.valueSize)

	if err := d.rebuildBitsets(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Dictionary) writeHeader() error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], version)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(d.keyType))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(d.keySize))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(d.valueSize))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(d.declaredCap))

	if _, err := d.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	return nil
}

func (d *Dictionary) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := d.f.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileRead, err)
	}

	gotMagic := binary.LittleEndian.Uint32(buf[0:4])
	gotVersion := binary.LittleEndian.Uint32(buf[4:8])
	if gotMagic != magic || gotVersion != version {
		return fmt.Errorf("%w: bad header magic/version", types.ErrFileRead)
	}

	d.keyType = types.KeyType(binary.LittleEndian.Uint32(buf[8:12]))
	d.keySize = int(binary.LittleEndian.Uint32(buf[12:16]))
	d.valueSize = int(binary.LittleEndian.Uint32(buf[16:20]))
	d.declaredCap = int(binary.LittleEndian.Uint32(buf[20:24]))
	return nil
}

func (d *Dictionary) rebuildBitsets() error {
	n, err := d.slotCount()
	if err != nil {
		return err
	}

	d.numSlots = n
	d.inUse = bitset.New(uint(n))
	d.deleted = bitset.New(uint(n))

	for i := int64(0); i < n; i++ {
		status, _, _, err := d.readSlot(i)
		if err != nil {
			return err
		}
		switch status {
		case statusInUse:
			d.inUse.Set(uint(i))
		case statusDeleted:
			d.deleted.Set(uint(i))
		}
	}
	return nil
}

func (d *Dictionary) slotCount() (int64, error) {
	end, err := d.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrFileRead, err)
	}
	body := end - headerSize
	if body <= 0 {
		return 0, nil
	}
	return body / d.slotSize, nil
}

func (d *Dictionary) slotOffset(i int64) int64 {
	return headerSize + i*d.slotSize
}

func (d *Dictionary) readSlot(i int64) (status byte, key, value []byte, err error) {
	buf := make([]byte, d.slotSize)
	if _, err := d.f.ReadAt(buf, d.slotOffset(i)); err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", types.ErrFileRead, err)
	}
	status = buf[0]
	key = append([]byte(nil), buf[1:1+d.keySize]...)
	value = append([]byte(nil), buf[1+d.keySize:]...)
	return status, key, value, nil
}

func (d *Dictionary) writeSlot(i int64, status byte, key, value []byte) error {
	buf := make([]byte, d.slotSize)
	buf[0] = status
	copy(buf[1:1+d.keySize], key)
	copy(buf[1+d.keySize:], value)

	if _, err := d.f.WriteAt(buf, d.slotOffset(i)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	return nil
}

// RecordSize returns key_size + value_size (excluding the status byte).
func (d *Dictionary) RecordSize() int {
	return d.keySize + d.valueSize
}

// firstDeletedSlot returns the lowest-indexed deleted slot, or -1 if none.
func (d *Dictionary) firstDeletedSlot() int64 {
	idx, ok := d.deleted.NextSet(0)
	if !ok {
		return -1
	}
	return int64(idx)
}

func (d *Dictionary) keyAt(i int64) ([]byte, error) {
	_, key, _, err := d.readSlot(i)
	return key, err
}

// Insert appends key/value, or rejects under WriteConcernUnique if key
// already exists.
func (d *Dictionary) Insert(key, value []byte) (types.Status, error) {
	if d.writeConcern == types.WriteConcernUnique {
		exists, err := d.findFirst(key)
		if err != nil {
			return types.Status{Err: err}, err
		}
		if exists {
			return types.Status{Err: types.ErrDuplicateKey}, nil
		}
	}

	if err := d.insertRaw(key, value); err != nil {
		return types.Status{Err: err}, err
	}
	return types.Status{Count: 1}, nil
}

func (d *Dictionary) insertRaw(key, value []byte) error {
	slot := d.firstDeletedSlot()
	if slot < 0 {
		slot = d.numSlots
		d.numSlots++
	} else {
		d.deleted.Clear(uint(slot))
	}

	if err := d.writeSlot(slot, statusInUse, key, value); err != nil {
		return err
	}
	d.inUse.Set(uint(slot))
	return nil
}

func (d *Dictionary) findFirst(key []byte) (bool, error) {
	for i := int64(0); i < d.numSlots; i++ {
		if !d.inUse.Test(uint(i)) {
			continue
		}
		k, err := d.keyAt(i)
		if err != nil {
			return false, err
		}
		if d.cmp(k, key) == 0 {
			return true, nil
		}
	}
	return false, nil
}

// Get returns the first record matching key.
func (d *Dictionary) Get(key []byte, out *[]byte) error {
	for i := int64(0); i < d.numSlots; i++ {
		if !d.inUse.Test(uint(i)) {
			continue
		}
		status, k, v, err := d.readSlot(i)
		if err != nil {
			return err
		}
		if status == statusInUse && d.cmp(k, key) == 0 {
			*out = v
			return nil
		}
	}
	return types.ErrItemNotFound
}

// Update upserts value(s) for key: if key exists, every matching slot's
// value is replaced (Count = number updated); otherwise it inserts.
func (d *Dictionary) Update(key, value []byte) (types.Status, error) {
	count := 0
	for i := int64(0); i < d.numSlots; i++ {
		if !d.inUse.Test(uint(i)) {
			continue
		}
		status, k, _, err := d.readSlot(i)
		if err != nil {
			return types.Status{Err: err}, err
		}
		if status == statusInUse && d.cmp(k, key) == 0 {
			if err := d.writeSlot(i, statusInUse, k, value); err != nil {
				return types.Status{Err: err}, err
			}
			count++
		}
	}

	if count == 0 {
		if err := d.insertRaw(key, value); err != nil {
			return types.Status{Err: err}, err
		}
		return types.Status{Count: 1}, nil
	}
	return types.Status{Count: count}, nil
}

// Delete removes every record with key, marking its slots deleted.
func (d *Dictionary) Delete(key []byte) (types.Status, error) {
	count := 0
	for i := int64(0); i < d.numSlots; i++ {
		if !d.inUse.Test(uint(i)) {
			continue
		}
		status, k, v, err := d.readSlot(i)
		if err != nil {
			return types.Status{Err: err}, err
		}
		if status == statusInUse && d.cmp(k, key) == 0 {
			if err := d.writeSlot(i, statusDeleted, k, v); err != nil {
				return types.Status{Err: err}, err
			}
			d.inUse.Clear(uint(i))
			d.deleted.Set(uint(i))
			count++
		}
	}
	return types.Status{Count: count}, nil
}

// Find returns a cursor iterating slots matching p in insertion order.
func (d *Dictionary) Find(p predicate.Predicate) (cursor.Cursor, error) {
	c := &Cursor{dict: d, predicate: p, pos: 0}

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

// Close releases the underlying file handle. On-disk contents are
// preserved.
func (d *Dictionary) Close() error {
	if err := d.f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileClose, err)
	}
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileClose, err)
	}
	return nil
}

// Destroy removes the dictionary's on-disk file.
func (d *Dictionary) Destroy() error {
	if err := d.sub.Remove(fileName(d.id)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileDelete, err)
	}
	return nil
}
