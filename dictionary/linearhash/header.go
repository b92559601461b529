package linearhash

import (
	"encoding/binary"
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/types"
)

// headerSize accounts for every persisted linear-hash field: magic,
// version, keyType, keySize, valueSize, declaredCap, initialSize,
// splitThreshold, recordsPerBucket, numRecords, level, splitPointer,
// overflowPageCount.
const headerSize = 13 * 4

func (d *Dictionary) writeHeader() error {
	buf := make([]byte, headerSize)
	fields := []uint32{
		headerMagic,
		headerVersion,
		uint32(d.keyType),
		uint32(d.keySize),
		uint32(d.valueSize),
		uint32(d.declaredCap),
		uint32(d.initialSize),
		uint32(d.splitThreshold),
		uint32(d.recordsPerBucket),
		uint32(d.numRecords),
		uint32(d.level),
		uint32(d.splitPointer),
		uint32(d.overflowPages.Count()),
	}
	for i, v := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
	}

	if _, err := d.primary.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	return nil
}

func (d *Dictionary) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := d.primary.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileRead, err)
	}

	get := func(i int) uint32 { return binary.LittleEndian.Uint32(buf[i*4 : i*4+4]) }

	if get(0) != headerMagic || get(1) != headerVersion {
		return fmt.Errorf("%w: bad header magic/version", types.ErrFileRead)
	}

	d.keyType = types.KeyType(get(2))
	d.keySize = int(get(3))
	d.valueSize = int(get(4))
	d.declaredCap = int(get(5))
	d.initialSize = int(get(6))
	d.splitThreshold = int(get(7))
	d.recordsPerBucket = int(get(8))
	d.numRecords = int(get(9))
	d.level = int(get(10))
	d.splitPointer = int(get(11))
	d.overflowPages.SetCount(int(get(12)))
	return nil
}
