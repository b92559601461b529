// Package linearhash implements the split-on-load, bucket-chained,
// page-structured on-disk hash dictionary of spec.md §4.2: a primary file
// holding one page per logical bucket, an overflow file holding chained
// overflow pages, and an addressing rule that only ever touches the
// bucket the current split generation says to.
package linearhash

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/segmentmanager"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

const (
	headerMagic   = 0x4C484153 // "LHAS"
	headerVersion = 1

	defaultInitialSize       = 4
	defaultSplitThreshold    = 85
	defaultRecordsPerBucket  = 4

	pageHeaderSize = 4 + 4 + 4 // bucketID, occupiedCount, overflowHead

	noOverflow int32 = -1

	slotEmpty byte = iota
	slotInUse
)

// Option configures a dictionary at creation time, following the
// segmentmanager.Option functional-option shape.
type Option func(*Dictionary)

func WithInitialSize(n int) Option {
	return func(d *Dictionary) { d.initialSize = n }
}

func WithSplitThreshold(percent int) Option {
	return func(d *Dictionary) { d.splitThreshold = percent }
}

func WithRecordsPerBucket(n int) Option {
	return func(d *Dictionary) { d.recordsPerBucket = n }
}

// Dictionary is the linear-hash implementation of dictionary.Dictionary.
type Dictionary struct {
	id  string
	sub storage.Substrate

	primary  storage.File
	overflow storage.File

	keyType      types.KeyType
	keySize      int
	valueSize    int
	declaredCap  int
	writeConcern types.WriteConcern
	cmp          types.Comparator

	initialSize      int
	splitThreshold   int
	recordsPerBucket int
	numRecords       int

	level        int // number of completed doubling generations
	splitPointer int // buckets split so far in the current generation

	overflowPages *segmentmanager.PageAllocator

	slotSize int
	pageSize int64

	exists *bloom.BloomFilter
}

func primaryName(id string) string  { return id + ".lhs" }
func overflowName(id string) string { return id + ".lhd" }

// Create allocates a new linear-hash dictionary with its primary and
// overflow files, writes the header, and pre-allocates initial_size
// buckets.
func Create(
	id string,
	sub storage.Substrate,
	keyType types.KeyType,
	keySize, valueSize, declaredCapacity int,
	writeConcern types.WriteConcern,
	cmp types.Comparator,
	opts ...Option,
) (*Dictionary, error) {
	primary, err := sub.Create(primaryName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}
	overflow, err := sub.Create(overflowName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}

	d := &Dictionary{
		id:               id,
		sub:              sub,
		primary:          primary,
		overflow:         overflow,
		keyType:          keyType,
		keySize:          keySize,
		valueSize:        valueSize,
		declaredCap:      declaredCapacity,
		writeConcern:     writeConcern,
		cmp:              cmp,
		initialSize:      defaultInitialSize,
		splitThreshold:   defaultSplitThreshold,
		recordsPerBucket: defaultRecordsPerBucket,
		overflowPages:    segmentmanager.New(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.slotSize = 1 + keySize + valueSize
	d.pageSize = int64(pageHeaderSize + d.recordsPerBucket*d.slotSize)
	d.initBloom()

	for b := 0; b < d.initialSize; b++ {
		if err := d.writePage(d.primary, int64(b), page{bucketID: int32(b), overflowHead: noOverflow}); err != nil {
			return nil, err
		}
	}

	if err := d.writeHeader(); err != nil {
		return nil, err
	}

	return d, nil
}

// Open re-hydrates a linear-hash dictionary from its persistent header.
func Open(id string, sub storage.Substrate, writeConcern types.WriteConcern, cmp types.Comparator) (*Dictionary, error) {
	primary, err := sub.Open(primaryName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}
	overflow, err := sub.Open(overflowName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFileOpen, err)
	}

	d := &Dictionary{
		id:           id,
		sub:          sub,
		primary:      primary,
		overflow:     overflow,
		writeConcern:  writeConcern,
		cmp:           cmp,
		overflowPages: segmentmanager.New(),
	}

	if err := d.readHeader(); err != nil {
		return nil, err
	}

	d.slotSize = 1 + d.keySize + d.valueSize
	d.pageSize = int64(pageHeaderSize + d.recordsPerBucket*d.slotSize)
	d.initBloom()

	if err := d.rebuildBloom(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Dictionary) initBloom() {
	cap := uint(d.declaredCap)
	if cap == 0 {
		cap = 1024
	}
	d.exists = bloom.NewWithEstimates(cap, 0.01)
}

func (d *Dictionary) rebuildBloom() error {
	size := d.currentSize()
	for b := 0; b < size; b++ {
		if err := d.walkBucket(b, func(key, _ []byte) (bool, error) {
			d.exists.Add(key)
			return true, nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// RecordSize returns key_size + value_size.
func (d *Dictionary) RecordSize() int {
	return d.keySize + d.valueSize
}

// currentSize is the number of logical buckets presently addressable
// (spec.md §3's current_size).
func (d *Dictionary) currentSize() int {
	return d.initialSize<<uint(d.level) + d.splitPointer
}

// levelBase is the number of buckets that existed when the current
// generation started (initial_size · 2^level).
func (d *Dictionary) levelBase() int {
	return d.initialSize << uint(d.level)
}

func hashKey(key []byte) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}

// address implements spec.md §3's addressing rule: if h_{i-1}(key) <
// next_split, use h_i(key), else h_{i-1}(key).
func (d *Dictionary) address(key []byte) int {
	h := hashKey(key)
	base := d.levelBase()
	hLow := int(h % uint64(base))
	if hLow < d.splitPointer {
		nextBase := base << 1
		return int(h % uint64(nextBase))
	}
	return hLow
}
