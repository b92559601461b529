package linearhash

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

func encodeInt(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func newTestDict(t *testing.T, wc types.WriteConcern, opts ...Option) *Dictionary {
	t.Helper()
	sub := storage.NewMemory()
	d, err := Create("lh", sub, types.KeyTypeSignedInt, 4, 10, 0, wc, types.CompareSignedInt, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRoundTripTenThousandInserts(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	const n = 10000
	for i := int32(0); i < n; i++ {
		if _, err := d.Insert(encodeInt(i), []byte(fmt.Sprintf("value:%04d", i))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	for i := int32(0); i < n; i++ {
		var out []byte
		if err := d.Get(encodeInt(i), &out); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		want := fmt.Sprintf("value:%04d", i)
		if string(out) != want {
			t.Fatalf("get %d: got %q, want %q", i, out, want)
		}
	}
}

func TestDuplicateInsertRejectedUnderUniqueConcern(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	key := encodeInt(1)
	if _, err := d.Insert(key, []byte("value: 01")); err != nil {
		t.Fatal(err)
	}
	status, err := d.Insert(key, []byte("value: again"))
	if err != nil {
		t.Fatal(err)
	}
	if status.Err != types.ErrDuplicateKey {
		t.Fatalf("got %v, want ErrDuplicateKey", status.Err)
	}
}

func TestUpdateUpsertsOnMissingKey(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	key := encodeInt(1)
	d.Insert(key, []byte("value: 01"))

	status, err := d.Update(key, []byte("updated   "))
	if err != nil || status.Count != 1 {
		t.Fatalf("update existing: status=%+v err=%v", status, err)
	}

	missing := encodeInt(42)
	status, err = d.Update(missing, []byte("new       "))
	if err != nil || status.Count != 1 {
		t.Fatalf("update missing: status=%+v err=%v", status, err)
	}
	var out []byte
	if err := d.Get(missing, &out); err != nil || string(out) != "new       " {
		t.Fatalf("got %q err=%v", out, err)
	}
}

func TestDeleteRemovesAllMatches(t *testing.T) {
	d := newTestDict(t, types.WriteConcernDuplicate)

	key := encodeInt(5)
	for i := 0; i < 3; i++ {
		d.Insert(key, []byte(fmt.Sprintf("copy %d   ", i)))
	}

	status, err := d.Delete(key)
	if err != nil || status.Count != 3 {
		t.Fatalf("delete: status=%+v err=%v", status, err)
	}

	var out []byte
	if err := d.Get(key, &out); err != types.ErrItemNotFound {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

// TestSplitCorrectnessForcesMultipleSplits uses a small table and low
// split threshold to force at least three splits, then verifies every
// inserted key is still reachable (spec.md §8 scenario 6).
func TestSplitCorrectnessForcesMultipleSplits(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique,
		WithInitialSize(2),
		WithRecordsPerBucket(2),
		WithSplitThreshold(50),
	)

	const n = 200
	for i := int32(0); i < n; i++ {
		if _, err := d.Insert(encodeInt(i), []byte(fmt.Sprintf("value:%04d", i))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	if d.level < 2 {
		t.Fatalf("expected at least 2 completed generations, got level=%d splitPointer=%d", d.level, d.splitPointer)
	}

	for i := int32(0); i < n; i++ {
		var out []byte
		if err := d.Get(encodeInt(i), &out); err != nil {
			t.Fatalf("get %d after splits: %v", i, err)
		}
		want := fmt.Sprintf("value:%04d", i)
		if string(out) != want {
			t.Fatalf("get %d after splits: got %q, want %q", i, out, want)
		}
	}
}

func TestEqualityCursorScansOnlyAddressedBucket(t *testing.T) {
	d := newTestDict(t, types.WriteConcernDuplicate, WithInitialSize(4), WithRecordsPerBucket(2))

	for i := int32(0); i < 50; i++ {
		d.Insert(encodeInt(i), []byte(fmt.Sprintf("value:%04d", i)))
	}

	c, err := d.Find(predicate.BuildEquality(encodeInt(7), types.CompareSignedInt))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	var rec types.Record
	if status := c.Next(&rec); status != cursor.Active {
		t.Fatalf("got status %v", status)
	}
	if string(rec.Value) != "value:0007" {
		t.Fatalf("got %q", rec.Value)
	}
	if status := c.Next(&rec); status != cursor.EndOfResults {
		t.Fatalf("got status %v, want EndOfResults", status)
	}
}

func TestAllRecordsCursorCardinality(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique, WithInitialSize(2), WithRecordsPerBucket(2))

	const n = 100
	for i := int32(0); i < n; i++ {
		d.Insert(encodeInt(i), []byte(fmt.Sprintf("value:%04d", i)))
	}

	c, err := d.Find(predicate.BuildAll())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	count := 0
	var rec types.Record
	for {
		status := c.Next(&rec)
		if status != cursor.Active {
			break
		}
		count++
	}
	if count != n {
		t.Fatalf("got %d records, want %d", count, n)
	}
}
