package flatfile

import (
	"fmt"
	"testing"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

func encodeInt(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func newTestDict(t *testing.T, wc types.WriteConcern) *Dictionary {
	t.Helper()
	sub := storage.NewMemory()
	d, err := Create("t", sub, types.KeyTypeSignedInt, 4, 10, 0, wc, types.CompareSignedInt)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRoundTripInsertGet(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	key := encodeInt(1)
	val := []byte("value: 01")
	if _, err := d.Insert(key, val); err != nil {
		t.Fatal(err)
	}

	var out []byte
	if err := d.Get(key, &out); err != nil {
		t.Fatal(err)
	}
	// values are 10 bytes wide, so the 9-byte string comes back zero-padded.
	if string(out) != "value: 01\x00" {
		t.Fatalf("got %q", out)
	}
}

func TestDeleteLaw(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	key := encodeInt(7)
	d.Insert(key, []byte("value: 07"))

	status, err := d.Delete(key)
	if err != nil || status.Count != 1 {
		t.Fatalf("delete: status=%+v err=%v", status, err)
	}

	var out []byte
	if err := d.Get(key, &out); err != types.ErrItemNotFound {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestUpdateLawUpsertsOnMissingKey(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	key := encodeInt(1)
	d.Insert(key, []byte("value: 01"))

	status, err := d.Update(key, []byte("updated   "))
	if err != nil || status.Count != 1 {
		t.Fatalf("update existing: status=%+v err=%v", status, err)
	}

	var out []byte
	d.Get(key, &out)
	if string(out) != "updated   " {
		t.Fatalf("got %q", out)
	}

	// update on a missing key behaves as insert (upsert, spec.md §9).
	missing := encodeInt(99)
	status, err = d.Update(missing, []byte("new       "))
	if err != nil || status.Count != 1 {
		t.Fatalf("update missing: status=%+v err=%v", status, err)
	}
	d.Get(missing, &out)
	if string(out) != "new       " {
		t.Fatalf("got %q", out)
	}
}

func TestAllRecordsCardinalityAfterNDistinctInserts(t *testing.T) {
	d := newTestDict(t, types.WriteConcernUnique)

	const n = 10
	for i := int32(0); i < n; i++ {
		d.Insert(encodeInt(i), []byte(fmt.Sprintf("value: %02d", i)))
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

func TestEqualityCursorYieldsOneRecordThenEndOfResults(t *testing.T) {
	d := newTestDict(t, types.WriteConcernDuplicate)
	for i := int32(0); i < 10; i++ {
		d.Insert(encodeInt(i), []byte(fmt.Sprintf("value: %02d", i)))
	}

	c, err := d.Find(predicate.BuildEquality(encodeInt(1), types.CompareSignedInt))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	var rec types.Record
	if status := c.Next(&rec); status != cursor.Active {
		t.Fatalf("got status %v", status)
	}
	if string(rec.Value) != "value: 01\x00" {
		t.Fatalf("got %q", rec.Value)
	}

	if status := c.Next(&rec); status != cursor.EndOfResults {
		t.Fatalf("got status %v, want EndOfResults", status)
	}
}

func TestEqualityCursorOnMissingKeyStartsAtEndOfResults(t *testing.T) {
	d := newTestDict(t, types.WriteConcernDuplicate)
	for i := int32(0); i < 10; i++ {
		d.Insert(encodeInt(i), []byte(fmt.Sprintf("value: %02d", i)))
	}

	c, err := d.Find(predicate.BuildEquality(encodeInt(-1), types.CompareSignedInt))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	if c.Status() != cursor.EndOfResults {
		t.Fatalf("got %v, want EndOfResults before first Next", c.Status())
	}
}

func TestRangeCursorYieldsRecordsInInsertionOrder(t *testing.T) {
	d := newTestDict(t, types.WriteConcernDuplicate)
	for i := int32(0); i < 10; i++ {
		d.Insert(encodeInt(i), []byte(fmt.Sprintf("value: %02d", i)))
	}

	c, err := d.Find(predicate.BuildRange(encodeInt(1), encodeInt(5), types.CompareSignedInt))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	var got []string
	var rec types.Record
	for {
		status := c.Next(&rec)
		if status != cursor.Active {
			break
		}
		got = append(got, string(rec.Value))
	}

	want := []string{"value: 01\x00", "value: 02\x00", "value: 03\x00", "value: 04\x00", "value: 05\x00"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDeletedSlotReusedOnNextInsert(t *testing.T) {
	d := newTestDict(t, types.WriteConcernDuplicate)

	d.Insert(encodeInt(1), []byte("value: 01"))
	d.Delete(encodeInt(1))

	before := d.numSlots
	d.Insert(encodeInt(2), []byte("value: 02"))

	if d.numSlots != before {
		t.Fatalf("expected deleted slot reuse, numSlots grew from %d to %d", before, d.numSlots)
	}
}
