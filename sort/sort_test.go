package sort

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

const testRecordSize = 8 // 4-byte key, 4-byte payload

func encodeRecord(key, payload int32) []byte {
	buf := make([]byte, testRecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(key))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(payload))
	return buf
}

func testSpec() Spec {
	return Spec{
		RecordSize: testRecordSize,
		KeyParts: []KeyPart{
			{Offset: 0, Size: 4, Direction: types.Ascending, Cmp: types.CompareSignedInt},
		},
	}
}

func TestSortOrdersAcrossMultipleRuns(t *testing.T) {
	sub := storage.NewMemory()
	s := New(sub, "t", testSpec(), 4*testRecordSize) // force a new run every 4 records

	rnd := rand.New(rand.NewSource(1))
	const n = 100
	keys := make([]int32, n)
	for i := range keys {
		keys[i] = int32(i)
	}
	rnd.Shuffle(n, func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	for _, k := range keys {
		if err := s.Add(encodeRecord(k, k*10)); err != nil {
			t.Fatal(err)
		}
	}

	c, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	var rec types.Record
	prev := int32(-1)
	count := 0
	for {
		status := c.Next(&rec)
		if status != cursor.Active {
			break
		}
		got := int32(binary.LittleEndian.Uint32(rec.Key[0:4]))
		if got <= prev {
			t.Fatalf("out of order: %d after %d", got, prev)
		}
		prev = got
		count++
	}
	if count != n {
		t.Fatalf("got %d records, want %d", count, n)
	}
}

func TestSortStableOnEqualKeys(t *testing.T) {
	sub := storage.NewMemory()
	s := New(sub, "t2", testSpec(), 0) // single run, no forced spill

	for i := int32(0); i < 5; i++ {
		if err := s.Add(encodeRecord(1, i)); err != nil {
			t.Fatal(err)
		}
	}

	c, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	var rec types.Record
	want := int32(0)
	for {
		status := c.Next(&rec)
		if status != cursor.Active {
			break
		}
		got := int32(binary.LittleEndian.Uint32(rec.Key[4:8]))
		if got != want {
			t.Fatalf("got payload %d, want %d (stability broke)", got, want)
		}
		want++
	}
	if want != 5 {
		t.Fatalf("got %d records, want 5", want)
	}
}

func TestSortStableOnEqualKeysAcrossMultipleRuns(t *testing.T) {
	sub := storage.NewMemory()
	s := New(sub, "t3", testSpec(), 4*testRecordSize) // force a new run every 4 records

	const n = 20 // 5 runs of 4 records each, every record keyed 1
	for i := int32(0); i < n; i++ {
		if err := s.Add(encodeRecord(1, i)); err != nil {
			t.Fatal(err)
		}
	}

	c, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	var rec types.Record
	want := int32(0)
	for {
		status := c.Next(&rec)
		if status != cursor.Active {
			break
		}
		got := int32(binary.LittleEndian.Uint32(rec.Key[4:8]))
		if got != want {
			t.Fatalf("got payload %d, want %d (cross-run stability broke)", got, want)
		}
		want++
	}
	if want != n {
		t.Fatalf("got %d records, want %d", want, n)
	}
}
