package wal

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Priyanshu23/FlashLogGo/dictionary/flatfile"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// encodeSeekable is a minimal in-memory io.Writer+io.Seeker, standing in
// for a storage.File just for exercising Entry.Encode's seek-back-and-
// patch-CRC logic without a real dictionary/substrate involved.
type encodeSeekable struct {
	data []byte
	pos  int64
}

func (s *encodeSeekable) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:], p)
	s.pos += int64(n)
	return n, nil
}

func (s *encodeSeekable) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}

func TestEntryEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		e    Entry
	}{
		{"small", Entry{Op: OpInsert, Key: []byte("a"), Value: []byte("b")}},
		{"empty", Entry{Op: OpDelete, Key: []byte{}, Value: []byte{}}},
		{"binary", Entry{Op: OpInsert, Key: []byte{0, 1, 2, 3}, Value: []byte{9, 8, 7}}},
		{"large", Entry{Op: OpInsert, Key: bytes.Repeat([]byte("k"), 1024), Value: bytes.Repeat([]byte("v"), 2048)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &encodeSeekable{}
			if err := tt.e.Encode(buf); err != nil {
				t.Fatal(err)
			}
			got, err := Decode(bytes.NewReader(buf.data))
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if got.Op != tt.e.Op || !bytes.Equal(got.Key, tt.e.Key) || !bytes.Equal(got.Value, tt.e.Value) {
				t.Fatalf("mismatch: got %+v, want %+v", got, tt.e)
			}
		})
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	e := Entry{Op: OpInsert, Key: []byte("key"), Value: []byte("value")}
	buf := &encodeSeekable{}
	if err := e.Encode(buf); err != nil {
		t.Fatal(err)
	}
	corrupt := append([]byte(nil), buf.data...)
	corrupt[len(corrupt)-1] ^= 0xFF

	if _, err := Decode(bytes.NewReader(corrupt)); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestDecodeDetectsTruncation(t *testing.T) {
	e := Entry{Op: OpInsert, Key: []byte("key"), Value: []byte("value")}
	buf := &encodeSeekable{}
	if err := e.Encode(buf); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(buf.data); i++ {
		if _, err := Decode(bytes.NewReader(buf.data[:i])); err != io.EOF {
			t.Fatalf("truncated at %d: got %v, want io.EOF", i, err)
		}
	}
}

func TestDecodeMultipleRecords(t *testing.T) {
	entries := []Entry{
		{Op: OpInsert, Key: []byte("a"), Value: []byte("1")},
		{Op: OpInsert, Key: []byte("b"), Value: []byte("2")},
		{Op: OpDelete, Key: []byte("a")},
	}
	buf := &encodeSeekable{}
	for _, e := range entries {
		if err := e.Encode(buf); err != nil {
			t.Fatal(err)
		}
	}

	r := bytes.NewReader(buf.data)
	for i, want := range entries {
		got, err := Decode(r)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.Op != want.Op || !bytes.Equal(got.Key, want.Key) || !bytes.Equal(got.Value, want.Value) {
			t.Fatalf("record %d mismatch: got %+v, want %+v", i, got, want)
		}
	}
	if _, err := Decode(r); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestRejectsInsaneLength(t *testing.T) {
	buf := &encodeSeekable{}
	binary.Write(buf, binary.LittleEndian, uint32(0x11111111))
	binary.Write(buf, binary.LittleEndian, uint32(0xFFFFFFFF))

	if _, err := Decode(bytes.NewReader(buf.data)); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func encodeInt(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func TestWriterReaderRoundTrip(t *testing.T) {
	sub := storage.NewMemory()
	w, err := NewWriter(sub, 4)
	if err != nil {
		t.Fatal(err)
	}

	for i := int32(0); i < 5; i++ {
		if err := w.Write(Entry{Op: OpInsert, Key: encodeInt(i), Value: encodeInt(i * 10)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(sub)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var n int32
	for e, err := range r.All() {
		if err != nil {
			t.Fatal(err)
		}
		if int32(binary.LittleEndian.Uint32(e.Key)) != n {
			t.Fatalf("entry %d: got key %v", n, e.Key)
		}
		n++
	}
	if n != 5 {
		t.Fatalf("got %d entries, want 5", n)
	}
}

func TestWriterConcurrentWrites(t *testing.T) {
	sub := storage.NewMemory()
	w, err := NewWriter(sub, 1)
	if err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := w.Write(Entry{Op: OpInsert, Key: encodeInt(int32(i))}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(sub)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	seen := map[int32]bool{}
	for e, err := range r.All() {
		if err != nil {
			t.Fatal(err)
		}
		seen[int32(binary.LittleEndian.Uint32(e.Key))] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct entries, want %d", len(seen), n)
	}
}

func TestWriterCloseUnblocksWriters(t *testing.T) {
	sub := storage.NewMemory()
	w, err := NewWriter(sub, 1)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_ = w.Write(Entry{Op: OpInsert, Key: []byte("x")})
	}()
	time.Sleep(5 * time.Millisecond)
	w.Close()

	done := make(chan struct{})
	go func() {
		_ = w.Write(Entry{Op: OpInsert, Key: []byte("y")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer blocked after Close")
	}
}

func TestDurableReplayReconstructsDictionary(t *testing.T) {
	walSub := storage.NewMemory()
	dictSub := storage.NewMemory()

	dict, err := flatfile.Create("d", dictSub, types.KeyTypeSignedInt, 4, 4, 0, types.WriteConcernUnique, types.CompareSignedInt)
	if err != nil {
		t.Fatal(err)
	}
	durable, err := Wrap(dict, walSub, 4)
	if err != nil {
		t.Fatal(err)
	}

	for i := int32(0); i < 10; i++ {
		if _, err := durable.Insert(encodeInt(i), encodeInt(i*2)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := durable.Delete(encodeInt(3)); err != nil {
		t.Fatal(err)
	}
	if err := durable.Close(); err != nil {
		t.Fatal(err)
	}

	// Simulate recovery: replay the log onto a fresh, empty dictionary
	// rather than the original (whose own on-disk state is assumed lost).
	freshSub := storage.NewMemory()
	fresh, err := flatfile.Create("d", freshSub, types.KeyTypeSignedInt, 4, 4, 0, types.WriteConcernUnique, types.CompareSignedInt)
	if err != nil {
		t.Fatal(err)
	}
	defer fresh.Close()

	applied, err := Replay(fresh, walSub)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 11 {
		t.Fatalf("got %d replayed entries, want 11", applied)
	}

	for i := int32(0); i < 10; i++ {
		var out []byte
		err := fresh.Get(encodeInt(i), &out)
		if i == 3 {
			if err != types.ErrItemNotFound {
				t.Fatalf("key 3: got %v, want ErrItemNotFound", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("key %d: %v", i, err)
		}
		if binary.LittleEndian.Uint32(out) != uint32(i*2) {
			t.Fatalf("key %d: got value %v", i, out)
		}
	}
}
