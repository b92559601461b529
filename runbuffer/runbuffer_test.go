package runbuffer

import (
	"testing"

	"github.com/Priyanshu23/FlashLogGo/types"
)

func TestSortedOrdersByComparator(t *testing.T) {
	b := New(types.CompareBytes)
	b.Add([]byte("c"), []byte("3"))
	b.Add([]byte("a"), []byte("1"))
	b.Add([]byte("b"), []byte("2"))

	got := b.Sorted()
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if string(got[i].Key) != w {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSortedIsStableOnTies(t *testing.T) {
	b := New(types.CompareBytes)
	b.Add([]byte("a"), []byte("first"))
	b.Add([]byte("a"), []byte("second"))
	b.Add([]byte("a"), []byte("third"))

	got := b.Sorted()
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if string(got[i].Value) != w {
			t.Fatalf("got %v, want stable order %v", got, want)
		}
	}
}

func TestResetClearsBuffer(t *testing.T) {
	b := New(types.CompareBytes)
	b.Add([]byte("a"), []byte("1"))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("got len %d after reset, want 0", b.Len())
	}
}
