package predicate

import (
	"testing"

	"github.com/Priyanshu23/FlashLogGo/types"
)

func TestBuildAllMatchesEverything(t *testing.T) {
	p := BuildAll()
	if !p.Matches([]byte("anything")) {
		t.Fatal("expected All to match")
	}
}

func TestBuildEqualityMatchesOnlyExactKey(t *testing.T) {
	p := BuildEquality([]byte("k"), types.CompareBytes)

	if !p.Matches([]byte("k")) {
		t.Fatal("expected match on equal key")
	}
	if p.Matches([]byte("other")) {
		t.Fatal("expected no match on different key")
	}
}

func TestBuildRangeMatchesInclusiveBounds(t *testing.T) {
	p := BuildRange([]byte("b"), []byte("d"), types.CompareBytes)

	tests := []struct {
		key  string
		want bool
	}{
		{"a", false},
		{"b", true},
		{"c", true},
		{"d", true},
		{"e", false},
	}

	for _, tt := range tests {
		if got := p.Matches([]byte(tt.key)); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
