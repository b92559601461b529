// Package predicate describes what a cursor matches against: all records,
// an equality on one key, or a bounded range. Matching is expressed as a
// closure built from the owning dictionary's comparator, following the
// "predicate built once, walked many times" shape of
// original_source/src/iinq/iinq.h's dictionary_build_predicate call.
package predicate

import "github.com/Priyanshu23/FlashLogGo/types"

// Kind names which of the three predicate shapes a Predicate carries.
type Kind int

const (
	All Kind = iota
	Equality
	Range
)

// Predicate matches or rejects a candidate key. Match is nil for All, which
// never needs to test a key.
type Predicate struct {
	Kind  Kind
	Key   []byte
	Low   []byte
	High  []byte
	Match func(key []byte) bool
}

// BuildAll returns a predicate matching every record.
func BuildAll() Predicate {
	return Predicate{Kind: All}
}

// BuildEquality returns a predicate matching keys equal to key under cmp.
func BuildEquality(key []byte, cmp types.Comparator) Predicate {
	k := append([]byte(nil), key...)
	return Predicate{
		Kind: Equality,
		Key:  k,
		Match: func(candidate []byte) bool {
			return cmp(candidate, k) == 0
		},
	}
}

// BuildRange returns a predicate matching keys k with low <= k <= high
// under cmp.
func BuildRange(low, high []byte, cmp types.Comparator) Predicate {
	lo := append([]byte(nil), low...)
	hi := append([]byte(nil), high...)
	return Predicate{
		Kind: Range,
		Low:  lo,
		High: hi,
		Match: func(candidate []byte) bool {
			return cmp(candidate, lo) >= 0 && cmp(candidate, hi) <= 0
		},
	}
}

// Matches reports whether key satisfies p. All always matches.
func (p Predicate) Matches(key []byte) bool {
	if p.Kind == All {
		return true
	}
	return p.Match(key)
}
