package types

import "bytes"

// CompareBytes orders opaque byte strings lexicographically.
func CompareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}

// CompareSignedInt orders fixed-size host-endian two's-complement integers.
// Both keys must be the same size (1, 2, 4, or 8 bytes).
func CompareSignedInt(a, b []byte) int {
	av, bv := decodeSigned(a), decodeSigned(b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// CompareUnsignedInt orders fixed-size host-endian unsigned integers.
func CompareUnsignedInt(a, b []byte) int {
	av, bv := decodeUnsigned(a), decodeUnsigned(b)
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func decodeUnsigned(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * uint(i))
	}
	return v
}

func decodeSigned(b []byte) int64 {
	v := decodeUnsigned(b)
	if len(b) == 0 {
		return 0
	}
	signBit := uint64(1) << (8*uint(len(b)) - 1)
	if v&signBit != 0 {
		// sign-extend
		v |= ^uint64(0) << (8 * uint(len(b)))
	}
	return int64(v)
}

// ComparatorFor returns the default comparator for a declared key type.
// Bytes keys must supply their own comparator via an explicit Comparator
// value rather than this helper, since they carry a "declared comparator"
// per the data model (not inferred from KeyType).
func ComparatorFor(kt KeyType) Comparator {
	switch kt {
	case KeyTypeSignedInt:
		return CompareSignedInt
	case KeyTypeUnsignedInt:
		return CompareUnsignedInt
	default:
		return CompareBytes
	}
}
