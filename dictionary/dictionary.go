// Package dictionary defines the uniform contract every pluggable
// key/value implementation satisfies (spec.md §4.1): create/open/close/
// destroy lifecycle and insert/get/update/delete/find operations. It is
// the capability abstraction spec.md §9 asks for in place of the source
// repository's function-pointer handler table — the query executor is
// polymorphic over anything satisfying Dictionary, no registration step
// required.
package dictionary

import (
	"github.com/Priyanshu23/FlashLogGo/cursor"
	"github.com/Priyanshu23/FlashLogGo/predicate"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Dictionary is the uniform operational contract every implementation
// (linear-hash, flat-file, ...) satisfies.
type Dictionary interface {
	// Insert adds a record. Under WriteConcernUnique it fails with
	// types.ErrDuplicateKey if key exists; under WriteConcernDuplicate it
	// always succeeds. Count is 0 or 1.
	Insert(key, value []byte) (types.Status, error)

	// Get returns the first matching record's value into out. out is left
	// untouched if the key is not found (types.ErrItemNotFound).
	Get(key []byte, out *[]byte) error

	// Update upserts: if key exists its value(s) are replaced (Count =
	// records modified); if not, it behaves as Insert (Count = 1 inserted).
	Update(key, value []byte) (types.Status, error)

	// Delete removes every record with key. Count is the number removed.
	Delete(key []byte) (types.Status, error)

	// Find returns a cursor over records matching p.
	Find(p predicate.Predicate) (cursor.Cursor, error)

	// Close releases in-RAM resources and flushes the header; on-disk
	// files are preserved.
	Close() error

	// Destroy removes the dictionary's on-disk files. Close should be
	// called first if the instance is still open.
	Destroy() error

	// RecordSize returns the fixed key_size + value_size of this
	// dictionary's records, used by the query executor to preallocate its
	// row buffer (spec.md §3's Query row invariant).
	RecordSize() int
}

// Storage is the byte-addressable substrate dictionaries are built on.
// Re-exported here so implementation packages depend on dictionary's
// contract surface rather than reaching into storage directly for their
// public constructors.
type Storage = storage.Substrate
