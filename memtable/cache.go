package memtable

import "iter"

// Cache is a byte-keyed hot-record cache sitting in front of a
// dictionary.Dictionary: a key found here spares a Get the dictionary's
// on-disk lookup. It is SkipList[string, []byte]
// narrowed to the []byte key/value space dictionaries use, so callers
// never have to convert a key to a map-friendly type themselves.
type Cache struct {
	sl *SkipList[string, []byte]
}

// NewCache returns an empty byte-keyed cache.
func NewCache() *Cache {
	return &Cache{sl: NewSkipListMemtable[string, []byte]()}
}

// Put stores value under key, replacing any prior value for the same key.
func (c *Cache) Put(key, value []byte) {
	c.sl.Put(string(key), value)
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key []byte) ([]byte, bool) {
	return c.sl.Get(string(key))
}

// Delete evicts key from the cache. A miss is not an error: the caller's
// dictionary write already defines whether the key existed.
func (c *Cache) Delete(key []byte) {
	c.sl.Delete(string(key))
}

// Entries iterates cached records in key order. Keys are yielded as
// strings, the form the skip list stores them in.
func (c *Cache) Entries() iter.Seq[Record[string, []byte]] {
	return c.sl.Iterator()
}
