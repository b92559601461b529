package main

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/Priyanshu23/FlashLogGo/dictionary"
	"github.com/Priyanshu23/FlashLogGo/dictionary/flatfile"
	"github.com/Priyanshu23/FlashLogGo/memtable"
	"github.com/Priyanshu23/FlashLogGo/query"
	"github.com/Priyanshu23/FlashLogGo/registry"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
	"github.com/Priyanshu23/FlashLogGo/wal"
)

// DB is the small Put/Get/Delete surface this demo wires a dictionary,
// a write-ahead log, and an in-RAM staging memtable behind.
type DB interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Close() error
}

// Store composes a memtable.Cache as a read-through cache in front of
// a wal.Durable-wrapped dictionary.Dictionary: Put logs and applies each
// write to the dictionary first and only then caches it, Get answers from
// the cache when it can and falls through to the dictionary on a miss,
// and Delete evicts from both.
type Store struct {
	dict *wal.Durable
	hot  *memtable.Cache
}

// NewStore opens (or creates, if absent) a flat-file dictionary named id
// within sub, wraps it with a write-ahead log backed by walSub, and
// replays any log entries left over from a prior run before serving
// traffic.
func NewStore(id string, sub, walSub storage.Substrate, keySize, valueSize int) (*Store, error) {
	dict, err := flatfile.Open(id, sub, types.WriteConcernUnique, types.CompareSignedInt)
	if err != nil {
		dict, err = flatfile.Create(id, sub, types.KeyTypeSignedInt, keySize, valueSize, 0, types.WriteConcernUnique, types.CompareSignedInt)
		if err != nil {
			return nil, fmt.Errorf("open store %q: %w", id, err)
		}
	} else if n, rerr := wal.Replay(dict, walSub); rerr == nil && n > 0 {
		log.Printf("store %q: replayed %d WAL entries", id, n)
	}

	durable, err := wal.Wrap(dict, walSub, 64)
	if err != nil {
		return nil, fmt.Errorf("wrap store %q with WAL: %w", id, err)
	}

	return &Store{
		dict: durable,
		hot:  memtable.NewCache(),
	}, nil
}

func (s *Store) Put(key, value []byte) error {
	if _, err := s.dict.Update(key, value); err != nil {
		return err
	}
	s.hot.Put(key, value)
	return nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	if v, ok := s.hot.Get(key); ok {
		return v, nil
	}
	var out []byte
	if err := s.dict.Get(key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(key []byte) error {
	if _, err := s.dict.Delete(key); err != nil {
		return err
	}
	s.hot.Delete(key)
	return nil
}

func (s *Store) Close() error {
	return s.dict.Close()
}

// Dictionary exposes the underlying durable dictionary.Dictionary so a
// Store's data can be joined through the query executor alongside other
// dictionaries.
func (s *Store) Dictionary() dictionary.Dictionary {
	return s.dict
}

func encodeInt(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func main() {
	sub := storage.NewDisk(".")
	walSub := storage.NewDisk(".")

	store, err := NewStore("orders", sub, walSub, 4, 4)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	for i := int32(0); i < 20; i++ {
		if err := store.Put(encodeInt(i), encodeInt(i*100)); err != nil {
			log.Fatal(err)
		}
	}

	var total int64
	cfg := query.Config{
		Sources: []dictionary.Dictionary{store.Dictionary()},
		Project: query.ProjectAll,
		Aggregates: []query.Aggregate{
			{Op: query.OpSum, Type: query.AggInt64, Offset: 4, Size: 4},
		},
		Sink: func(row []byte, _ any) error {
			total = int64(binary.LittleEndian.Uint64(row[0:8]))
			return nil
		},
	}
	if err := query.Run(cfg, nil); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("sum of values = %d\n", total)

	// A scratch dictionary, registered by name and torn down through the
	// registry rather than by holding onto its *Dictionary directly —
	// the schema-name-addressed drop a longer-lived process would expose
	// to a client that only knows the name, not the handle.
	reg := registry.New()
	scratch, err := flatfile.Create("scratch", sub, types.KeyTypeSignedInt, 4, 4, 0, types.WriteConcernUnique, types.CompareSignedInt)
	if err != nil {
		log.Fatal(err)
	}
	reg.Register("scratch", scratch)
	if err := reg.Drop("scratch"); err != nil {
		log.Fatal(err)
	}
}
