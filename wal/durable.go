package wal

import (
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/dictionary"
	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// Durable wraps a dictionary.Dictionary so every Insert/Update/Delete is
// logged and synced before it is applied, and can be replayed onto a
// freshly opened (but otherwise empty) dictionary after a crash.
type Durable struct {
	dictionary.Dictionary
	w *Writer
}

// Wrap returns a Durable logging to LogName within sub, writing ahead of
// every mutation to the underlying dict.
func Wrap(dict dictionary.Dictionary, sub storage.Substrate, bufferedEntries int) (*Durable, error) {
	w, err := NewWriter(sub, bufferedEntries)
	if err != nil {
		return nil, fmt.Errorf("wal: open writer: %w", err)
	}
	return &Durable{Dictionary: dict, w: w}, nil
}

func (d *Durable) Insert(key, value []byte) (types.Status, error) {
	if err := d.w.Write(Entry{Op: OpInsert, Key: key, Value: value}); err != nil {
		return types.Status{}, fmt.Errorf("wal: log insert: %w", err)
	}
	return d.Dictionary.Insert(key, value)
}

func (d *Durable) Update(key, value []byte) (types.Status, error) {
	if err := d.w.Write(Entry{Op: OpUpdate, Key: key, Value: value}); err != nil {
		return types.Status{}, fmt.Errorf("wal: log update: %w", err)
	}
	return d.Dictionary.Update(key, value)
}

func (d *Durable) Delete(key []byte) (types.Status, error) {
	if err := d.w.Write(Entry{Op: OpDelete, Key: key}); err != nil {
		return types.Status{}, fmt.Errorf("wal: log delete: %w", err)
	}
	return d.Dictionary.Delete(key)
}

// Close closes the log writer and then the wrapped dictionary, in that
// order, so nothing applied after the last logged entry goes unflushed.
func (d *Durable) Close() error {
	if err := d.w.Close(); err != nil {
		return err
	}
	return d.Dictionary.Close()
}

// Replay re-applies every entry in the log at sub onto dict, in write
// order. It is used to reconstruct a dictionary's state from its WAL
// after a crash left the dictionary's own on-disk state stale or absent.
func Replay(dict dictionary.Dictionary, sub storage.Substrate) (int, error) {
	r, err := NewReader(sub)
	if err != nil {
		return 0, fmt.Errorf("wal: open reader: %w", err)
	}
	defer r.Close()

	applied := 0
	for e, err := range r.All() {
		if err != nil {
			return applied, fmt.Errorf("wal: replay: %w", err)
		}
		switch e.Op {
		case OpInsert, OpUpdate:
			if _, err := dict.Update(e.Key, e.Value); err != nil {
				return applied, fmt.Errorf("wal: replay entry %d: %w", applied, err)
			}
		case OpDelete:
			if _, err := dict.Delete(e.Key); err != nil && err != types.ErrItemNotFound {
				return applied, fmt.Errorf("wal: replay entry %d: %w", applied, err)
			}
		}
		applied++
	}
	return applied, nil
}
