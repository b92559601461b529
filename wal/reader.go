package wal

import (
	"io"
	"iter"

	"github.com/Priyanshu23/FlashLogGo/storage"
)

// Reader replays a log written by Writer, in write order.
type Reader struct {
	f storage.File
}

func NewReader(sub storage.Substrate) (*Reader, error) {
	f, err := sub.Open(LogName)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f}, nil
}

func (r *Reader) Read() (*Entry, error) {
	return Decode(r.f)
}

// All iterates every Entry in the log from the reader's current position.
func (r *Reader) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			e, err := Decode(r.f)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if !yield(*e, nil) {
				return
			}
		}
	}
}

func (r *Reader) Reset() error {
	_, err := r.f.Seek(0, io.SeekStart)
	return err
}

func (r *Reader) Close() error {
	return r.f.Close()
}
