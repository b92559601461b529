package wal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Priyanshu23/FlashLogGo/storage"
)

var ErrClosed = os.ErrClosed

// LogName is the file name a Writer/Reader opens through the shared
// storage.Substrate, mirroring the teacher's fixed WalFilePath.
const LogName = "WAL.log"

// Writer appends Entries to a log file through a single background
// goroutine, the way the teacher's WALWriter does, except that Write
// waits until its entry has been encoded and fsynced before returning.
// The channel is the only path to the file, so entries reach it in the
// order their Write calls enqueued them.
type Writer struct {
	ch     chan entryReq
	done   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
	f      storage.File
}

type entryReq struct {
	e    Entry
	done chan error
}

// NewWriter opens (creating if absent) LogName through sub and starts the
// background flush loop. buffer bounds how many unflushed entries Write
// can queue before it blocks.
func NewWriter(sub storage.Substrate, buffer int) (*Writer, error) {
	f, err := openOrCreate(sub, LogName)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("wal: seek to end: %w", err)
	}

	w := &Writer{
		ch:   make(chan entryReq, buffer),
		done: make(chan struct{}),
		f:    f,
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func openOrCreate(sub storage.Substrate, name string) (storage.File, error) {
	if f, err := sub.Open(name); err == nil {
		return f, nil
	}
	return sub.Create(name)
}

// Write enqueues e and blocks until it has been encoded and synced to
// disk, so a caller never reports a mutation durable before the log
// entry backing it actually is.
func (w *Writer) Write(e Entry) error {
	req := entryReq{e: e, done: make(chan error, 1)}
	select {
	case w.ch <- req:
	case <-w.done:
		return ErrClosed
	}
	select {
	case err := <-req.done:
		return err
	case <-w.done:
		return ErrClosed
	}
}

func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	close(w.done)
	w.wg.Wait()
	return w.f.Close()
}

func (w *Writer) loop() {
	defer w.wg.Done()
	flush := func(req entryReq) {
		err := req.e.Encode(w.f)
		if err == nil {
			err = w.f.Sync()
		}
		req.done <- err
	}
	for {
		select {
		case req := <-w.ch:
			flush(req)
		case <-w.done:
			for {
				select {
				case req := <-w.ch:
					flush(req)
				default:
					return
				}
			}
		}
	}
}
