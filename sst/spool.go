// Package sst adapts the teacher's immutable SST writer (data blocks +
// sparse index + bloom filter + footer, all documented in writer.go's
// original layout diagrams) into the query executor's materialized-path
// spool writer: fixed-width rows replace variable-length key/value
// entries, a "data block" becomes a page of rows that never spans a page
// boundary, and the sparse index becomes a directory of each page's first
// group-by key (consulted by nothing yet, carried for a future seek-to-
// group optimization the way the teacher's index supports seek-to-block).
package sst

import (
	"fmt"

	"github.com/Priyanshu23/FlashLogGo/storage"
	"github.com/Priyanshu23/FlashLogGo/types"
)

// IndexEntry records one page's first group-by key and byte offset,
// mirroring the teacher's indexEntry (key, blockOffset, blockSize).
type IndexEntry struct {
	Key    []byte
	Offset int64
}

// SpoolMeta is the page geometry a SpoolWriter used, replayed by
// SpoolReader to recompute row offsets without re-deriving rowsPerPage.
type SpoolMeta struct {
	RecordSize  int
	PageSize    int
	RowsPerPage int
	RowCount    int
}

// SpoolWriter appends fixed-width records to f, page-aligned, building a
// sparse first-key index as it goes.
type SpoolWriter struct {
	f           storage.File
	recordSize  int
	pageSize    int
	rowsPerPage int

	offset    int64
	rowInPage int
	rowCount  int

	index []IndexEntry
}

// NewSpoolWriter opens a spool writer over f. pageSize <= 0 means one row
// per page (no padding).
func NewSpoolWriter(f storage.File, recordSize, pageSize int) *SpoolWriter {
	if pageSize <= 0 {
		pageSize = recordSize
	}
	rowsPerPage := pageSize / recordSize
	if rowsPerPage == 0 {
		rowsPerPage = 1
	}
	return &SpoolWriter{
		f:           f,
		recordSize:  recordSize,
		pageSize:    pageSize,
		rowsPerPage: rowsPerPage,
	}
}

// Write appends record (exactly recordSize bytes). groupKey, if given,
// names the field to record in the page index instead of the record's raw
// prefix; it may be nil when the caller has no group-by key for this spool
// (e.g. an unkeyed global aggregate), in which case the record's own
// leading bytes stand in for the index key.
func (w *SpoolWriter) Write(record []byte, groupKey []byte) error {
	if w.rowInPage >= w.rowsPerPage {
		w.offset += int64(w.pageSize)
		w.rowInPage = 0
	}
	if w.rowInPage == 0 {
		key := append([]byte(nil), record[:min(len(record), recordKeyPreviewLen)]...)
		if len(groupKey) > 0 {
			key = append([]byte(nil), groupKey...)
		}
		w.index = append(w.index, IndexEntry{Key: key, Offset: w.offset})
	}
	rowOffset := w.offset + int64(w.rowInPage*w.recordSize)
	if _, err := w.f.WriteAt(record, rowOffset); err != nil {
		return fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	w.rowInPage++
	w.rowCount++
	return nil
}

const recordKeyPreviewLen = 8

// Flush syncs the backing file and returns the geometry SpoolReader needs
// to replay it, plus the sparse index accumulated.
func (w *SpoolWriter) Flush() (SpoolMeta, error) {
	if err := w.f.Sync(); err != nil {
		return SpoolMeta{}, fmt.Errorf("%w: %v", types.ErrFileWrite, err)
	}
	return SpoolMeta{
		RecordSize:  w.recordSize,
		PageSize:    w.pageSize,
		RowsPerPage: w.rowsPerPage,
		RowCount:    w.rowCount,
	}, nil
}

// Index returns the sparse first-key-per-page directory built so far.
func (w *SpoolWriter) Index() []IndexEntry {
	return w.index
}

// SpoolReader replays a SpoolWriter's page-aware layout in write order.
type SpoolReader struct {
	f    storage.File
	meta SpoolMeta
}

func NewSpoolReader(f storage.File, meta SpoolMeta) *SpoolReader {
	return &SpoolReader{f: f, meta: meta}
}

// ReadAll invokes visit once per record, in write order.
func (r *SpoolReader) ReadAll(visit func(record []byte) error) error {
	buf := make([]byte, r.meta.RecordSize)
	var offset int64
	rowInPage := 0

	for i := 0; i < r.meta.RowCount; i++ {
		if rowInPage >= r.meta.RowsPerPage {
			offset += int64(r.meta.PageSize)
			rowInPage = 0
		}
		rowOffset := offset + int64(rowInPage*r.meta.RecordSize)
		if _, err := r.f.ReadAt(buf, rowOffset); err != nil {
			return fmt.Errorf("%w: %v", types.ErrFileRead, err)
		}
		if err := visit(buf); err != nil {
			return err
		}
		rowInPage++
	}
	return nil
}
