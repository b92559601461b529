package storage

import (
	"fmt"
	"io"
	"sync"
)

// Memory is a Substrate backed by byte buffers held in RAM, used by tests
// that want dictionary behaviour without touching a real filesystem.
type Memory struct {
	mu    sync.Mutex
	files map[string]*memFile
}

// NewMemory returns an empty in-memory Substrate.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memFile)}
}

func (m *Memory) Open(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, ErrNotExist)
	}
	return &memHandle{f: f}, nil
}

func (m *Memory) Create(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := &memFile{}
	m.files[name] = f
	return &memHandle{f: f}, nil
}

func (m *Memory) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("remove %s: %w", name, ErrNotExist)
	}
	delete(m.files, name)
	return nil
}

func (m *Memory) Rename(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[oldName]
	if !ok {
		return fmt.Errorf("rename %s: %w", oldName, ErrNotExist)
	}
	m.files[newName] = f
	delete(m.files, oldName)
	return nil
}

// ErrNotExist is returned for operations against a name the Memory
// substrate has no file for.
var ErrNotExist = fmt.Errorf("file does not exist")

type memFile struct {
	mu   sync.Mutex
	data []byte
}

type memHandle struct {
	f   *memFile
	pos int64
}

func (h *memHandle) ReadAt(p []byte, off int64) (int, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()

	if off >= int64(len(h.f.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *memHandle) WriteAt(p []byte, off int64) (int, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(h.f.data)) {
		grown := make([]byte, end)
		copy(grown, h.f.data)
		h.f.data = grown
	}
	copy(h.f.data[off:end], p)
	return len(p), nil
}

func (h *memHandle) Read(p []byte) (int, error) {
	n, err := h.ReadAt(p, h.pos)
	h.pos += int64(n)
	return n, err
}

func (h *memHandle) Write(p []byte) (int, error) {
	n, err := h.WriteAt(p, h.pos)
	h.pos += int64(n)
	return n, err
}

func (h *memHandle) Seek(offset int64, whence int) (int64, error) {
	h.f.mu.Lock()
	size := int64(len(h.f.data))
	h.f.mu.Unlock()

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = h.pos + offset
	case io.SeekEnd:
		newPos = size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	h.pos = newPos
	return h.pos, nil
}

func (h *memHandle) Truncate(size int64) error {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()

	if size <= int64(len(h.f.data)) {
		h.f.data = h.f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, h.f.data)
	h.f.data = grown
	return nil
}

func (h *memHandle) Sync() error  { return nil }
func (h *memHandle) Close() error { return nil }
