// Package source provides byte sources for the parser: memory buffers,
// files read on demand, and memory-mapped files.
//
// Every source is an io.ReaderAt with a known size, so one source can be
// shared by several readers at once.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// MmapThreshold is the file size from which Open maps the file into memory
// instead of issuing a read per access.
const MmapThreshold = 10 << 20

// Source is a random-access byte source that may hold resources.
type Source interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Memory is a source over an in-memory buffer.
type Memory struct {
	r *bytes.Reader
}

// Bytes returns a source over data. The slice must not be modified while
// the source is in use.
func Bytes(data []byte) *Memory {
	return &Memory{r: bytes.NewReader(data)}
}

func (m *Memory) ReadAt(p []byte, off int64) (int, error) { return m.r.ReadAt(p, off) }
func (m *Memory) Size() int64                              { return m.r.Size() }
func (m *Memory) Close() error                             { return nil }

// File is a source reading from an open file on demand.
type File struct {
	f    *os.File
	size int64
}

// NewFile wraps an open file. The file is closed by Close.
func NewFile(f *os.File) (*File, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	return &File{f: f, size: info.Size()}, nil
}

func (s *File) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *File) Size() int64                              { return s.size }
func (s *File) Close() error                             { return s.f.Close() }

// Open opens the file at path. Files of at least MmapThreshold bytes are
// memory-mapped where the platform allows it; otherwise, or if mapping
// fails, the file is read on demand.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	file, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if file.size < MmapThreshold {
		return file, nil
	}

	mapped, err := Map(f)
	if err != nil {
		return file, nil
	}
	// the mapping stays valid after the descriptor is closed
	f.Close()
	return mapped, nil
}
