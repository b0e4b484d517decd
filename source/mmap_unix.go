//go:build unix

package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Mapped is a source over a read-only memory mapping of a file.
type Mapped struct {
	data []byte
}

// Map maps all of f into memory. The caller may close f afterwards.
func Map(f *os.File) (*Mapped, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return &Mapped{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("file of %d bytes is too large to map", size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	return &Mapped{data: data}, nil
}

func (m *Mapped) ReadAt(p []byte, off int64) (int, error) {
	if m.data == nil && off > 0 {
		return 0, errors.New("read from closed mapping")
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Mapped) Size() int64 {
	return int64(len(m.data))
}

// Close unmaps the file. Reads after Close fail.
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
