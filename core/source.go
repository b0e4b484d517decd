package core

import (
	"bytes"
	"io"
)

// Source is random access to the bytes of a PDF file. *bytes.Reader and
// *io.SectionReader satisfy it directly; package source provides file and
// memory-mapped implementations.
type Source interface {
	io.ReaderAt
	Size() int64
}

// BytesSource wraps an in-memory buffer as a Source.
func BytesSource(data []byte) Source {
	return bytes.NewReader(data)
}

// readRange reads up to n bytes at off, clamped to the end of the source.
func readRange(src Source, off int64, n int) ([]byte, error) {
	size := src.Size()
	if off < 0 || off > size {
		return nil, io.EOF
	}
	if rem := size - off; int64(n) > rem {
		n = int(rem)
	}
	buf := make([]byte, n)
	read, err := src.ReadAt(buf, off)
	if err == io.EOF && read == n {
		err = nil
	}
	return buf[:read], err
}

const scanChunk = 64 << 10

// indexFrom returns the absolute offset of the first occurrence of pattern at
// or after off, or -1. The source is read in overlapping chunks.
func indexFrom(src Source, off int64, pattern []byte) int64 {
	size := src.Size()
	overlap := int64(len(pattern) - 1)
	for off < size {
		chunk, err := readRange(src, off, scanChunk)
		if i := bytes.Index(chunk, pattern); i >= 0 {
			return off + int64(i)
		}
		if err != nil || int64(len(chunk)) <= overlap {
			return -1
		}
		off += int64(len(chunk)) - overlap
	}
	return -1
}
