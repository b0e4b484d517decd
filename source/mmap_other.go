//go:build !unix

package source

import (
	"errors"
	"os"
)

// Mapped is unavailable on this platform; Map always fails and Open falls
// back to reading the file on demand.
type Mapped struct {
	File
}

// Map reports that memory mapping is not supported.
func Map(f *os.File) (*Mapped, error) {
	return nil, errors.New("memory mapping is not supported on this platform")
}
