package reader

import (
	"errors"
	"fmt"
)

// Causes carried by OpenError.
var (
	ErrNoHeader   = errors.New("no %PDF- header")
	ErrNoTrailer  = errors.New("no usable trailer")
	ErrNoRoot     = errors.New("trailer has no /Root")
	ErrNotCatalog = errors.New("/Root is not a catalog dictionary")
	ErrEncrypted  = errors.New("document is encrypted")
)

// OpenError reports why a document could not be opened.
type OpenError struct {
	Path string // empty when opened from a Source
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("open %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("open: %v", e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Warning is a problem the reader worked around.
type Warning struct {
	Offset  int64 // -1 when unknown
	Object  int   // 0 when not tied to an object
	Message string
}

func (w Warning) String() string {
	switch {
	case w.Object > 0:
		return fmt.Sprintf("object %d: %s", w.Object, w.Message)
	case w.Offset >= 0:
		return fmt.Sprintf("offset %d: %s", w.Offset, w.Message)
	}
	return w.Message
}
