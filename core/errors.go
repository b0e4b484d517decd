package core

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ResolveError and FilterError. Match them with
// errors.Is.
var (
	ErrObjectFree         = errors.New("object is free")
	ErrObjectMissing      = errors.New("object not found in cross-reference table")
	ErrObjectMismatch     = errors.New("object number at offset does not match")
	ErrGenerationMismatch = errors.New("generation number does not match")
	ErrReferenceCycle     = errors.New("reference cycle or maximum reference depth exceeded")
	ErrNotObjectStream    = errors.New("container is not an object stream")
	ErrUnsupportedFilter  = errors.New("unsupported filter")
)

// LexError describes a malformed byte sequence. The lexer emits it inside a
// TokenError token and keeps going.
type LexError struct {
	Offset int64
	Raw    []byte
	Msg    string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s (%q)", e.Offset, e.Msg, e.Raw)
}

// ParseError is a grammar violation at a known offset.
type ParseError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// XRefError reports a missing or unusable cross-reference structure.
type XRefError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *XRefError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xref error at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("xref error at offset %d: %s", e.Offset, e.Msg)
}

func (e *XRefError) Unwrap() error { return e.Err }

// ResolveError reports why an indirect object could not be produced.
type ResolveError struct {
	ID  ObjectID
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %d %d R: %v", e.ID.Number, e.ID.Generation, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// FilterError reports a failure in one stage of a stream's filter chain.
// Index is the position of the filter within the chain.
type FilterError struct {
	Filter string
	Index  int
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %d (%s): %v", e.Index, e.Filter, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

func parseErrorf(offset int64, format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func xrefErrorf(offset int64, format string, args ...interface{}) *XRefError {
	return &XRefError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
