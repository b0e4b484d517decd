package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Object is a PDF value. The set of implementations is fixed by the file
// format and sealed by the unexported marker method, so consumers can switch
// on the concrete type exhaustively.
type Object interface {
	Type() ObjectType
	String() string
	isObject()
}

// ObjectType identifies the variant of an Object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjIndirect:
		return "IndirectRef"
	default:
		return "Unknown"
	}
}

// Null represents the PDF null object
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }
func (Null) isObject()        {}

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) isObject() {}

// Int represents a PDF integer
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }
func (Int) isObject()          {}

// Real represents a PDF real number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }
func (Real) isObject()          {}

// String represents a PDF string. The value holds the raw bytes after escape
// and hex decoding; no character set is applied.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }
func (String) isObject()          {}

// Bytes returns the string's bytes.
func (s String) Bytes() []byte { return []byte(s) }

// Name represents a PDF name, stored without the leading slash
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }
func (Name) isObject()          {}

// Array represents a PDF array
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, obj := range a {
		parts = append(parts, objString(obj))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
func (Array) isObject() {}

// Len returns the length of the array
func (a Array) Len() int {
	return len(a)
}

// Get retrieves an element at the given index, or nil when out of range
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt retrieves an integer at the given index
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetName retrieves a name at the given index
func (a Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// GetNumber retrieves an Int or Real at the given index as a float64
func (a Array) GetNumber(index int) (float64, bool) {
	return numberValue(a.Get(index))
}

// Dict represents a PDF dictionary keyed by name (without the slash)
type Dict map[string]Object

func (d Dict) Type() ObjectType { return ObjDict }

// String renders the dictionary with keys in sorted order so output is stable.
func (d Dict) String() string {
	keys := d.Keys()
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("/%s %s", key, objString(d[key])))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}
func (Dict) isObject() {}

// Get retrieves a value from the dictionary
func (d Dict) Get(key string) Object {
	return d[key]
}

// GetName retrieves a name value
func (d Dict) GetName(key string) (Name, bool) {
	name, ok := d[key].(Name)
	return name, ok
}

// GetInt retrieves an integer value
func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

// GetNumber retrieves an Int or Real value as a float64
func (d Dict) GetNumber(key string) (float64, bool) {
	return numberValue(d[key])
}

// GetDict retrieves a dictionary value
func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

// GetArray retrieves an array value
func (d Dict) GetArray(key string) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

// GetString retrieves a string value
func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

// GetBool retrieves a boolean value
func (d Dict) GetBool(key string) (Bool, bool) {
	b, ok := d[key].(Bool)
	return b, ok
}

// GetStream retrieves a stream value
func (d Dict) GetStream(key string) (*Stream, bool) {
	s, ok := d[key].(*Stream)
	return s, ok
}

// GetIndirectRef retrieves an indirect reference
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d[key].(IndirectRef)
	return ref, ok
}

// Has checks if a key exists in the dictionary
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Keys returns all keys in the dictionary in no particular order
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	return keys
}

// Stream is a dictionary followed by a body of raw bytes. Data holds the
// undecoded body; Offset is the absolute position of the body in the source
// it was parsed from (0 for streams parsed from memory).
type Stream struct {
	Dict   Dict
	Data   []byte
	Offset int64

	resolver   ReferenceResolver // for indirect /Filter and /DecodeParms
	decoded    []byte
	decodedErr error
	didDecode  bool
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}
func (*Stream) isObject() {}

// Decoded returns the body run through the stream's filter chain. The result
// (or the failure) is computed once and reused.
func (s *Stream) Decoded() ([]byte, error) {
	if !s.didDecode {
		s.decoded, s.decodedErr = s.Decode()
		s.didDecode = true
	}
	return s.decoded, s.decodedErr
}

// IndirectRef is a symbolic reference "N G R" to an indirect object
type IndirectRef struct {
	Number     int
	Generation int
}

// ObjectID is the (number, generation) identity of an indirect object.
type ObjectID = IndirectRef

func (r IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}
func (IndirectRef) isObject() {}

// Valid reports whether the reference can name an indirect object. Object 0
// heads the free list and is never addressable.
func (r IndirectRef) Valid() bool {
	return r.Number > 0 && int64(r.Number) <= math.MaxUint32 &&
		r.Generation >= 0 && r.Generation <= math.MaxUint16
}

// IndirectObject is a parsed "N G obj ... endobj" definition
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}

func numberValue(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

func objString(obj Object) string {
	if obj == nil {
		return "null"
	}
	if s, ok := obj.(String); ok {
		return "(" + string(s) + ")"
	}
	return obj.String()
}
