package core

import (
	"fmt"
	"strconv"
)

// ObjectStream is a decoded /Type /ObjStm stream. Its body starts with N
// pairs "objnum offset" followed, at byte First, by the objects themselves;
// each offset is relative to First.
type ObjectStream struct {
	n        int
	first    int
	extends  IndirectRef
	hasExt   bool
	data     []byte
	entries  []objectStreamEntry
	byNumber map[int]int // object number -> index
	objects  map[int]Object
	leniency Leniency
}

type objectStreamEntry struct {
	number int
	offset int
}

// NewObjectStream validates the stream dictionary, decodes the body and reads
// the header. A stream whose /Type is not /ObjStm fails with ErrNotObjectStream.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	return NewObjectStreamWith(stream, DefaultLeniency())
}

// NewObjectStreamWith is NewObjectStream with the leniency used to parse the
// header and the stored objects.
func NewObjectStreamWith(stream *Stream, leniency Leniency) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("object stream is nil: %w", ErrNotObjectStream)
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "ObjStm" {
		return nil, fmt.Errorf("stream type %v: %w", stream.Dict.Get("Type"), ErrNotObjectStream)
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First %v", stream.Dict.Get("First"))
	}
	// each header pair takes at least two bytes
	if n > first/2 {
		return nil, fmt.Errorf("object stream /N %d does not fit in a %d byte header", n, first)
	}

	o := &ObjectStream{
		n:        int(n),
		first:    int(first),
		byNumber: make(map[int]int, int(n)),
		objects:  make(map[int]Object),
		leniency: leniency,
	}
	o.extends, o.hasExt = stream.Dict.GetIndirectRef("Extends")

	data, err := stream.Decoded()
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream: %w", err)
	}
	o.data = data

	if err := o.parseHeader(); err != nil {
		return nil, fmt.Errorf("failed to parse object stream header: %w", err)
	}
	return o, nil
}

// parseHeader reads the N number/offset pairs that precede First.
func (o *ObjectStream) parseHeader() error {
	if o.first > len(o.data) {
		return fmt.Errorf("/First %d exceeds decoded length %d", o.first, len(o.data))
	}

	lexer := NewLexerBytes(o.data[:o.first])
	lexer.SetStrictNumbers(o.leniency.StrictNumbers)
	readInt := func() (int, error) {
		tok := lexer.NextToken()
		if tok.Type != TokenInteger {
			return 0, fmt.Errorf("expected integer at header offset %d, got %v", tok.Pos, tok.Type)
		}
		v, err := strconv.Atoi(string(tok.Value))
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid header value %q at offset %d", tok.Value, tok.Pos)
		}
		return v, nil
	}

	o.entries = make([]objectStreamEntry, 0, o.n)
	for i := 0; i < o.n; i++ {
		num, err := readInt()
		if err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
		off, err := readInt()
		if err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
		o.entries = append(o.entries, objectStreamEntry{number: num, offset: off})
		if _, dup := o.byNumber[num]; !dup {
			o.byNumber[num] = i
		}
	}
	return nil
}

// N returns the number of objects stored in the stream.
func (o *ObjectStream) N() int {
	return o.n
}

// First returns the offset of the first object within the decoded body.
func (o *ObjectStream) First() int {
	return o.first
}

// Extends returns the object stream this one extends, if any.
func (o *ObjectStream) Extends() (IndirectRef, bool) {
	return o.extends, o.hasExt
}

// ObjectNumbers returns the object numbers in header order.
func (o *ObjectStream) ObjectNumbers() []int {
	nums := make([]int, len(o.entries))
	for i, e := range o.entries {
		nums[i] = e.number
	}
	return nums
}

// ObjectAt parses the object at the given header index and returns it with
// the object number the header records for that slot.
func (o *ObjectStream) ObjectAt(index int) (Object, int, error) {
	if index < 0 || index >= len(o.entries) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(o.entries))
	}
	entry := o.entries[index]
	if obj, ok := o.objects[index]; ok {
		return obj, entry.number, nil
	}

	start := o.first + entry.offset
	if start >= len(o.data) {
		return nil, 0, fmt.Errorf("object %d offset %d exceeds decoded length %d", entry.number, start, len(o.data))
	}

	p := NewParserBytes(o.data[start:])
	p.SetLeniency(o.leniency)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object %d at index %d: %w", entry.number, index, err)
	}
	o.objects[index] = obj
	return obj, entry.number, nil
}

// ObjectByNumber finds an object by number rather than position.
func (o *ObjectStream) ObjectByNumber(num int) (Object, error) {
	index, ok := o.byNumber[num]
	if !ok {
		return nil, fmt.Errorf("object %d not in object stream: %w", num, ErrObjectMissing)
	}
	obj, _, err := o.ObjectAt(index)
	return obj, err
}
