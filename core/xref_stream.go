package core

import (
	"fmt"
)

// parseXRefStream reads a cross-reference stream: an indirect object whose
// dictionary has /Type /XRef and doubles as the trailer. Each entry is
// W[0]+W[1]+W[2] bytes of big-endian fields; /Index lists the object
// number ranges the entries cover, defaulting to [0 Size].
func (x *XRefParser) parseXRefStream(offset int64) (*XRefTable, error) {
	obj, err := x.parserAt(offset).ParseIndirectObject()
	if err != nil {
		return nil, &XRefError{Offset: offset, Msg: "failed to parse xref stream object", Err: err}
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, xrefErrorf(offset, "xref stream object is %T, not a stream", obj.Object)
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "XRef" {
		return nil, xrefErrorf(offset, "stream at xref offset has /Type %v", stream.Dict.Get("Type"))
	}

	w, err := xrefStreamWidths(stream.Dict)
	if err != nil {
		return nil, &XRefError{Offset: offset, Msg: "invalid /W", Err: err}
	}
	index, err := xrefStreamIndex(stream.Dict)
	if err != nil {
		return nil, &XRefError{Offset: offset, Msg: "invalid /Index", Err: err}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, &XRefError{Offset: offset, Msg: "failed to decode xref stream", Err: err}
	}

	table := NewXRefTable()
	table.IsStream = true
	table.Trailer = stream.Dict

	entrySize := w[0] + w[1] + w[2]
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+entrySize > len(data) {
				// truncated data: keep the entries read so far
				return table, nil
			}
			entry, n, err := x.parseXRefStreamEntry(data[pos:], w)
			if err != nil {
				return nil, &XRefError{Offset: offset, Msg: "invalid xref stream entry", Err: err}
			}
			pos += n
			if entry != nil {
				table.Set(start+j, entry)
			}
		}
	}
	return table, nil
}

func xrefStreamWidths(dict Dict) ([3]int, error) {
	var w [3]int
	arr, ok := dict.GetArray("W")
	if !ok || len(arr) < 3 {
		return w, fmt.Errorf("expected array of three widths, got %v", dict.Get("W"))
	}
	total := 0
	for i := 0; i < 3; i++ {
		v, ok := arr.GetInt(i)
		if !ok || v < 0 || v > 8 {
			return w, fmt.Errorf("width %d is %v", i, arr.Get(i))
		}
		w[i] = int(v)
		total += w[i]
	}
	if total == 0 {
		return w, fmt.Errorf("all widths are zero")
	}
	return w, nil
}

func xrefStreamIndex(dict Dict) ([]int, error) {
	arr, ok := dict.GetArray("Index")
	if !ok {
		size, ok := dict.GetInt("Size")
		if !ok || size < 0 {
			return nil, fmt.Errorf("missing /Size")
		}
		return []int{0, int(size)}, nil
	}
	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("odd number of elements")
	}
	index := make([]int, len(arr))
	for i := range arr {
		v, ok := arr.GetInt(i)
		if !ok || v < 0 {
			return nil, fmt.Errorf("element %d is %v", i, arr.Get(i))
		}
		index[i] = int(v)
	}
	return index, nil
}

// parseXRefStreamEntry decodes one entry and returns it with the number of
// bytes consumed. A zero-width type field means type 1. Entries of unknown
// type are skipped (nil entry, no error) as the format requires.
func (x *XRefParser) parseXRefStreamEntry(data []byte, w [3]int) (*XRefEntry, int, error) {
	size := w[0] + w[1] + w[2]
	if len(data) < size {
		return nil, 0, fmt.Errorf("entry needs %d bytes, have %d", size, len(data))
	}

	typ := int64(1)
	if w[0] > 0 {
		typ = readBigEndianInt(data[:w[0]], w[0])
	}
	field2 := readBigEndianInt(data[w[0]:w[0]+w[1]], w[1])
	field3 := readBigEndianInt(data[w[0]+w[1]:size], w[2])

	switch typ {
	case 0:
		return &XRefEntry{Type: XRefFree, Offset: field2, Generation: int(field3)}, size, nil
	case 1:
		return &XRefEntry{Type: XRefInUse, Offset: field2, Generation: int(field3)}, size, nil
	case 2:
		return &XRefEntry{Type: XRefCompressed, StreamNumber: int(field2), StreamIndex: int(field3)}, size, nil
	}
	return nil, size, nil
}

// readBigEndianInt reads a width-byte big-endian unsigned integer. A zero
// width yields 0.
func readBigEndianInt(data []byte, width int) int64 {
	var v int64
	for i := 0; i < width && i < len(data); i++ {
		v = v<<8 | int64(data[i])
	}
	return v
}
