package core

import (
	"regexp"
	"strconv"
)

// objHeader matches "N G obj" where N is not the tail of a longer token.
var objHeader = regexp.MustCompile(`(?:^|[^0-9A-Za-z.+\-])(\d{1,10})[\x00\t\n\f\r ]+(\d{1,5})[\x00\t\n\f\r ]+obj\b`)

const (
	recoverChunk   = 1 << 20
	recoverOverlap = 256
)

// Reconstruct rebuilds a cross-reference table by scanning the whole source
// for object definitions. It is the fallback for files whose startxref or
// xref sections are missing or damaged.
//
// The last definition of each object number wins. Members of object streams
// found on the way get compressed entries unless defined directly. The
// trailer comes from the last "trailer" dictionary, else the last xref
// stream dictionary, else it is synthesized around a scanned catalog.
func Reconstruct(src Source) (*XRefTable, error) {
	table := NewXRefTable()
	maxNum := 0

	size := src.Size()
	for off := int64(0); off < size; off += recoverChunk - recoverOverlap {
		chunk, err := readRange(src, off, recoverChunk)
		if err != nil && len(chunk) == 0 {
			return nil, &XRefError{Offset: off, Msg: "failed to read source", Err: err}
		}
		last := off+int64(len(chunk)) >= size
		for _, m := range objHeader.FindAllSubmatchIndex(chunk, -1) {
			numStart := m[2]
			// matches starting in the overlap are picked up by the next chunk
			if !last && numStart >= recoverChunk-recoverOverlap {
				continue
			}
			num, err1 := strconv.Atoi(string(chunk[m[2]:m[3]]))
			gen, err2 := strconv.Atoi(string(chunk[m[4]:m[5]]))
			if err1 != nil || err2 != nil || num <= 0 {
				continue
			}
			table.Set(num, &XRefEntry{Type: XRefInUse, Offset: off + int64(numStart), Generation: gen})
			if num > maxNum {
				maxNum = num
			}
		}
		if last {
			break
		}
	}

	if len(table.Entries) == 0 {
		return nil, xrefErrorf(0, "no objects found while reconstructing")
	}

	var (
		xrefStreamDict Dict
		xrefStreamOff  int64 = -1
		catalog        *IndirectRef
	)
	direct := make(map[int]bool, len(table.Entries))
	for num := range table.Entries {
		direct[num] = true
	}

	for _, num := range table.Numbers() {
		entry := table.Entries[num]
		if entry.Type != XRefInUse {
			continue
		}
		obj, err := NewParserAt(src, entry.Offset).ParseIndirectObject()
		if err != nil {
			continue
		}

		switch v := obj.Object.(type) {
		case Dict:
			if typ, _ := v.GetName("Type"); typ == "Catalog" && catalog == nil {
				ref := obj.Ref
				catalog = &ref
			}
		case *Stream:
			switch typ, _ := v.Dict.GetName("Type"); typ {
			case "XRef":
				if entry.Offset > xrefStreamOff {
					xrefStreamDict, xrefStreamOff = v.Dict, entry.Offset
				}
			case "ObjStm":
				objStm, err := NewObjectStream(v)
				if err != nil {
					continue
				}
				for i, member := range objStm.ObjectNumbers() {
					if member <= 0 || direct[member] {
						continue
					}
					table.Set(member, &XRefEntry{Type: XRefCompressed, StreamNumber: num, StreamIndex: i})
					if member > maxNum {
						maxNum = member
					}
					if catalog == nil {
						if d, ok := objectAtAs[Dict](objStm, i); ok {
							if typ, _ := d.GetName("Type"); typ == "Catalog" {
								catalog = &IndirectRef{Number: member}
							}
						}
					}
				}
			}
		}
	}

	trailer := lastTrailerDict(src)
	if trailer == nil && xrefStreamDict != nil {
		trailer = Dict{}
		for _, key := range []string{"Root", "Info", "ID", "Encrypt"} {
			if v, ok := xrefStreamDict[key]; ok {
				trailer[key] = v
			}
		}
	}
	if trailer == nil {
		trailer = Dict{}
	}
	if _, ok := trailer.GetIndirectRef("Root"); !ok && catalog != nil {
		trailer["Root"] = *catalog
	}
	delete(trailer, "Prev")
	delete(trailer, "XRefStm")
	trailer["Size"] = Int(maxNum + 1)
	table.Trailer = trailer
	return table, nil
}

// lastTrailerDict returns the dictionary following the last parseable
// "trailer" keyword in src.
func lastTrailerDict(src Source) Dict {
	var found Dict
	keyword := []byte("trailer")
	for off := int64(0); ; {
		idx := indexFrom(src, off, keyword)
		if idx < 0 {
			return found
		}
		p := NewParserAt(src, idx+int64(len(keyword)))
		if obj, err := p.ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				found = d
			}
		}
		off = idx + int64(len(keyword))
	}
}

func objectAtAs[T Object](objStm *ObjectStream, index int) (T, bool) {
	var zero T
	obj, _, err := objStm.ObjectAt(index)
	if err != nil {
		return zero, false
	}
	v, ok := obj.(T)
	return v, ok
}
