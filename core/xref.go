package core

import (
	"bytes"
	"sort"
	"strconv"
)

// XRefEntryType classifies a cross-reference entry
type XRefEntryType int

const (
	XRefFree       XRefEntryType = iota // type 0, 'f'
	XRefInUse                           // type 1, 'n'
	XRefCompressed                      // type 2, stored in an object stream
)

func (t XRefEntryType) String() string {
	switch t {
	case XRefFree:
		return "free"
	case XRefInUse:
		return "in-use"
	case XRefCompressed:
		return "compressed"
	}
	return "unknown"
}

// XRefEntry represents a single cross-reference table entry
type XRefEntry struct {
	Type         XRefEntryType
	Offset       int64 // byte offset for in-use objects, next free object number for free ones
	Generation   int
	StreamNumber int // compressed: object number of the containing object stream
	StreamIndex  int // compressed: index within that stream
}

// InUse reports whether the entry names a live object, directly or inside
// an object stream.
func (e *XRefEntry) InUse() bool {
	return e.Type == XRefInUse || e.Type == XRefCompressed
}

// XRefTable maps object numbers to where the objects live. After Build it is
// the merged view of every revision in the file.
type XRefTable struct {
	Entries  map[int]*XRefEntry // Map from object number to XRef entry
	Trailer  Dict               // Trailer dictionary
	IsStream bool               // newest section is a cross-reference stream
	Sections []int64            // offsets of the sections read, newest first
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// Numbers returns every object number in the table in ascending order.
func (x *XRefTable) Numbers() []int {
	nums := make([]int, 0, len(x.Entries))
	for n := range x.Entries {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// XRefParser reads cross-reference sections from a Source
type XRefParser struct {
	src      Source
	leniency Leniency
}

// NewXRefParser creates a new XRef parser
func NewXRefParser(src Source) *XRefParser {
	return &XRefParser{src: src, leniency: DefaultLeniency()}
}

// SetLeniency sets the policy used when parsing section objects.
func (x *XRefParser) SetLeniency(l Leniency) {
	x.leniency = l
}

func (x *XRefParser) parserAt(offset int64) *Parser {
	p := NewParserAt(x.src, offset)
	p.SetLeniency(x.leniency)
	return p
}

// FindXRef returns the offset recorded after the last "startxref" keyword.
// The tail of the file is searched first, widening if the keyword is not
// within the last KiB.
func (x *XRefParser) FindXRef() (int64, error) {
	size := x.src.Size()
	for _, window := range []int64{1024, 64 << 10} {
		if window > size {
			window = size
		}
		tail, err := readRange(x.src, size-window, int(window))
		if err != nil {
			return 0, &XRefError{Offset: size - window, Msg: "failed to read file tail", Err: err}
		}
		idx := bytes.LastIndex(tail, []byte("startxref"))
		if idx < 0 {
			if window == size {
				break
			}
			continue
		}

		pos := size - window + int64(idx) + int64(len("startxref"))
		lexer := NewLexer(x.src)
		lexer.Seek(pos)
		tok := lexer.NextToken()
		if tok.Type != TokenInteger {
			return 0, xrefErrorf(pos, "startxref is not followed by an offset")
		}
		offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
		if err != nil || offset < 0 || offset >= size {
			return 0, xrefErrorf(pos, "startxref offset %q is outside the file", tok.Value)
		}
		return offset, nil
	}
	return 0, xrefErrorf(size, "startxref not found")
}

// isXRefStream reports whether the section at offset is a cross-reference
// stream ("N G obj") rather than a classic table ("xref").
func (x *XRefParser) isXRefStream(offset int64) (bool, error) {
	lexer := NewLexer(x.src)
	lexer.Seek(offset)
	tok := lexer.NextToken()
	switch {
	case tok.Is("xref"):
		return false, nil
	case tok.Type == TokenInteger:
		return true, nil
	}
	return false, xrefErrorf(offset, "no cross-reference section at offset (found %v %q)", tok.Type, tok.Value)
}

// ParseXRef parses the single section at offset, classic or stream. A
// classic section's /XRefStm (hybrid files) is not followed here; see Build.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	isStream, err := x.isXRefStream(offset)
	if err != nil {
		return nil, err
	}
	var table *XRefTable
	if isStream {
		table, err = x.parseXRefStream(offset)
	} else {
		table, err = x.parseXRefTable(offset)
	}
	if err != nil {
		return nil, err
	}
	table.Sections = []int64{offset}
	return table, nil
}

// parseXRefTable reads a classic section: "xref", subsections of
// "start count" followed by count "offset gen n|f" entries, then "trailer"
// and a dictionary. Entries are read as tokens, so 19, 20 and 21 byte line
// layouts all work.
func (x *XRefParser) parseXRefTable(offset int64) (*XRefTable, error) {
	p := x.parserAt(offset)
	if tok := p.next(); !tok.Is("xref") {
		return nil, xrefErrorf(tok.Pos, "expected 'xref' keyword")
	}

	table := NewXRefTable()
	for {
		tok := p.peek(0)
		if tok.Is("trailer") {
			p.next()
			obj, err := p.ParseObject()
			if err != nil {
				return nil, &XRefError{Offset: tok.Pos, Msg: "failed to parse trailer", Err: err}
			}
			dict, ok := obj.(Dict)
			if !ok {
				return nil, xrefErrorf(tok.Pos, "trailer is not a dictionary, got %T", obj)
			}
			table.Trailer = dict
			return table, nil
		}
		if tok.Type != TokenInteger {
			return nil, xrefErrorf(tok.Pos, "expected subsection header or 'trailer', got %v %q", tok.Type, tok.Value)
		}

		start, err := x.intToken(p.next())
		if err != nil {
			return nil, err
		}
		count, err := x.intToken(p.next())
		if err != nil {
			return nil, err
		}

		for i := int64(0); i < count; i++ {
			entry, err := x.parseEntry(p)
			if err != nil {
				return nil, err
			}
			table.Set(int(start+i), entry)
		}
	}
}

// parseEntry reads one "offset generation n|f" entry
func (x *XRefParser) parseEntry(p *Parser) (*XRefEntry, error) {
	offTok := p.next()
	off, err := x.intToken(offTok)
	if err != nil {
		return nil, err
	}
	gen, err := x.intToken(p.next())
	if err != nil {
		return nil, err
	}

	flag := p.next()
	switch {
	case flag.Is("n"):
		return &XRefEntry{Type: XRefInUse, Offset: off, Generation: int(gen)}, nil
	case flag.Is("f"):
		return &XRefEntry{Type: XRefFree, Offset: off, Generation: int(gen)}, nil
	}
	return nil, xrefErrorf(flag.Pos, "invalid xref entry flag %q for entry at offset %d", flag.Value, offTok.Pos)
}

func (x *XRefParser) intToken(tok Token) (int64, error) {
	if tok.Type != TokenInteger {
		return 0, xrefErrorf(tok.Pos, "expected integer in xref section, got %v %q", tok.Type, tok.Value)
	}
	v, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil || v < 0 {
		return 0, xrefErrorf(tok.Pos, "invalid integer %q in xref section", tok.Value)
	}
	return v, nil
}

// Build reads the section at offset and every older revision reachable
// through /Prev, then merges them. A hybrid section's /XRefStm is read as
// part of its revision and its entries take precedence over the classic
// ones. Revisiting an offset is reported as a cycle.
func (x *XRefParser) Build(offset int64) (*XRefTable, error) {
	visited := make(map[int64]bool)
	var revisions []*XRefTable // newest first

	for next, hasNext := offset, true; hasNext; {
		if visited[next] {
			return nil, xrefErrorf(next, "cycle in /Prev chain")
		}
		visited[next] = true

		section, err := x.ParseXRef(next)
		if err != nil {
			return nil, err
		}

		if stmOff, ok := section.Trailer.GetInt("XRefStm"); ok && !section.IsStream {
			if visited[int64(stmOff)] {
				return nil, xrefErrorf(int64(stmOff), "cycle through /XRefStm")
			}
			visited[int64(stmOff)] = true
			hidden, err := x.parseXRefStream(int64(stmOff))
			if err != nil {
				return nil, &XRefError{Offset: int64(stmOff), Msg: "failed to parse /XRefStm section", Err: err}
			}
			for num, entry := range hidden.Entries {
				section.Set(num, entry)
			}
			section.Sections = append(section.Sections, int64(stmOff))
		}
		revisions = append(revisions, section)

		prev, ok := section.Trailer.GetInt("Prev")
		next, hasNext = int64(prev), ok
	}

	// oldest first, so newer revisions override
	tables := make([]*XRefTable, len(revisions))
	for i, r := range revisions {
		tables[len(revisions)-1-i] = r
	}
	merged := MergeXRefTables(tables...)
	merged.IsStream = revisions[0].IsStream
	merged.Sections = merged.Sections[:0]
	for _, r := range revisions {
		merged.Sections = append(merged.Sections, r.Sections...)
	}
	return merged, nil
}

// BuildFromEOF locates startxref and builds the whole chain from there.
func (x *XRefParser) BuildFromEOF() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}
	return x.Build(offset)
}

// MergeXRefTables merges tables given oldest first. Later entries override
// earlier ones, and trailer keys missing from a newer trailer are inherited
// from older ones.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, table := range tables {
		for objNum, entry := range table.Entries {
			merged.Set(objNum, entry)
		}
		for key, value := range table.Trailer {
			merged.Trailer[key] = value
		}
		merged.Sections = append(merged.Sections, table.Sections...)
		merged.IsStream = table.IsStream
	}
	return merged
}
