package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/pdfgraph/internal/pdftest"
)

func buildXRef(t *testing.T, data []byte) *XRefTable {
	t.Helper()
	table, err := NewXRefParser(BytesSource(data)).BuildFromEOF()
	if err != nil {
		t.Fatalf("BuildFromEOF() error = %v", err)
	}
	return table
}

func TestXRefTable(t *testing.T) {
	table := NewXRefTable()
	table.Set(5, &XRefEntry{Type: XRefInUse, Offset: 1000})
	table.Set(2, &XRefEntry{Type: XRefCompressed, StreamNumber: 9})
	table.Set(3, &XRefEntry{Type: XRefFree})

	if entry, ok := table.Get(5); !ok || entry.Offset != 1000 {
		t.Errorf("Get(5) = %v, %v", entry, ok)
	}
	if _, ok := table.Get(999); ok {
		t.Error("expected Get to return false for non-existent entry")
	}
	if table.Size() != 3 {
		t.Errorf("Size() = %d, want 3", table.Size())
	}
	if got := table.Numbers(); fmt.Sprint(got) != "[2 3 5]" {
		t.Errorf("Numbers() = %v", got)
	}
	if e, _ := table.Get(2); !e.InUse() {
		t.Error("compressed entries count as in use")
	}
	if e, _ := table.Get(3); e.InUse() {
		t.Error("free entry reported in use")
	}
}

func TestParseClassicXRef(t *testing.T) {
	b := pdftest.New("1.4")
	off1 := b.Object(1, 0, "<< /Type /Catalog /Pages 2 0 R >>")
	off2 := b.Object(2, 0, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.Free(3, 1)
	xrefOff := b.XRef("/Size 4 /Root 1 0 R")

	table := buildXRef(t, b.Bytes())

	if table.IsStream {
		t.Error("classic table reported as stream")
	}
	if e, ok := table.Get(1); !ok || e.Type != XRefInUse || e.Offset != off1 {
		t.Errorf("entry 1 = %+v, want in-use at %d", e, off1)
	}
	if e, ok := table.Get(2); !ok || e.Offset != off2 {
		t.Errorf("entry 2 = %+v, want offset %d", e, off2)
	}
	if e, ok := table.Get(3); !ok || e.Type != XRefFree || e.Generation != 1 {
		t.Errorf("entry 3 = %+v, want free generation 1", e)
	}
	if e, ok := table.Get(0); !ok || e.Type != XRefFree || e.Generation != 65535 {
		t.Errorf("entry 0 = %+v, want free head", e)
	}
	if ref, ok := table.Trailer.GetIndirectRef("Root"); !ok || ref.Number != 1 {
		t.Errorf("trailer /Root = %v", table.Trailer.Get("Root"))
	}
	if len(table.Sections) != 1 || table.Sections[0] != xrefOff {
		t.Errorf("Sections = %v, want [%d]", table.Sections, xrefOff)
	}
}

func TestParseClassicXRefEntryLayouts(t *testing.T) {
	// 20-byte entries with CRLF, 19-byte with bare LF, 21-byte with " \r\n",
	// plus two subsections
	input := "xref\n" +
		"0 2\n" +
		"0000000000 65535 f\r\n" +
		"0000000017 00000 n\n" +
		"5 1\n" +
		"0000000099 00002 n \r\n" +
		"trailer\n<< /Size 6 >>\n"

	table, err := NewXRefParser(BytesSource([]byte(input))).ParseXRef(0)
	if err != nil {
		t.Fatalf("ParseXRef() error = %v", err)
	}
	if table.Size() != 3 {
		t.Fatalf("expected 3 entries, got %d", table.Size())
	}
	if e, _ := table.Get(1); e.Offset != 17 {
		t.Errorf("entry 1 offset = %d, want 17", e.Offset)
	}
	if e, _ := table.Get(5); e.Offset != 99 || e.Generation != 2 {
		t.Errorf("entry 5 = %+v", e)
	}
}

func TestParseClassicXRefErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not xref", "trailer << >>"},
		{"bad flag", "xref\n0 1\n0000000000 65535 x\ntrailer << >>"},
		{"short subsection", "xref\n0 2\n0000000000 65535 f\ntrailer << >>"},
		{"missing trailer", "xref\n0 1\n0000000000 65535 f\n"},
		{"trailer not dict", "xref\n0 1\n0000000000 65535 f\ntrailer [1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewXRefParser(BytesSource([]byte(tt.input))).ParseXRef(0)
			var xe *XRefError
			if !errors.As(err, &xe) {
				t.Fatalf("expected *XRefError, got %v", err)
			}
		})
	}
}

func TestXRefPrevPrecedence(t *testing.T) {
	b := pdftest.New("1.7")
	b.Object(1, 0, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Object(2, 0, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.Object(5, 0, "(original)")
	first := b.XRef("/Size 6 /Root 1 0 R /Info 2 0 R")

	// incremental update redefines object 5
	updated := b.Object(5, 0, "(updated)")
	b.XRef(fmt.Sprintf("/Size 6 /Root 1 0 R /Prev %d", first))

	table := buildXRef(t, b.Bytes())
	e, ok := table.Get(5)
	if !ok || e.Offset != updated {
		t.Fatalf("object 5 at %+v, want offset %d from the newest section", e, updated)
	}
	if len(table.Sections) != 2 || table.Sections[1] != first {
		t.Errorf("Sections = %v", table.Sections)
	}
	// /Info only appears in the older trailer
	if _, ok := table.Trailer.GetIndirectRef("Info"); !ok {
		t.Error("trailer keys missing from the newest trailer should be inherited")
	}
	if _, ok := table.Get(1); !ok {
		t.Error("object 1 from the older section should survive the merge")
	}
}

func TestXRefPrevCycle(t *testing.T) {
	// the section's /Prev points back at itself
	input := "%PDF-1.4\nxref\n0 1\n0000000000 65535 f \ntrailer\n<< /Size 1 /Prev 9 >>\nstartxref\n9\n%%EOF\n"
	_, err := NewXRefParser(BytesSource([]byte(input))).BuildFromEOF()
	var xe *XRefError
	if !errors.As(err, &xe) {
		t.Fatalf("expected *XRefError for /Prev cycle, got %v", err)
	}
	if !strings.Contains(xe.Msg, "cycle") {
		t.Errorf("unexpected message %q", xe.Msg)
	}
}

func TestXRefStreamWidthsAndIndex(t *testing.T) {
	// /W [1 2 1] /Index [0 10]: ten 4-byte entries
	var data []byte
	data = append(data, 0, 0, 0, 255) // object 0 free
	for i := 1; i < 10; i++ {
		data = append(data, 1, 0, byte(i*10), 0)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "11 0 obj\n<< /Type /XRef /W [1 2 1] /Index [0 10] /Size 10 /Length %d >>\nstream\n", len(data))
	buf.Write(data)
	buf.WriteString("\nendstream\nendobj\n")

	table, err := NewXRefParser(BytesSource(buf.Bytes())).ParseXRef(0)
	if err != nil {
		t.Fatalf("ParseXRef() error = %v", err)
	}
	if !table.IsStream {
		t.Error("expected IsStream")
	}
	if table.Size() != 10 {
		t.Fatalf("expected 10 entries, got %d", table.Size())
	}
	for i := 1; i < 10; i++ {
		e, _ := table.Get(i)
		if e.Type != XRefInUse || e.Offset != int64(i*10) {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
	if typ, _ := table.Trailer.GetName("Type"); typ != "XRef" {
		t.Error("stream dictionary should serve as the trailer")
	}
}

func TestXRefStreamDefaultIndex(t *testing.T) {
	// no /Index: entries cover [0 Size]; zero-width type field means type 1
	data := []byte{0, 10, 0, 20, 0, 30}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "4 0 obj\n<< /Type /XRef /W [0 2 0] /Size 3 /Length %d >>\nstream\n", len(data))
	buf.Write(data)
	buf.WriteString("\nendstream\nendobj\n")

	table, err := NewXRefParser(BytesSource(buf.Bytes())).ParseXRef(0)
	if err != nil {
		t.Fatalf("ParseXRef() error = %v", err)
	}
	for i, want := range []int64{10, 20, 30} {
		if e, ok := table.Get(i); !ok || e.Type != XRefInUse || e.Offset != want {
			t.Errorf("entry %d = %+v, want in-use at %d", i, e, want)
		}
	}
}

func TestXRefStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		dict string
	}{
		{"wrong type", "/Type /ObjStm /W [1 2 1] /Size 1"},
		{"missing W", "/Type /XRef /Size 1"},
		{"short W", "/Type /XRef /W [1 2] /Size 1"},
		{"zero W", "/Type /XRef /W [0 0 0] /Size 1"},
		{"odd Index", "/Type /XRef /W [1 2 1] /Index [0] /Size 1"},
		{"no Size or Index", "/Type /XRef /W [1 2 1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := fmt.Sprintf("1 0 obj\n<< %s /Length 4 >>\nstream\n\x01\x00\x00\x00\nendstream\nendobj\n", tt.dict)
			_, err := NewXRefParser(BytesSource([]byte(input))).ParseXRef(0)
			var xe *XRefError
			if !errors.As(err, &xe) {
				t.Fatalf("expected *XRefError, got %v", err)
			}
		})
	}
}

func TestReadBigEndianInt(t *testing.T) {
	tests := []struct {
		data  []byte
		width int
		want  int64
	}{
		{nil, 0, 0},
		{[]byte{0x7F}, 1, 0x7F},
		{[]byte{0x01, 0x02}, 2, 0x0102},
		{[]byte{0x01, 0x02, 0x03}, 3, 0x010203},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, 0xFFFFFFFF},
		{[]byte{0x01, 0x02, 0x03, 0x04, 0x05}, 5, 0x0102030405},
	}
	for _, tt := range tests {
		if got := readBigEndianInt(tt.data, tt.width); got != tt.want {
			t.Errorf("readBigEndianInt(%x, %d) = %#x, want %#x", tt.data, tt.width, got, tt.want)
		}
	}
}

func TestParseXRefStreamEntry(t *testing.T) {
	x := NewXRefParser(BytesSource(nil))
	w := [3]int{1, 2, 1}

	tests := []struct {
		name string
		data []byte
		want *XRefEntry
	}{
		{"free", []byte{0, 0, 7, 1}, &XRefEntry{Type: XRefFree, Offset: 7, Generation: 1}},
		{"in use", []byte{1, 0x01, 0x00, 0}, &XRefEntry{Type: XRefInUse, Offset: 256}},
		{"compressed", []byte{2, 0, 12, 3}, &XRefEntry{Type: XRefCompressed, StreamNumber: 12, StreamIndex: 3}},
		{"unknown type", []byte{9, 0, 1, 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := x.parseXRefStreamEntry(tt.data, w)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != 4 {
				t.Errorf("consumed %d bytes, want 4", n)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, _, err := x.parseXRefStreamEntry([]byte{1, 2}, w); err == nil {
		t.Error("expected error for short entry")
	}
}

func TestXRefStreamFileWithObjectStream(t *testing.T) {
	b := pdftest.New("1.5")
	b.Object(1, 0, "<< /Type /Catalog /Pages 2 0 R >>")
	b.ObjectStream(3, map[int]string{2: "<< /Type /Pages /Kids [] /Count 0 >>", 5: "(five)"})
	b.XRefStream(4, "/Root 1 0 R")

	table := buildXRef(t, b.Bytes())
	if !table.IsStream {
		t.Error("expected IsStream")
	}
	e, ok := table.Get(5)
	if !ok || e.Type != XRefCompressed || e.StreamNumber != 3 || e.StreamIndex != 1 {
		t.Errorf("entry 5 = %+v, want compressed in 3 at index 1", e)
	}
	if e, ok := table.Get(4); !ok || e.Type != XRefInUse {
		t.Errorf("xref stream should list itself, got %+v", e)
	}
}

func TestXRefHybrid(t *testing.T) {
	b := pdftest.New("1.5")
	b.Object(1, 0, "<< /Type /Catalog /Pages 2 0 R >>")
	b.ObjectStream(4, map[int]string{7: "(hidden)"})
	stmOff := b.XRefStream(8, "/Root 1 0 R")

	// the classic section marks 7 free; its /XRefStm says compressed
	b.Free(7, 1)
	b.Object(9, 0, "(classic)")
	b.XRef(fmt.Sprintf("/Size 10 /Root 1 0 R /XRefStm %d", stmOff))

	table := buildXRef(t, b.Bytes())
	if table.IsStream {
		t.Error("newest section is a classic table")
	}
	if e, _ := table.Get(7); e == nil || e.Type != XRefCompressed {
		t.Errorf("entry 7 = %+v, want the /XRefStm entry", e)
	}
	if e, _ := table.Get(9); e == nil || e.Type != XRefInUse {
		t.Errorf("entry 9 = %+v, want in use", e)
	}
	if e, _ := table.Get(1); e == nil {
		t.Error("entry 1 from the hidden stream is missing")
	}
}

func TestFindXRef(t *testing.T) {
	doc := pdftest.SimpleDocument("Hi", "T")

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"simple", doc, false},
		{"trailing junk beyond 1 KiB", append(append([]byte{}, doc...), bytes.Repeat([]byte("%junk\n"), 500)...), false},
		{"no startxref", []byte("%PDF-1.4\n1 0 obj null endobj\n"), true},
		{"offset outside file", []byte("%PDF-1.4\nstartxref\n99999\n%%EOF"), true},
		{"offset not a number", []byte("%PDF-1.4\nstartxref\nxref\n%%EOF"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, err := NewXRefParser(BytesSource(tt.data)).FindXRef()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got offset %d", off)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindXRef() error = %v", err)
			}
			if !bytes.HasPrefix(tt.data[off:], []byte("xref")) {
				t.Errorf("offset %d does not point at xref", off)
			}
		})
	}
}

func TestMergeXRefTables(t *testing.T) {
	older := NewXRefTable()
	older.Set(1, &XRefEntry{Type: XRefInUse, Offset: 10})
	older.Set(2, &XRefEntry{Type: XRefInUse, Offset: 20})
	older.Trailer = Dict{"Root": IndirectRef{Number: 1}, "Info": IndirectRef{Number: 9}}

	newer := NewXRefTable()
	newer.Set(2, &XRefEntry{Type: XRefInUse, Offset: 200})
	newer.Trailer = Dict{"Root": IndirectRef{Number: 3}}

	merged := MergeXRefTables(older, newer)
	if e, _ := merged.Get(2); e.Offset != 200 {
		t.Errorf("entry 2 offset = %d, want 200", e.Offset)
	}
	if e, _ := merged.Get(1); e.Offset != 10 {
		t.Errorf("entry 1 offset = %d, want 10", e.Offset)
	}
	if root, _ := merged.Trailer.GetIndirectRef("Root"); root.Number != 3 {
		t.Errorf("/Root = %v, want the newest", root)
	}
	if !merged.Trailer.Has("Info") {
		t.Error("/Info should be inherited")
	}
}
