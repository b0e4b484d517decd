// Package pdftest assembles small PDF files for tests. It tracks the byte
// offset of every object it writes, so cross-reference sections always point
// where they should.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
)

type entry struct {
	typ    int // 0 free, 1 in use, 2 compressed
	field2 int64
	field3 int
}

// Builder writes a PDF file incrementally. Objects written since the last
// cross-reference section are listed in the next one, which makes
// incremental updates a matter of writing more objects and another section.
type Builder struct {
	buf      bytes.Buffer
	pending  map[int]entry
	sections int
	lastXRef int64
}

// New starts a file with the given header version, e.g. "1.7".
func New(version string) *Builder {
	b := &Builder{pending: make(map[int]entry), lastXRef: -1}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

// Offset returns the current end of the file.
func (b *Builder) Offset() int64 {
	return int64(b.buf.Len())
}

// LastXRef returns the offset of the most recent cross-reference section.
func (b *Builder) LastXRef() int64 {
	return b.lastXRef
}

// Raw appends bytes as they are.
func (b *Builder) Raw(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// Object writes "num gen obj body endobj" and returns its offset.
func (b *Builder) Object(num, gen int, body string) int64 {
	off := b.Offset()
	fmt.Fprintf(&b.buf, "%d %d obj\n%s\nendobj\n", num, gen, body)
	b.pending[num] = entry{typ: 1, field2: off, field3: gen}
	return off
}

// Stream writes a stream object. dict holds the dictionary entries without
// the brackets; /Length is added.
func (b *Builder) Stream(num, gen int, dict string, data []byte) int64 {
	off := b.Offset()
	fmt.Fprintf(&b.buf, "%d %d obj\n<< %s /Length %d >>\nstream\n", num, gen, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	b.pending[num] = entry{typ: 1, field2: off, field3: gen}
	return off
}

// Free lists num as free in the next section.
func (b *Builder) Free(num, nextGen int) {
	b.pending[num] = entry{typ: 0, field3: nextGen}
}

// ObjectStream writes a FlateDecode object stream holding the given objects
// (number -> serialized value) and records compressed entries for them.
func (b *Builder) ObjectStream(num int, objects map[int]string) int64 {
	nums := make([]int, 0, len(objects))
	for n := range objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var header, body bytes.Buffer
	for _, n := range nums {
		fmt.Fprintf(&header, "%d %d ", n, body.Len())
		body.WriteString(objects[n])
		body.WriteByte('\n')
	}
	first := header.Len()
	header.Write(body.Bytes())

	off := b.Stream(num, 0, fmt.Sprintf("/Type /ObjStm /N %d /First %d /Filter /FlateDecode", len(nums), first), Deflate(header.Bytes()))
	for i, n := range nums {
		b.pending[n] = entry{typ: 2, field2: int64(num), field3: i}
	}
	return off
}

func (b *Builder) sortedPending() []int {
	nums := make([]int, 0, len(b.pending))
	for n := range b.pending {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// XRef writes a classic cross-reference section for the pending objects,
// then "trailer", the dictionary entries in trailer, startxref and %%EOF.
// The first section also lists object 0 as the head of the free list.
func (b *Builder) XRef(trailer string) int64 {
	if b.sections == 0 {
		if _, ok := b.pending[0]; !ok {
			b.pending[0] = entry{typ: 0, field3: 65535}
		}
	}
	off := b.Offset()
	b.buf.WriteString("xref\n")
	nums := b.sortedPending()
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&b.buf, "%d %d\n", nums[i], j-i+1)
		for _, n := range nums[i : j+1] {
			e := b.pending[n]
			flag := "n"
			if e.typ == 0 {
				flag = "f"
			}
			fmt.Fprintf(&b.buf, "%010d %05d %s \n", e.field2, e.field3, flag)
		}
		i = j + 1
	}
	fmt.Fprintf(&b.buf, "trailer\n<< %s >>\n", trailer)
	b.finishSection(off)
	return off
}

// XRefStream writes the pending entries as cross-reference stream object
// num with /W [1 4 2]. dict holds extra dictionary entries (/Root, /Prev...).
func (b *Builder) XRefStream(num int, dict string) int64 {
	off := b.Offset()
	b.pending[num] = entry{typ: 1, field2: off}
	if b.sections == 0 {
		if _, ok := b.pending[0]; !ok {
			b.pending[0] = entry{typ: 0, field3: 65535}
		}
	}

	nums := b.sortedPending()
	var index bytes.Buffer
	var data []byte
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&index, "%d %d ", nums[i], j-i+1)
		for _, n := range nums[i : j+1] {
			e := b.pending[n]
			data = append(data, byte(e.typ),
				byte(e.field2>>24), byte(e.field2>>16), byte(e.field2>>8), byte(e.field2),
				byte(e.field3>>8), byte(e.field3))
		}
		i = j + 1
	}

	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /W [1 4 2] /Index [%s] /Size %d %s /Length %d >>\nstream\n",
		num, bytes.TrimSpace(index.Bytes()), nums[len(nums)-1]+1, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	b.finishSection(off)
	return off
}

func (b *Builder) finishSection(off int64) {
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", off)
	b.pending = make(map[int]entry)
	b.sections++
	b.lastXRef = off
}

// Bytes returns the file written so far.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Deflate compresses data with zlib, as FlateDecode expects.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// SimpleDocument returns a complete single-page file whose content stream
// draws text, with an Info dictionary carrying the given title.
func SimpleDocument(text, title string) []byte {
	b := New("1.7")
	b.Object(1, 0, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Object(2, 0, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>")
	b.Object(3, 0, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>")
	b.Stream(4, 0, "/Filter /FlateDecode", Deflate([]byte(fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text))))
	b.Object(5, 0, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.Object(6, 0, fmt.Sprintf("<< /Title (%s) /Producer (pdftest) >>", title))
	b.XRef("/Size 7 /Root 1 0 R /Info 6 0 R")
	return b.Bytes()
}
