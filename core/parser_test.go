package core

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseOne(t *testing.T, input string) Object {
	t.Helper()
	obj, err := NewParserBytes([]byte(input)).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(%q): %v", input, err)
	}
	return obj
}

func TestParserPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Object
	}{
		{"null", "null", Null{}},
		{"true", "true", Bool(true)},
		{"false", "false", Bool(false)},
		{"int", "42", Int(42)},
		{"negative int", "-7", Int(-7)},
		{"real", "3.5", Real(3.5)},
		{"leading dot", ".5", Real(0.5)},
		{"string", "(Hello World)", String("Hello World")},
		{"hex string", "<48656C6C6F>", String("Hello")},
		{"name", "/Type", Name("Type")},
		{"reference", "12 0 R", IndirectRef{Number: 12, Generation: 0}},
		{"integer overflow becomes real", "99999999999999999999", Real(99999999999999999999)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, parseOne(t, tt.input)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParserArray(t *testing.T) {
	obj := parseOne(t, "[1 2.5 /Name (str) [3 4] << /K 5 >> 7 0 R null]")
	want := Array{
		Int(1), Real(2.5), Name("Name"), String("str"),
		Array{Int(3), Int(4)},
		Dict{"K": Int(5)},
		IndirectRef{Number: 7},
		Null{},
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParserDict(t *testing.T) {
	obj := parseOne(t, "<< /Type /Page /Count 3 /Kids [4 0 R 5 0 R] /Empty null /Nested << /A (x) >> >>")
	want := Dict{
		"Type":   Name("Page"),
		"Count":  Int(3),
		"Kids":   Array{IndirectRef{Number: 4}, IndirectRef{Number: 5}},
		"Nested": Dict{"A": String("x")},
	}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParserDictKeyWithoutValue(t *testing.T) {
	obj := parseOne(t, "<< /A 1 /B >>")
	if diff := cmp.Diff(Dict{"A": Int(1)}, obj); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParserReferenceLookahead(t *testing.T) {
	// two integers not followed by R stay integers
	obj := parseOne(t, "[1 2 3 0 R 4]")
	want := Array{Int(1), Int(2), IndirectRef{Number: 3}, Int(4)}
	if diff := cmp.Diff(want, obj); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"unterminated array", "[1 2"},
		{"unterminated dict", "<< /A 1"},
		{"array closed by dict end", "[1 >>"},
		{"non-name key", "<< 1 2 >>"},
		{"unexpected keyword", "endobj"},
		{"object zero reference", "0 0 R"},
		{"generation out of range", "1 70000 R"},
		{"lex error", ")"},
		{"dict hits endobj", "<< /A 1 endobj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserBytes([]byte(tt.input)).ParseObject()
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestParserEOFWrapsIOEOF(t *testing.T) {
	_, err := NewParserBytes(nil).ParseObject()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF in chain, got %v", err)
	}
}

func TestParserLexErrorCarried(t *testing.T) {
	_, err := NewParserBytes([]byte("<ZZ>")).ParseObject()
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LexError in chain, got %v", err)
	}
	if le.Offset != 0 {
		t.Errorf("expected offset 0, got %d", le.Offset)
	}
}

func TestParserStrictNumbers(t *testing.T) {
	p := NewParserBytes([]byte("1e5"))
	p.SetLeniency(Leniency{StrictNumbers: true})
	if _, err := p.ParseObject(); err == nil {
		t.Error("expected error for exponent in strict mode")
	}

	if obj := parseOne(t, "1e5"); obj != Real(1e5) {
		t.Errorf("expected 1e5 in lenient mode, got %v", obj)
	}
}

func TestParserNestingLimit(t *testing.T) {
	deepest := strings.Repeat("[", MaxNestingDepth) + strings.Repeat("]", MaxNestingDepth)
	p := NewParserBytes([]byte(deepest + " " + deepest))
	for i := 0; i < 2; i++ {
		if _, err := p.ParseObject(); err != nil {
			t.Fatalf("object %d at the limit: unexpected error %v", i, err)
		}
	}

	tests := []struct {
		name  string
		input string
	}{
		{"arrays", strings.Repeat("[", 1_000_000)},
		{"dictionaries", strings.Repeat("<< /K ", 1_000_000)},
		{"one past the limit", strings.Repeat("[", MaxNestingDepth+1) + strings.Repeat("]", MaxNestingDepth+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParserBytes([]byte(tt.input)).ParseObject()
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestParserIndirectObject(t *testing.T) {
	p := NewParserBytes([]byte("7 2 obj\n<< /Type /Catalog /Pages 3 0 R >>\nendobj\n"))
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Ref != (IndirectRef{Number: 7, Generation: 2}) {
		t.Errorf("expected 7 2, got %v", obj.Ref)
	}
	want := Dict{"Type": Name("Catalog"), "Pages": IndirectRef{Number: 3}}
	if diff := cmp.Diff(want, obj.Object); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParserMultipleObjects(t *testing.T) {
	p := NewParserBytes([]byte("1 0 obj 10 endobj 2 0 obj (two) endobj 3 0 obj endobj"))
	want := []Object{Int(10), String("two"), Null{}}
	for i, w := range want {
		obj, err := p.ParseIndirectObject()
		if err != nil {
			t.Fatalf("object %d: %v", i+1, err)
		}
		if obj.Ref.Number != i+1 {
			t.Errorf("expected object %d, got %d", i+1, obj.Ref.Number)
		}
		if diff := cmp.Diff(w, obj.Object); diff != "" {
			t.Errorf("object %d mismatch (-want +got):\n%s", i+1, diff)
		}
	}
}

func TestParserMissingEndobj(t *testing.T) {
	p := NewParserBytes([]byte("1 0 obj (one)\n2 0 obj (two) endobj"))
	first, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("missing endobj should be tolerated: %v", err)
	}
	if first.Object != String("one") {
		t.Errorf("expected (one), got %v", first.Object)
	}
	second, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Ref.Number != 2 {
		t.Errorf("expected object 2, got %d", second.Ref.Number)
	}

	_, err = NewParserBytes([]byte("1 0 obj (one) /Junk")).ParseIndirectObject()
	if err == nil {
		t.Error("expected error when endobj is replaced by other content")
	}
}

func TestParserIndirectObjectHeaderErrors(t *testing.T) {
	for _, input := range []string{"x 0 obj 1 endobj", "1 x obj 1 endobj", "1 0 foo 1 endobj"} {
		if _, err := NewParserBytes([]byte(input)).ParseIndirectObject(); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}

func TestParseStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		data  string
	}{
		{"LF", "1 0 obj\n<< /Length 5 >>\nstream\nHello\nendstream\nendobj", "Hello"},
		{"CRLF", "1 0 obj\r\n<< /Length 5 >>\r\nstream\r\nHello\r\nendstream\r\nendobj", "Hello"},
		{"no EOL before endstream", "1 0 obj << /Length 5 >> stream\nHelloendstream endobj", "Hello"},
		{"length too long", "1 0 obj << /Length 50 >> stream\nHello\nendstream endobj", "Hello"},
		{"length too short", "1 0 obj << /Length 2 >> stream\nHello\nendstream endobj", "Hello"},
		{"no length", "1 0 obj << >> stream\r\nHello\r\nendstream endobj", "Hello"},
		{"binary body", "1 0 obj << /Length 6 >> stream\n)(<<\x00\xff\nendstream endobj", ")(<<\x00\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := NewParserBytes([]byte(tt.input)).ParseIndirectObject()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			stream, ok := obj.Object.(*Stream)
			if !ok {
				t.Fatalf("expected *Stream, got %T", obj.Object)
			}
			if string(stream.Data) != tt.data {
				t.Errorf("expected data %q, got %q", tt.data, stream.Data)
			}
		})
	}
}

func TestParseStreamOffset(t *testing.T) {
	input := "1 0 obj << /Length 3 >> stream\nabc\nendstream endobj"
	obj, err := NewParserBytes([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stream := obj.Object.(*Stream)
	if want := int64(31); stream.Offset != want {
		t.Errorf("expected body offset %d, got %d", want, stream.Offset)
	}
}

type mapResolver map[IndirectRef]Object

func (m mapResolver) ResolveReference(ref IndirectRef) (Object, error) {
	if obj, ok := m[ref]; ok {
		return obj, nil
	}
	return nil, ErrObjectMissing
}

func TestParseStreamWithIndirectLength(t *testing.T) {
	// an unresolvable length falls back to scanning for endstream
	input := "1 0 obj << /Length 9 0 R >> stream\nabc\nendstream endobj"
	obj, err := NewParserBytes([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(obj.Object.(*Stream).Data); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}

	p := NewParserBytes([]byte(input))
	p.SetReferenceResolver(mapResolver{{Number: 9}: Int(3)})
	obj, err = p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(obj.Object.(*Stream).Data); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
}

func TestParseStreamResolvedLength(t *testing.T) {
	input := "1 0 obj << /Length 2 0 R >> stream\nab endstream\nendstream endobj"
	p := NewParserBytes([]byte(input))
	p.SetReferenceResolver(mapResolver{{Number: 2}: Int(12)})
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(obj.Object.(*Stream).Data); got != "ab endstream" {
		t.Errorf("expected %q, got %q", "ab endstream", got)
	}
}

func TestParseStreamErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no endstream", "1 0 obj << /Length 5 >> stream\nHello"},
		{"stream after non-dict", "1 0 obj [1 2] stream\nabc\nendstream endobj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParserBytes([]byte(tt.input)).ParseIndirectObject(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParserAt(t *testing.T) {
	data := []byte("garbage garbage 5 0 obj /Here endobj")
	p := NewParserAt(BytesSource(data), 16)
	obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Object != Name("Here") {
		t.Errorf("expected /Here, got %v", obj.Object)
	}
}
