package core

import (
	"bytes"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references. The parser uses it to read
// a stream's /Length when the length is stored as a separate object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// MaxNestingDepth bounds how deeply arrays and dictionaries may nest.
const MaxNestingDepth = 512

// Parser builds Objects from the token stream of a Lexer. Tokens are pulled
// lazily, so the lexer never runs over binary stream data.
type Parser struct {
	lexer    *Lexer
	tokens   []Token // lookahead
	resolver ReferenceResolver
	leniency Leniency
	depth    int // open arrays and dictionaries
}

// NewParser creates a parser positioned at the start of src
func NewParser(src Source) *Parser {
	return NewParserAt(src, 0)
}

// NewParserAt creates a parser positioned at offset within src
func NewParserAt(src Source, offset int64) *Parser {
	l := NewLexer(src)
	l.Seek(offset)
	return &Parser{lexer: l, leniency: DefaultLeniency()}
}

// NewParserBytes creates a parser over an in-memory buffer
func NewParserBytes(data []byte) *Parser {
	return NewParser(BytesSource(data))
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// SetLeniency sets the edge-case policy for this parser and its lexer.
func (p *Parser) SetLeniency(l Leniency) {
	p.leniency = l
	p.lexer.SetStrictNumbers(l.StrictNumbers)
}

// Seek repositions the parser at an absolute offset, dropping any lookahead.
func (p *Parser) Seek(offset int64) {
	p.tokens = p.tokens[:0]
	p.lexer.Seek(offset)
}

// Pos returns the offset of the next unconsumed token.
func (p *Parser) Pos() int64 {
	if len(p.tokens) > 0 {
		return p.tokens[0].Pos
	}
	return p.lexer.Pos()
}

// peek returns the n-th token ahead without consuming it.
func (p *Parser) peek(n int) Token {
	for len(p.tokens) <= n {
		p.tokens = append(p.tokens, p.lexer.NextToken())
	}
	return p.tokens[n]
}

// next consumes and returns the next token.
func (p *Parser) next() Token {
	tok := p.peek(0)
	p.tokens = p.tokens[1:]
	return tok
}

// PeekToken returns the next token without consuming it.
func (p *Parser) PeekToken() Token {
	return p.peek(0)
}

// NextToken consumes and returns the next token. Together with PeekToken it
// lets callers handle syntax outside the object grammar, such as content
// stream operators.
func (p *Parser) NextToken() Token {
	return p.next()
}

// ParseObject parses the next direct object: null, boolean, number, string,
// name, array, dictionary or indirect reference.
func (p *Parser) ParseObject() (Object, error) {
	tok := p.next()

	switch tok.Type {
	case TokenEOF:
		return nil, &ParseError{Offset: tok.Pos, Msg: "unexpected end of input", Err: io.EOF}

	case TokenError:
		return nil, &ParseError{Offset: tok.Pos, Msg: "malformed token", Err: tok.Err}

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, parseErrorf(tok.Pos, "unexpected keyword %q", tok.Value)

	case TokenInteger:
		return p.parseNumber(tok)

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, &ParseError{Offset: tok.Pos, Msg: "invalid real number", Err: err}
		}
		return Real(val), nil

	case TokenString, TokenHexString:
		return String(tok.Value), nil

	case TokenName:
		return Name(tok.Value), nil

	case TokenArrayStart, TokenDictStart:
		if p.depth >= MaxNestingDepth {
			return nil, parseErrorf(tok.Pos, "containers nested deeper than %d", MaxNestingDepth)
		}
		p.depth++
		defer func() { p.depth-- }()
		if tok.Type == TokenArrayStart {
			return p.parseArray(tok)
		}
		return p.parseDict(tok)
	}

	return nil, parseErrorf(tok.Pos, "unexpected token %v", tok.Type)
}

// parseNumber parses an integer or, with two tokens of lookahead, an
// indirect reference "num gen R".
func (p *Parser) parseNumber(tok Token) (Object, error) {
	n, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		if p.leniency.StrictNumbers {
			return nil, &ParseError{Offset: tok.Pos, Msg: "integer out of range", Err: err}
		}
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, &ParseError{Offset: tok.Pos, Msg: "invalid number", Err: ferr}
		}
		return Real(f), nil
	}

	if p.peek(0).Type == TokenInteger && p.peek(1).Type == TokenIndirectRef {
		genTok := p.next()
		p.next() // R
		gen, err := strconv.ParseInt(string(genTok.Value), 10, 64)
		if err != nil {
			return nil, &ParseError{Offset: genTok.Pos, Msg: "invalid generation number", Err: err}
		}
		if n <= 0 || n > 1<<32-1 || gen < 0 || gen > 1<<16-1 {
			return nil, parseErrorf(tok.Pos, "invalid reference %d %d R", n, gen)
		}
		return IndirectRef{Number: int(n), Generation: int(gen)}, nil
	}

	return Int(n), nil
}

// structural keywords that can never appear inside an array or dictionary;
// meeting one means the container was never closed
func isObjectBoundary(tok Token) bool {
	if tok.Type == TokenEOF {
		return true
	}
	if tok.Type != TokenKeyword {
		return false
	}
	switch string(tok.Value) {
	case "obj", "endobj", "stream", "endstream", "xref", "trailer", "startxref":
		return true
	}
	return false
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray(open Token) (Object, error) {
	arr := Array{}
	for {
		tok := p.peek(0)
		if tok.Type == TokenArrayEnd {
			p.next()
			return arr, nil
		}
		if isObjectBoundary(tok) || tok.Type == TokenDictEnd {
			return nil, parseErrorf(open.Pos, "unterminated array (found %v at offset %d)", tok.Type, tok.Pos)
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDict parses a PDF dictionary "<< /Key value ... >>". Entries whose
// value is null are dropped, which the format defines as equivalent.
func (p *Parser) parseDict(open Token) (Object, error) {
	dict := make(Dict)
	for {
		tok := p.peek(0)
		if tok.Type == TokenDictEnd {
			p.next()
			return dict, nil
		}
		if isObjectBoundary(tok) || tok.Type == TokenArrayEnd {
			return nil, parseErrorf(open.Pos, "unterminated dictionary (found %v at offset %d)", tok.Type, tok.Pos)
		}
		if tok.Type != TokenName {
			return nil, parseErrorf(tok.Pos, "expected name for dictionary key, got %v", tok.Type)
		}
		p.next()
		key := string(tok.Value)

		// "<< /Key >>": a key with no value
		if p.peek(0).Type == TokenDictEnd {
			continue
		}

		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		if _, isNull := value.(Null); isNull {
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition.
// Format: "num gen obj <object> endobj" or "num gen obj <dict> stream ... endstream endobj"
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	numTok := p.next()
	if numTok.Type != TokenInteger {
		return nil, parseErrorf(numTok.Pos, "expected object number, got %v", numTok.Type)
	}
	genTok := p.next()
	if genTok.Type != TokenInteger {
		return nil, parseErrorf(genTok.Pos, "expected generation number, got %v", genTok.Type)
	}
	objTok := p.next()
	if !objTok.Is("obj") {
		return nil, parseErrorf(objTok.Pos, "expected 'obj' keyword, got %v %q", objTok.Type, objTok.Value)
	}

	num, err := strconv.ParseInt(string(numTok.Value), 10, 64)
	if err != nil {
		return nil, &ParseError{Offset: numTok.Pos, Msg: "invalid object number", Err: err}
	}
	gen, err := strconv.ParseInt(string(genTok.Value), 10, 64)
	if err != nil {
		return nil, &ParseError{Offset: genTok.Pos, Msg: "invalid generation number", Err: err}
	}
	ref := IndirectRef{Number: int(num), Generation: int(gen)}

	var obj Object
	if p.peek(0).Is("endobj") {
		// "N G obj endobj" is an empty object
		obj = Null{}
	} else {
		obj, err = p.ParseObject()
		if err != nil {
			return nil, err
		}
	}

	if streamTok := p.peek(0); streamTok.Is("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, parseErrorf(streamTok.Pos, "stream must follow a dictionary, got %T", obj)
		}
		p.next()
		stream, err := p.parseStream(dict, streamTok)
		if err != nil {
			return nil, err
		}
		obj = stream
	}

	// A missing endobj is tolerated when the next token begins another
	// object or a file structure keyword.
	switch end := p.peek(0); {
	case end.Is("endobj"):
		p.next()
	case end.Type == TokenEOF, end.Type == TokenInteger,
		end.Is("xref"), end.Is("trailer"), end.Is("startxref"):
	default:
		return nil, parseErrorf(end.Pos, "expected 'endobj', got %v %q", end.Type, end.Value)
	}

	return &IndirectObject{Ref: ref, Object: obj}, nil
}

const endstreamKeyword = "endstream"

// parseStream reads the body of a stream whose "stream" keyword has just
// been consumed. The declared /Length is used when it can be resolved and
// lands on "endstream"; otherwise the body runs to the next "endstream".
func (p *Parser) parseStream(dict Dict, streamTok Token) (*Stream, error) {
	src := p.lexer.Source()
	dataStart := p.skipStreamEOL(streamTok.End)

	length := int64(-1)
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int64(v)
	case IndirectRef:
		if p.resolver != nil {
			if resolved, err := p.resolver.ResolveReference(v); err == nil {
				if n, ok := resolved.(Int); ok {
					length = int64(n)
				}
			}
		}
	}

	if length >= 0 && dataStart+length <= src.Size() {
		if end, ok := p.endstreamAt(dataStart + length); ok {
			data, err := readRange(src, dataStart, int(length))
			if err != nil {
				return nil, &ParseError{Offset: dataStart, Msg: "failed to read stream data", Err: err}
			}
			p.Seek(end)
			return &Stream{Dict: dict, Data: data, Offset: dataStart, resolver: p.resolver}, nil
		}
	}

	// Length missing, unresolvable or wrong: discover it.
	idx := indexFrom(src, dataStart, []byte(endstreamKeyword))
	if idx < 0 {
		return nil, parseErrorf(streamTok.Pos, "stream has no endstream")
	}
	data, err := readRange(src, dataStart, int(idx-dataStart))
	if err != nil {
		return nil, &ParseError{Offset: dataStart, Msg: "failed to read stream data", Err: err}
	}
	data = trimTrailingEOL(data)
	p.Seek(idx + int64(len(endstreamKeyword)))
	return &Stream{Dict: dict, Data: data, Offset: dataStart, resolver: p.resolver}, nil
}

// skipStreamEOL returns the offset of the first data byte after the stream
// keyword: the keyword is followed by CRLF or LF (a lone CR and stray spaces
// are accepted too).
func (p *Parser) skipStreamEOL(pos int64) int64 {
	l := p.lexer
	for {
		b, ok := l.byteAt(pos)
		if !ok || (b != ' ' && b != '\t') {
			break
		}
		pos++
	}
	b, ok := l.byteAt(pos)
	if !ok {
		return pos
	}
	switch b {
	case '\r':
		if next, ok := l.byteAt(pos + 1); ok && next == '\n' {
			return pos + 2
		}
		return pos + 1
	case '\n':
		return pos + 1
	}
	return pos
}

// endstreamAt reports whether "endstream" follows pos (after optional
// whitespace) and returns the offset just past it.
func (p *Parser) endstreamAt(pos int64) (int64, bool) {
	l := p.lexer
	for i := 0; i < 32; i++ {
		b, ok := l.byteAt(pos)
		if !ok || !isWhitespace(b) {
			break
		}
		pos++
	}
	got := l.raw(pos, pos+int64(len(endstreamKeyword)))
	if !bytes.Equal(got, []byte(endstreamKeyword)) {
		return 0, false
	}
	return pos + int64(len(endstreamKeyword)), true
}

func trimTrailingEOL(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}
	if n := len(data); n > 0 && data[n-1] == '\r' {
		data = data[:n-1]
	}
	return data
}
