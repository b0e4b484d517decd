package core

import (
	"bytes"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF         TokenType = iota
	TokenError                 // malformed input; Err describes it
	TokenKeyword               // obj, endobj, stream, endstream, xref, trailer, startxref, true, false, null, ...
	TokenInteger               // 123
	TokenReal                  // 3.14
	TokenString                // (hello)
	TokenHexString             // <48656C6C6F>
	TokenName                  // /Type
	TokenArrayStart            // [
	TokenArrayEnd              // ]
	TokenDictStart             // <<
	TokenDictEnd               // >>
	TokenBraceOpen             // {
	TokenBraceClose            // }
	TokenIndirectRef           // R (after two numbers)
)

var tokenTypeNames = [...]string{
	TokenEOF:         "EOF",
	TokenError:       "Error",
	TokenKeyword:     "Keyword",
	TokenInteger:     "Integer",
	TokenReal:        "Real",
	TokenString:      "String",
	TokenHexString:   "HexString",
	TokenName:        "Name",
	TokenArrayStart:  "ArrayStart",
	TokenArrayEnd:    "ArrayEnd",
	TokenDictStart:   "DictStart",
	TokenDictEnd:     "DictEnd",
	TokenBraceOpen:   "BraceOpen",
	TokenBraceClose:  "BraceClose",
	TokenIndirectRef: "R",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "Unknown"
}

// Token is a lexical token. Value holds the decoded payload: string and
// hex-string bytes after unescaping, names without the slash and #xx escapes
// applied, numbers and keywords as written.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // offset of the first byte
	End   int64 // offset just past the last byte
	Err   *LexError
}

// Is reports whether the token is the given keyword.
func (t Token) Is(keyword string) bool {
	return t.Type == TokenKeyword && string(t.Value) == keyword
}

const lexWindow = 4096

// Lexer tokenizes PDF object syntax from a Source. It reads the source through
// a small window, so only the byte ranges actually tokenized are fetched, and
// it can be repositioned to any offset with Seek.
type Lexer struct {
	src      Source
	size     int64
	pos      int64
	buf      []byte
	bufStart int64
	strict   bool
}

// NewLexer creates a lexer positioned at the start of src
func NewLexer(src Source) *Lexer {
	return &Lexer{src: src, size: src.Size()}
}

// NewLexerBytes creates a lexer over an in-memory buffer
func NewLexerBytes(data []byte) *Lexer {
	return NewLexer(BytesSource(data))
}

// SetStrictNumbers makes non-conforming numbers produce error tokens.
func (l *Lexer) SetStrictNumbers(strict bool) {
	l.strict = strict
}

// Seek moves the lexer to an absolute offset.
func (l *Lexer) Seek(offset int64) {
	l.pos = offset
}

// Pos returns the current offset.
func (l *Lexer) Pos() int64 {
	return l.pos
}

// Source returns the underlying source.
func (l *Lexer) Source() Source {
	return l.src
}

// byteAt returns the byte at p, paging in a new window when needed.
func (l *Lexer) byteAt(p int64) (byte, bool) {
	if p < 0 || p >= l.size {
		return 0, false
	}
	if p < l.bufStart || p >= l.bufStart+int64(len(l.buf)) {
		data, _ := readRange(l.src, p, lexWindow)
		if len(data) == 0 {
			return 0, false
		}
		l.buf = data
		l.bufStart = p
	}
	return l.buf[p-l.bufStart], true
}

func (l *Lexer) peek() (byte, bool) {
	return l.byteAt(l.pos)
}

func (l *Lexer) peekAt(n int64) (byte, bool) {
	return l.byteAt(l.pos + n)
}

func (l *Lexer) readByte() (byte, bool) {
	b, ok := l.byteAt(l.pos)
	if ok {
		l.pos++
	}
	return b, ok
}

// raw returns the source bytes in [from, to).
func (l *Lexer) raw(from, to int64) []byte {
	if to <= from {
		return nil
	}
	data, _ := readRange(l.src, from, int(to-from))
	return data
}

func (l *Lexer) errorToken(start int64, msg string) Token {
	if l.pos == start {
		// always make progress past the offending byte
		l.pos++
	}
	raw := l.raw(start, l.pos)
	return Token{
		Type: TokenError,
		Pos:  start,
		End:  l.pos,
		Err:  &LexError{Offset: start, Raw: raw, Msg: msg},
	}
}

func (l *Lexer) token(typ TokenType, value []byte, start int64) Token {
	return Token{Type: typ, Value: value, Pos: start, End: l.pos}
}

// NextToken returns the next token. Whitespace and comments are skipped.
// Malformed input produces a TokenError and the lexer moves past it, so the
// caller decides whether to continue.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	start := l.pos
	b, ok := l.peek()
	if !ok {
		return Token{Type: TokenEOF, Pos: start, End: start}
	}

	switch b {
	case '[':
		l.pos++
		return l.token(TokenArrayStart, []byte{'['}, start)
	case ']':
		l.pos++
		return l.token(TokenArrayEnd, []byte{']'}, start)
	case '{':
		l.pos++
		return l.token(TokenBraceOpen, []byte{'{'}, start)
	case '}':
		l.pos++
		return l.token(TokenBraceClose, []byte{'}'}, start)
	case '(':
		return l.readString()
	case '<':
		if next, ok := l.peekAt(1); ok && next == '<' {
			l.pos += 2
			return l.token(TokenDictStart, []byte("<<"), start)
		}
		return l.readHexString()
	case '>':
		if next, ok := l.peekAt(1); ok && next == '>' {
			l.pos += 2
			return l.token(TokenDictEnd, []byte(">>"), start)
		}
		return l.errorToken(start, "unexpected '>'")
	case ')':
		return l.errorToken(start, "unbalanced ')'")
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}

	return l.readKeyword()
}

// skipWhitespaceAndComments skips PDF whitespace and "%..." comments
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		b, ok := l.peek()
		if !ok {
			return
		}
		switch {
		case isWhitespace(b):
			l.pos++
		case b == '%':
			for {
				c, ok := l.readByte()
				if !ok || c == '\n' || c == '\r' {
					break
				}
			}
		default:
			return
		}
	}
}

// readString reads a literal string (hello), honouring nested parentheses
// and backslash escapes.
func (l *Lexer) readString() Token {
	start := l.pos
	l.pos++ // (

	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		b, ok := l.readByte()
		if !ok {
			return l.errorToken(start, "unterminated literal string")
		}

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\r':
			// an unescaped end-of-line reads as a single LF
			if next, ok := l.peek(); ok && next == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		case '\\':
			next, ok := l.readByte()
			if !ok {
				return l.errorToken(start, "unterminated literal string")
			}
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(next)
			case '\r':
				// line continuation
				if peek, ok := l.peek(); ok && peek == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := int(next - '0')
				for i := 0; i < 2; i++ {
					peek, ok := l.peek()
					if !ok || !isOctalDigit(peek) {
						break
					}
					l.pos++
					val = val*8 + int(peek-'0')
				}
				buf.WriteByte(byte(val))
			default:
				// unknown escape: the backslash is dropped
				buf.WriteByte(next)
			}
		default:
			buf.WriteByte(b)
		}
	}

	return l.token(TokenString, buf.Bytes(), start)
}

// readHexString reads <48656C6C6F>. Whitespace is ignored and an odd number
// of digits is completed with a trailing zero.
func (l *Lexer) readHexString() Token {
	start := l.pos
	l.pos++ // <

	var out []byte
	var hi byte
	half := false
	bad := false
	for {
		b, ok := l.readByte()
		if !ok {
			return l.errorToken(start, "unterminated hex string")
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			bad = true
			continue
		}
		if half {
			out = append(out, hi<<4|hexValue(b))
		} else {
			hi = hexValue(b)
		}
		half = !half
	}
	if bad {
		return l.errorToken(start, "invalid digit in hex string")
	}
	if half {
		out = append(out, hi<<4)
	}
	return l.token(TokenHexString, out, start)
}

// readName reads a name object /Type, applying #xx escapes
func (l *Lexer) readName() Token {
	start := l.pos
	l.pos++ // /

	var buf bytes.Buffer
	for {
		b, ok := l.peek()
		if !ok || isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' {
			h1, ok1 := l.peek()
			h2, ok2 := l.peekAt(1)
			if ok1 && ok2 && isHexDigit(h1) && isHexDigit(h2) {
				l.pos += 2
				buf.WriteByte(hexValue(h1)<<4 | hexValue(h2))
				continue
			}
			// pre-1.2 names may contain a literal '#'
		}
		buf.WriteByte(b)
	}

	return l.token(TokenName, buf.Bytes(), start)
}

// readNumber reads an integer or real number. PDF has no exponent notation
// and allows a single sign; anything else is an error token in strict mode
// and repaired otherwise.
func (l *Lexer) readNumber() Token {
	start := l.pos
	var buf bytes.Buffer

	signs := 0
	negative := false
	for {
		b, ok := l.peek()
		if !ok || (b != '-' && b != '+') {
			break
		}
		if signs == 0 {
			negative = b == '-'
		}
		signs++
		l.pos++
	}
	if negative {
		buf.WriteByte('-')
	}

	digits := 0
	hasDecimal := false
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if b == '.' {
			if hasDecimal {
				break
			}
			hasDecimal = true
		} else if isDigit(b) {
			digits++
		} else {
			break
		}
		l.pos++
		buf.WriteByte(b)
	}

	hasExponent := false
	if e, ok := l.peek(); ok && (e == 'e' || e == 'E') && digits > 0 {
		n := int64(1)
		if s, ok := l.peekAt(1); ok && (s == '-' || s == '+') {
			n = 2
		}
		if d, ok := l.peekAt(n); ok && isDigit(d) {
			hasExponent = true
			for i := int64(0); i < n; i++ {
				c, _ := l.readByte()
				buf.WriteByte(c)
			}
			for {
				d, ok := l.peek()
				if !ok || !isDigit(d) {
					break
				}
				l.pos++
				buf.WriteByte(d)
			}
		}
	}

	if l.strict {
		switch {
		case signs > 1:
			return l.errorToken(start, "multiple signs in number")
		case digits == 0:
			return l.errorToken(start, "number without digits")
		case hasExponent:
			return l.errorToken(start, "exponent in number")
		}
	}

	if digits == 0 {
		return l.token(TokenInteger, []byte("0"), start)
	}
	if hasDecimal || hasExponent {
		return l.token(TokenReal, buf.Bytes(), start)
	}
	return l.token(TokenInteger, buf.Bytes(), start)
}

// readKeyword reads a bare word (true, false, null, R, obj, endobj, ...)
func (l *Lexer) readKeyword() Token {
	start := l.pos
	for {
		b, ok := l.peek()
		if !ok || isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		return l.errorToken(start, "unexpected character")
	}

	value := l.raw(start, l.pos)
	if len(value) == 1 && value[0] == 'R' {
		return l.token(TokenIndirectRef, value, start)
	}
	return l.token(TokenKeyword, value, start)
}

// Helper functions

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
