package contentstream

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands. Operands are PDF objects that precede the operator.
type Operation struct {
	Operator string        // The operator (e.g., "Tj", "Tm", "q")
	Operands []core.Object // The operands
	Offset   int64         // Offset of the operator within the content
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	data     []byte
	parser   *core.Parser
	operands []core.Object
	ops      []Operation
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{
		data:   data,
		parser: core.NewParserBytes(data),
	}
}

// SetLeniency sets how malformed numbers are treated.
func (p *Parser) SetLeniency(l core.Leniency) {
	p.parser.SetLeniency(l)
}

// Parse parses the content stream and returns all operations in order.
// Operands left over at the end of the stream are dropped.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		tok := p.parser.PeekToken()
		switch {
		case tok.Type == core.TokenEOF:
			return p.ops, nil

		case tok.Type == core.TokenError:
			return nil, fmt.Errorf("content stream offset %d: %w", tok.Pos, tok.Err)

		case isOperator(tok):
			p.parser.NextToken()
			if err := p.operator(tok); err != nil {
				return nil, err
			}

		default:
			operand, err := p.parser.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("content stream operand: %w", err)
			}
			p.operands = append(p.operands, operand)
		}
	}
}

// isOperator reports whether tok is a bare word other than the object
// keywords true, false and null.
func isOperator(tok core.Token) bool {
	switch tok.Type {
	case core.TokenIndirectRef:
		return true
	case core.TokenKeyword:
		switch string(tok.Value) {
		case "true", "false", "null":
			return false
		}
		return true
	}
	return false
}

// operator records an operation with the pending operands.
func (p *Parser) operator(tok core.Token) error {
	op := Operation{
		Operator: string(tok.Value),
		Operands: p.operands,
		Offset:   tok.Pos,
	}
	p.operands = nil

	if op.Operator == "BI" {
		img, err := p.inlineImage(tok.Pos)
		if err != nil {
			return err
		}
		op.Operands = []core.Object{img}
	}
	p.ops = append(p.ops, op)
	return nil
}

// inlineImage reads "BI <key value pairs> ID <data> EI" into a stream whose
// dictionary uses the full key and filter names.
func (p *Parser) inlineImage(start int64) (*core.Stream, error) {
	dict := make(core.Dict)
	var dataStart int64
	for {
		tok := p.parser.PeekToken()
		if tok.Is("ID") {
			dataStart = tok.End
			break
		}
		if tok.Type != core.TokenName {
			return nil, fmt.Errorf("inline image at offset %d: expected key or ID, got %v %q", start, tok.Type, tok.Value)
		}
		p.parser.NextToken()
		value, err := p.parser.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("inline image at offset %d: %w", start, err)
		}
		key := string(tok.Value)
		if full, ok := inlineKeys[key]; ok {
			key = full
		}
		dict[key] = expandFilters(key, value)
	}

	// a single whitespace byte separates ID from the data
	pos := int(dataStart)
	if pos < len(p.data) && isWhitespace(p.data[pos]) {
		pos++
	}
	end, next := findEI(p.data, pos)
	if end < 0 {
		return nil, fmt.Errorf("inline image at offset %d: missing EI", start)
	}
	p.parser.Seek(int64(next))

	return &core.Stream{Dict: dict, Data: p.data[pos:end], Offset: int64(pos)}, nil
}

// findEI returns where the image data ends and where parsing resumes. The
// terminator is "EI" preceded by whitespace and followed by whitespace or the
// end of the content.
func findEI(data []byte, from int) (end, next int) {
	for i := from; i+2 <= len(data); {
		j := bytes.Index(data[i:], []byte("EI"))
		if j < 0 {
			return -1, -1
		}
		at := i + j
		after := at + 2
		if at > from && isWhitespace(data[at-1]) && (after == len(data) || isWhitespace(data[after]) || isDelimiter(data[after])) {
			return at - 1, after
		}
		i = at + 1
	}
	return -1, -1
}

var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"L":   "Length",
	"W":   "Width",
}

var inlineValues = map[core.Name]core.Name{
	"AHx":  "ASCIIHexDecode",
	"A85":  "ASCII85Decode",
	"LZW":  "LZWDecode",
	"Fl":   "FlateDecode",
	"RL":   "RunLengthDecode",
	"CCF":  "CCITTFaxDecode",
	"DCT":  "DCTDecode",
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
	"I":    "Indexed",
}

func expandFilters(key string, value core.Object) core.Object {
	if key != "Filter" && key != "ColorSpace" {
		return value
	}
	switch v := value.(type) {
	case core.Name:
		if full, ok := inlineValues[v]; ok {
			return full
		}
	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			out[i] = expandFilters(key, elem)
		}
		return out
	}
	return value
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' || c == '[' || c == ']' ||
		c == '{' || c == '}' || c == '/' || c == '%'
}
