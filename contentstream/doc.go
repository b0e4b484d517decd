// Package contentstream splits decoded page content into operations.
//
// Content streams hold the drawing instructions of a page as postfix
// operators and their operands:
//
//	parser := contentstream.NewParser(content)
//	ops, err := parser.Parse()
//	for _, op := range ops {
//	    fmt.Printf("Operator: %s, Operands: %v\n", op.Operator, op.Operands)
//	}
//
// Operands are core objects produced by the same lexer and parser used for
// the file body. Inline images (BI ... ID ... EI) become a single BI
// operation whose operand is a *core.Stream with abbreviated keys and filter
// names expanded, so it decodes like any other stream.
//
// Nothing here interprets fonts or graphics state. TextStrings returns the
// raw string operands of the text showing operators.
package contentstream
