package contentstream

import "github.com/tsawler/pdfgraph/core"

// TextStrings returns the string operands of the text showing operators
// (Tj, TJ, ' and ") in drawing order. The bytes are returned as written,
// still in the font's encoding. The elements of one TJ array are joined.
func TextStrings(ops []Operation) []string {
	var out []string
	for _, op := range ops {
		switch op.Operator {
		case "Tj", "'", "\"":
			if s, ok := lastString(op.Operands); ok {
				out = append(out, s)
			}
		case "TJ":
			if len(op.Operands) == 0 {
				continue
			}
			arr, ok := op.Operands[len(op.Operands)-1].(core.Array)
			if !ok {
				continue
			}
			var joined []byte
			for _, elem := range arr {
				if s, ok := elem.(core.String); ok {
					joined = append(joined, string(s)...)
				}
			}
			out = append(out, string(joined))
		}
	}
	return out
}

// InlineImages returns the images defined with BI ... ID ... EI.
func InlineImages(ops []Operation) []*core.Stream {
	var out []*core.Stream
	for _, op := range ops {
		if op.Operator != "BI" || len(op.Operands) != 1 {
			continue
		}
		if img, ok := op.Operands[0].(*core.Stream); ok {
			out = append(out, img)
		}
	}
	return out
}

func lastString(operands []core.Object) (string, bool) {
	if len(operands) == 0 {
		return "", false
	}
	s, ok := operands[len(operands)-1].(core.String)
	return string(s), ok
}
