package filters

import (
	"bytes"
	"encoding/ascii85"
	"fmt"
)

// ASCIIHexDecode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits (0-9, A-F, a-f) represents one byte.
// Whitespace is ignored, > marks end of data, and an odd final digit is
// completed with a zero.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data)/2)

	var hi byte
	half := false
	for _, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, err := hexDigitToByte(c)
		if err != nil {
			return nil, err
		}
		if half {
			result = append(result, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		result = append(result, hi<<4)
	}
	return result, nil
}

// ASCII85Decode decodes ASCII base-85 encoded data. The optional "<~" prefix
// and the "~>" end-of-data marker are handled here; whitespace, the 'z'
// shorthand and a short final group are handled by encoding/ascii85.
func ASCII85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimLeft(data, " \t\r\n\f\x00")
	data = bytes.TrimPrefix(data, []byte("<~"))
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}

	dst := make([]byte, 4*len(data)/5+4)
	n, _, err := ascii85.Decode(dst, data, true)
	if err != nil {
		return nil, fmt.Errorf("invalid ASCII85 data: %w", err)
	}
	return dst[:n], nil
}

// hexDigitToByte converts a hexadecimal character to its numeric value (0-15).
func hexDigitToByte(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %q", c)
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
