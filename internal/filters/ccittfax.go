package filters

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

const maxCCITTColumns = 1 << 20

// CCITTFaxDecode decodes CCITT Group 3 or Group 4 fax data into packed
// 1-bit rows, most significant bit first.
//
// Parameters:
//   - K: negative for Group 4, zero or positive for Group 3
//   - Columns: width in pixels (default 1728)
//   - Rows: height in pixels; 0 lets the decoder stop at the end of data
//   - BlackIs1: when true 1 bits are black, so the decoder output is inverted
//   - EncodedByteAlign: rows start on byte boundaries
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)
	if columns <= 0 || columns > maxCCITTColumns || rows < 0 {
		return nil, fmt.Errorf("invalid CCITT dimensions %dx%d", columns, rows)
	}
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	sf := ccitt.Group3
	if getIntParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}

	opts := &ccitt.Options{
		Align:  getBoolParam(params, "EncodedByteAlign", false),
		Invert: getBoolParam(params, "BlackIs1", false),
	}

	out, err := io.ReadAll(ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts))
	if err != nil {
		return nil, fmt.Errorf("ccitt decode failed: %w", err)
	}
	return out, nil
}
