package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// LZWDecode decompresses LZW data. EarlyChange (default 1) selects whether
// the code width grows one code early, as most PDF writers do. Predictors
// apply as for FlateDecode.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	earlyChange := getIntParam(params, "EarlyChange", 1)

	rc := lzw.NewReader(bytes.NewReader(data), earlyChange == 1)
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil && buf.Len() == 0 {
		return nil, fmt.Errorf("lzw decompression failed: %w", err)
	}
	return applyPredictor(buf.Bytes(), params)
}
