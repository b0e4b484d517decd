package filters

import (
	"fmt"
)

// applyPredictor undoes the prediction named by the Predictor parameter.
// 1 (or absent) is identity, 2 is TIFF Predictor 2, and 10-15 are the PNG
// predictors, where each row carries its own algorithm tag.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor != 2 && (predictor < 10 || predictor > 15):
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	case len(data) == 0:
		return data, nil
	case predictor == 2:
		return undoTIFFPredictor(data, params)
	}
	return undoPNGPredictor(data, params)
}

type sampleLayout struct {
	colors   int
	bpc      int
	columns  int
	rowBytes int // bytes per row, excluding any PNG tag byte
	pixel    int // bytes per complete pixel, rounded up
}

// layoutFromParams reads the sample layout and checks that one row fits in
// dataLen bytes.
func layoutFromParams(params Params, dataLen int) (sampleLayout, error) {
	l := sampleLayout{
		colors:  getIntParam(params, "Colors", 1),
		bpc:     getIntParam(params, "BitsPerComponent", 8),
		columns: getIntParam(params, "Columns", 1),
	}
	if l.colors < 1 || l.columns < 1 {
		return l, fmt.Errorf("invalid predictor parameters: colors %d, columns %d", l.colors, l.columns)
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return l, fmt.Errorf("invalid BitsPerComponent %d", l.bpc)
	}
	if l.colors > 8*dataLen {
		return l, fmt.Errorf("Colors %d exceeds %d bytes of data", l.colors, dataLen)
	}
	bitsPerPixel := l.colors * l.bpc
	if l.columns > 8*dataLen/bitsPerPixel {
		return l, fmt.Errorf("row of %d columns exceeds %d bytes of data", l.columns, dataLen)
	}
	l.rowBytes = (l.columns*bitsPerPixel + 7) / 8
	l.pixel = (bitsPerPixel + 7) / 8
	return l, nil
}

// undoTIFFPredictor reverses TIFF Predictor 2, where each sample is stored as
// the difference from the same component of the pixel to its left.
func undoTIFFPredictor(data []byte, params Params) ([]byte, error) {
	l, err := layoutFromParams(params, len(data))
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	copy(out, data)

	for start := 0; start < len(out); start += l.rowBytes {
		end := start + l.rowBytes
		if end > len(out) {
			end = len(out)
		}
		row := out[start:end]

		switch l.bpc {
		case 8:
			for i := l.colors; i < len(row); i++ {
				row[i] += row[i-l.colors]
			}
		case 16:
			stride := 2 * l.colors
			for i := stride; i+1 < len(row); i += 2 {
				prev := uint16(row[i-stride])<<8 | uint16(row[i-stride+1])
				cur := uint16(row[i])<<8 | uint16(row[i+1])
				cur += prev
				row[i], row[i+1] = byte(cur>>8), byte(cur)
			}
		default:
			return nil, fmt.Errorf("TIFF predictor does not support %d bits per component", l.bpc)
		}
	}
	return out, nil
}

// undoPNGPredictor reverses PNG row filtering. Each row starts with a tag
// byte: 0 None, 1 Sub, 2 Up, 3 Average, 4 Paeth. A short final row is
// decoded as far as it goes.
func undoPNGPredictor(data []byte, params Params) ([]byte, error) {
	l, err := layoutFromParams(params, len(data))
	if err != nil {
		return nil, err
	}

	stride := l.rowBytes + 1
	rows := (len(data) + stride - 1) / stride
	out := make([]byte, 0, rows*l.rowBytes)
	prev := make([]byte, l.rowBytes)
	cur := make([]byte, l.rowBytes)

	for r := 0; r < rows; r++ {
		chunk := data[r*stride:]
		if len(chunk) > stride {
			chunk = chunk[:stride]
		}
		if len(chunk) < 2 {
			break
		}
		tag := chunk[0]
		n := copy(cur, chunk[1:])
		row := cur[:n]

		switch tag {
		case 0:
		case 1:
			for i := l.pixel; i < n; i++ {
				row[i] += row[i-l.pixel]
			}
		case 2:
			for i := 0; i < n; i++ {
				row[i] += prev[i]
			}
		case 3:
			for i := 0; i < n; i++ {
				var left int
				if i >= l.pixel {
					left = int(row[i-l.pixel])
				}
				row[i] += byte((left + int(prev[i])) / 2)
			}
		case 4:
			for i := 0; i < n; i++ {
				var left, upLeft byte
				if i >= l.pixel {
					left = row[i-l.pixel]
					upLeft = prev[i-l.pixel]
				}
				row[i] += paethPredictor(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("unknown PNG predictor %d in row %d", tag, r)
		}

		out = append(out, row...)
		prev, cur = cur, prev
	}
	return out, nil
}

// paethPredictor picks whichever of left, above and upper-left is closest to
// left+above-upperLeft, as PNG filter type 4 does.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
