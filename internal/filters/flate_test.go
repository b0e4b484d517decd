package filters

import (
	"bytes"
	"compress/zlib"
	"testing"
)

// zlibCompress is a helper function to compress data for testing
func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestFlateDecodeRoundTrip(t *testing.T) {
	for _, input := range []string{"", "Hello, World!", string(bytes.Repeat([]byte("abc\x00\xff"), 5000))} {
		got, err := FlateDecode(zlibCompress([]byte(input)), nil)
		if err != nil {
			t.Fatalf("FlateDecode() error = %v", err)
		}
		if string(got) != input {
			t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(input))
		}
	}
}

func TestFlateDecodeTruncated(t *testing.T) {
	// weakly compressible input so that half the stream carries real data
	input := make([]byte, 20000)
	seed := uint32(1)
	for i := range input {
		seed = seed*1664525 + 1013904223
		input[i] = ' ' + byte(seed>>24)%64
	}
	compressed := zlibCompress(input)

	got, err := FlateDecode(compressed[:len(compressed)/2], nil)
	if err != nil {
		t.Fatalf("truncated stream should yield partial output, got error %v", err)
	}
	if len(got) == 0 || !bytes.HasPrefix(input, got) {
		t.Errorf("expected a prefix of the input, got %d bytes", len(got))
	}
}

func TestFlateDecodeInvalid(t *testing.T) {
	if _, err := FlateDecode([]byte("not zlib data"), nil); err == nil {
		t.Error("expected error for invalid zlib data")
	}
}

func TestFlateDecodeWithPredictor(t *testing.T) {
	// two rows of 3 bytes, PNG Up on the second
	raw := []byte{0, 1, 2, 3, 2, 1, 1, 1}
	got, err := FlateDecode(zlibCompress(raw), Params{"Predictor": 12, "Columns": 3})
	if err != nil {
		t.Fatalf("FlateDecode() error = %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPNGPredictor(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		data   []byte
		want   []byte
	}{
		{"none", Params{"Predictor": 10, "Columns": 3}, []byte{0, 5, 6, 7}, []byte{5, 6, 7}},
		{"sub", Params{"Predictor": 11, "Columns": 3}, []byte{1, 1, 1, 1}, []byte{1, 2, 3}},
		{"up", Params{"Predictor": 12, "Columns": 3}, []byte{2, 1, 1, 1, 2, 1, 1, 1}, []byte{1, 1, 1, 2, 2, 2}},
		{"average", Params{"Predictor": 13, "Columns": 3}, []byte{3, 2, 2, 2}, []byte{2, 3, 3}},
		{"paeth", Params{"Predictor": 14, "Columns": 3}, []byte{4, 1, 1, 1}, []byte{1, 2, 3}},
		{"sub with rgb pixels", Params{"Predictor": 15, "Columns": 2, "Colors": 3}, []byte{1, 10, 20, 30, 1, 2, 3}, []byte{10, 20, 30, 11, 22, 33}},
		{"one bit per component", Params{"Predictor": 12, "Columns": 8, "BitsPerComponent": 1}, []byte{2, 0x0F, 2, 0x0F}, []byte{0x0F, 0x1E}},
		{"short final row", Params{"Predictor": 10, "Columns": 3}, []byte{0, 1, 2, 3, 0, 4}, []byte{1, 2, 3, 4}},
		{"identity", Params{"Predictor": 1}, []byte{9, 9}, []byte{9, 9}},
		{"empty", Params{"Predictor": 12, "Columns": 3}, []byte{}, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyPredictor(tt.data, tt.params)
			if err != nil {
				t.Fatalf("applyPredictor() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTIFFPredictor(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		data   []byte
		want   []byte
	}{
		{"8 bit gray", Params{"Predictor": 2, "Columns": 4}, []byte{1, 1, 1, 1}, []byte{1, 2, 3, 4}},
		{"8 bit rgb", Params{"Predictor": 2, "Columns": 2, "Colors": 3}, []byte{10, 20, 30, 1, 2, 3}, []byte{10, 20, 30, 11, 22, 33}},
		{"two rows", Params{"Predictor": 2, "Columns": 2}, []byte{5, 1, 7, 1}, []byte{5, 6, 7, 8}},
		{"16 bit", Params{"Predictor": 2, "Columns": 2, "BitsPerComponent": 16}, []byte{0x00, 0x01, 0x00, 0x02}, []byte{0x00, 0x01, 0x00, 0x03}},
		{"16 bit carry", Params{"Predictor": 2, "Columns": 2, "BitsPerComponent": 16}, []byte{0x00, 0xFF, 0x00, 0x01}, []byte{0x00, 0xFF, 0x01, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyPredictor(tt.data, tt.params)
			if err != nil {
				t.Fatalf("applyPredictor() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredictorErrors(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		data   []byte
	}{
		{"unsupported predictor", Params{"Predictor": 5}, []byte{1}},
		{"bad bits per component", Params{"Predictor": 12, "BitsPerComponent": 3}, []byte{0, 1}},
		{"bad png tag", Params{"Predictor": 12, "Columns": 1}, []byte{7, 1}},
		{"tiff with 4 bits", Params{"Predictor": 2, "BitsPerComponent": 4}, []byte{1}},
		{"zero columns", Params{"Predictor": 12, "Columns": 0}, []byte{0, 1}},
		{"row wider than data", Params{"Predictor": 12, "Columns": 1 << 46}, []byte{2, 1, 1, 1}},
		{"tiff row wider than data", Params{"Predictor": 2, "Columns": 5}, []byte{1, 2, 3, 4}},
		{"more colors than data", Params{"Predictor": 12, "Colors": 1 << 40}, []byte{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := applyPredictor(tt.data, tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		a, b, c byte
		want    byte
	}{
		{0, 0, 0, 0},
		{10, 0, 0, 10},
		{0, 10, 0, 10},
		{10, 20, 10, 20},
		{20, 10, 10, 20},
		{10, 10, 20, 10},
	}
	for _, tt := range tests {
		if got := paethPredictor(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paethPredictor(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestGetParams(t *testing.T) {
	params := Params{"Columns": 5, "Big": int64(7), "Float": 2.0, "Flag": true, "Bad": "x"}

	if got := getIntParam(params, "Columns", 1); got != 5 {
		t.Errorf("Columns = %d, want 5", got)
	}
	if got := getIntParam(params, "Big", 1); got != 7 {
		t.Errorf("Big = %d, want 7", got)
	}
	if got := getIntParam(params, "Float", 1); got != 2 {
		t.Errorf("Float = %d, want 2", got)
	}
	if got := getIntParam(params, "Bad", 1); got != 1 {
		t.Errorf("Bad = %d, want default 1", got)
	}
	if got := getIntParam(nil, "Columns", 3); got != 3 {
		t.Errorf("nil params = %d, want 3", got)
	}
	if !getBoolParam(params, "Flag", false) {
		t.Error("Flag should be true")
	}
	if getBoolParam(params, "Bad", false) {
		t.Error("non-bool value should return the default")
	}
}
