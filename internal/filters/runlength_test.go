package filters

import (
	"bytes"
	"testing"
)

func TestRunLengthDecode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"literal", []byte{2, 'a', 'b', 'c', 128}, []byte("abc")},
		{"repeat", []byte{254, 'x', 128}, []byte("xxx")},
		{"mixed", []byte{0, 'a', 255, 'b', 1, 'c', 'd', 128}, []byte("abbcd")},
		{"no EOD", []byte{1, 'h', 'i'}, []byte("hi")},
		{"data after EOD ignored", []byte{0, 'a', 128, 0, 'b'}, []byte("a")},
		{"longest repeat", []byte{129, 'z'}, bytes.Repeat([]byte("z"), 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RunLengthDecode(tt.input)
			if err != nil {
				t.Fatalf("RunLengthDecode() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunLengthDecodeTruncated(t *testing.T) {
	for _, input := range [][]byte{{5, 'a'}, {200}} {
		if _, err := RunLengthDecode(input); err == nil {
			t.Errorf("%v: expected error", input)
		}
	}
}
