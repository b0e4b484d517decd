package filters

import "fmt"

// RunLengthDecode decodes the byte-oriented run-length encoding of
// RunLengthDecode. A length byte L in 0-127 copies the next L+1 bytes
// literally; 129-255 repeats the next byte 257-L times; 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(data); {
		l := int(data[i])
		i++
		switch {
		case l == 128:
			return out, nil
		case l < 128:
			n := l + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("run-length literal of %d bytes truncated at offset %d", n, i)
			}
			out = append(out, data[i:i+n]...)
			i += n
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run-length repeat truncated at offset %d", i)
			}
			b := data[i]
			i++
			for j := 0; j < 257-l; j++ {
				out = append(out, b)
			}
		}
	}
	return out, nil
}
