package reader

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// pdfDocDiffs lists the PDFDocEncoding code points that differ from
// ISO-8859-1.
var pdfDocDiffs = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0x9F: '�',
	0xA0: '€', 0xAD: '�',
}

// DecodeTextString converts a PDF text string to UTF-8. Strings starting
// with a UTF-16 byte order mark are decoded as UTF-16, strings with a UTF-8
// mark as UTF-8, anything else as PDFDocEncoding. The result is NFC
// normalized.
func DecodeTextString(s string) string {
	switch {
	case strings.HasPrefix(s, "\xfe\xff"), strings.HasPrefix(s, "\xff\xfe"):
		if len(s)%2 == 1 {
			s = s[:len(s)-1]
		}
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().String(s)
		if err != nil {
			return ""
		}
		return norm.NFC.String(decoded)
	case strings.HasPrefix(s, "\xef\xbb\xbf"):
		return norm.NFC.String(strings.ToValidUTF8(s[3:], "�"))
	}
	return norm.NFC.String(pdfDocDecode(s))
}

func pdfDocDecode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if r, ok := pdfDocDiffs[s[i]]; ok {
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(s[i]))
	}
	return sb.String()
}
