// Package filters implements the decoding side of the PDF stream filters.
//
// Each filter is a plain function from encoded bytes to decoded bytes:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 5})
//
// FlateDecode and LZWDecode honour the predictor parameters (Predictor,
// Colors, BitsPerComponent, Columns): 2 selects TIFF Predictor 2, 10 through
// 15 select PNG row filtering. LZWDecode also reads EarlyChange.
//
// ASCIIHexDecode, ASCII85Decode and RunLengthDecode take no parameters.
// CCITTFaxDecode reads K, Columns, Rows, BlackIs1 and EncodedByteAlign.
//
// Params values are Go primitives (int, float64, bool, string); the core
// package converts dictionary entries before calling in.
package filters
