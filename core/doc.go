// Package core provides low-level PDF parsing primitives and object types.
//
// # Object Types
//
// Every value in a PDF file is one of the types satisfying the Object
// interface:
//
//   - [Null], [Bool], [Int], [Real]
//   - [String] - literal or hexadecimal, kept as raw bytes
//   - [Name] - e.g. /Type, with #xx escapes applied
//   - [Array] and [Dict]
//   - [IndirectRef] - "5 0 R", also used as [ObjectID]
//   - [Stream] - a dictionary plus its undecoded body
//
// # Sources
//
// Input is read through a [Source], an io.ReaderAt with a known size. The
// [Lexer] pulls bytes through a small window, so only the ranges actually
// tokenized are read. [BytesSource] wraps a buffer.
//
// # Parsing
//
// [Parser] builds objects from the lexer's tokens, one direct object or one
// "N G obj ... endobj" definition at a time. Stream lengths given as
// references are resolved through a [ReferenceResolver].
//
// # Cross-Reference Tables
//
// [XRefParser] reads classic tables and cross-reference streams, follows
// /Prev and /XRefStm, and merges revisions so the newest entry wins.
// [Reconstruct] rebuilds a table by scanning for object headers when the
// recorded one cannot be used.
//
// # Object Streams
//
// [ObjectStream] unpacks the objects stored compressed inside an /ObjStm.
//
// # Stream Decoding
//
// [Stream.Decode] applies the /Filter chain: FlateDecode, LZWDecode,
// ASCIIHexDecode, ASCII85Decode, RunLengthDecode and CCITTFaxDecode, with
// predictors. Image codecs such as DCTDecode are passed through untouched.
//
// # Leniency
//
// [Leniency] selects how damaged input is treated. It is passed explicitly to
// the lexer, parser and cross-reference parser rather than held globally.
package core
