// Package reader provides high-level PDF document access.
//
// This package orchestrates the lower-level core, resolver and pages
// packages: it finds the header and the cross-reference chain, validates the
// catalog, and then loads objects only as they are asked for.
//
// # Opening PDF Files
//
// Use [OpenFile] to open a PDF file, or [Open] with any core.Source:
//
//	r, err := reader.OpenFile("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
// Open fails with an [*OpenError] when no trailer or catalog can be found.
// Damaged cross-reference data is rebuilt by scanning the file unless
// [WithRecovery](false) is given; [Reader.Recovered] reports when that
// happened.
//
// # Document Information
//
//   - Version() - PDF version (e.g., 1.7)
//   - Metadata() - Info dictionary and XMP values as strings
//   - Catalog(), Trailer(), XRefTable() - document structure
//   - IsEncrypted() - whether the trailer has /Encrypt
//   - Warnings() - problems worked around so far
//
// # Pages and Streams
//
//	n, _ := r.PageCount()
//	page, err := r.Page(0) // First page
//	data, err := r.StreamContent(core.ObjectID{Number: 4})
//
// A page or stream that fails to load reports its own error; the rest of
// the document stays readable.
//
// # Objects
//
// [Reader.Objects] enumerates every object in the cross-reference table
// through a filter such as [StreamObjects] or [ImageObjects], and
// [Reader.RawObject] returns a single object without decoding it.
package reader
