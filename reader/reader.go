package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/pages"
	"github.com/tsawler/pdfgraph/resolver"
	"github.com/tsawler/pdfgraph/source"
)

// headerWindow is how far into the file the %PDF- header is looked for.
const headerWindow = 1024

var headerVersion = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is an earlier version than w.
func (v PDFVersion) Less(w PDFVersion) bool {
	return v.Major < w.Major || (v.Major == w.Major && v.Minor < w.Minor)
}

// Reader gives access to one PDF document. Objects are loaded only when
// something asks for them.
//
// A Reader is not safe for concurrent use; open one Reader per goroutine.
type Reader struct {
	src    core.Source
	closer io.Closer
	opts   options

	version    PDFVersion
	headerAt   int64
	xrefTable  *core.XRefTable
	store      *resolver.Store
	catalog    *pages.Catalog
	catalogRef core.ObjectID
	pageTree   *pages.PageTree
	pageErr    error
	encrypted  bool
	recovered  bool
	metadata   map[string]string
	warnings   []Warning
}

// Ensure Reader implements pages.ObjectResolver
var _ pages.ObjectResolver = (*Reader)(nil)

// Open reads the structure of the document in src: header, cross-reference
// chain and catalog. src is not closed by the Reader.
func Open(src core.Source, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Reader{src: src, opts: o}
	if err := r.open(); err != nil {
		return nil, &OpenError{Err: err}
	}
	return r, nil
}

// OpenFile opens the file at path. The file is closed by Close.
func OpenFile(path string, opts ...Option) (*Reader, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	r, err := Open(src, opts...)
	if err != nil {
		src.Close()
		var oerr *OpenError
		if errors.As(err, &oerr) {
			oerr.Path = path
		}
		return nil, err
	}
	r.closer = src
	return r, nil
}

// Close releases the file opened by OpenFile
func (r *Reader) Close() error {
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

func (r *Reader) open() error {
	if err := r.parseHeader(); err != nil {
		if !r.opts.recovery {
			return err
		}
		r.warn(-1, 0, "no %PDF- header in the first KiB, continuing")
	}

	xref, err := r.loadXRef()
	if err != nil {
		return err
	}
	r.useXRef(xref)

	err = r.loadCatalog()
	if err != nil && r.opts.recovery && !r.recovered && !errors.Is(err, ErrNotCatalog) {
		r.opts.logger.Warn("catalog unreachable through the cross-reference chain, reconstructing",
			slog.Any("error", err))
		r.warn(-1, 0, fmt.Sprintf("catalog unreachable (%v), reconstructing", err))
		if rebuilt, rerr := core.Reconstruct(r.src); rerr == nil {
			r.recovered = true
			r.useXRef(rebuilt)
			err = r.loadCatalog()
		}
	}
	if err != nil {
		return err
	}

	if r.xrefTable.Trailer.Has("Encrypt") {
		r.encrypted = true
		r.warn(-1, 0, "document is encrypted; stream content is unavailable")
		r.opts.logger.Debug("encrypted document")
	}
	return nil
}

// parseHeader finds "%PDF-x.y", tolerating bytes before it.
func (r *Reader) parseHeader() error {
	n := int64(headerWindow)
	if size := r.src.Size(); size < n {
		n = size
	}
	buf := make([]byte, n)
	read, err := r.src.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read header: %w", err)
	}
	buf = buf[:read]

	m := headerVersion.FindSubmatchIndex(buf)
	if m == nil {
		return ErrNoHeader
	}
	major, _ := strconv.Atoi(string(buf[m[2]:m[3]]))
	minor, _ := strconv.Atoi(string(buf[m[4]:m[5]]))
	r.version = PDFVersion{Major: major, Minor: minor}
	r.headerAt = int64(m[0])
	if m[0] > 0 {
		r.warn(0, 0, fmt.Sprintf("%d bytes before the header", m[0]))
	}
	return nil
}

// loadXRef builds the cross-reference chain from startxref, falling back to
// reconstruction when recovery is enabled.
func (r *Reader) loadXRef() (*core.XRefTable, error) {
	xp := core.NewXRefParser(r.src)
	xp.SetLeniency(r.opts.leniency)

	table, err := xp.BuildFromEOF()
	if err == nil {
		return table, nil
	}
	if !r.opts.recovery {
		return nil, fmt.Errorf("%w: %w", ErrNoTrailer, err)
	}

	r.opts.logger.Warn("cross-reference chain unusable, reconstructing", slog.Any("error", err))
	r.warn(-1, 0, fmt.Sprintf("cross-reference chain unusable (%v), reconstructed by scanning", err))
	rebuilt, rerr := core.Reconstruct(r.src)
	if rerr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTrailer, errors.Join(err, rerr))
	}
	r.recovered = true
	return rebuilt, nil
}

func (r *Reader) useXRef(table *core.XRefTable) {
	r.xrefTable = table
	r.store = resolver.NewStore(r.src, table, r.opts.leniency, r.opts.logger)
	r.catalog = nil
	r.pageTree = nil
	r.pageErr = nil
	r.metadata = nil
}

// loadCatalog validates that /Root names a /Type /Catalog dictionary.
func (r *Reader) loadCatalog() error {
	rootObj := r.xrefTable.Trailer.Get("Root")
	if rootObj == nil {
		return ErrNoRoot
	}

	var ref core.ObjectID
	if rr, ok := rootObj.(core.IndirectRef); ok {
		ref = rr
	}
	resolved, err := r.store.Deref(rootObj)
	if err != nil {
		return fmt.Errorf("failed to resolve catalog: %w", err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return fmt.Errorf("%w: got %s", ErrNotCatalog, resolved.Type())
	}

	catalog := pages.NewCatalog(dict, r.store)
	if catalog.Type() != "Catalog" {
		return fmt.Errorf("%w: /Type is %q", ErrNotCatalog, catalog.Type())
	}
	r.catalog = catalog
	r.catalogRef = ref

	if v := catalog.Version(); v != "" {
		if m := headerVersion.FindStringSubmatch("%PDF-" + v); m != nil {
			major, _ := strconv.Atoi(m[1])
			minor, _ := strconv.Atoi(m[2])
			if cv := (PDFVersion{Major: major, Minor: minor}); r.version.Less(cv) {
				r.version = cv
			}
		}
	}
	return nil
}

func (r *Reader) warn(offset int64, object int, msg string) {
	r.warnings = append(r.warnings, Warning{Offset: offset, Object: object, Message: msg})
}

// Version returns the PDF version: the header's, or the catalog's /Version
// when that is later.
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary
func (r *Reader) Trailer() core.Dict {
	return r.xrefTable.Trailer
}

// Catalog returns the document catalog (root object)
func (r *Reader) Catalog() core.Dict {
	return r.catalog.Dict()
}

// XRefTable returns the merged cross-reference table
// Exposed for debugging/inspection
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xrefTable
}

// IsEncrypted reports whether the trailer has an /Encrypt entry.
func (r *Reader) IsEncrypted() bool {
	return r.encrypted
}

// Recovered reports whether the cross-reference table was rebuilt by
// scanning the file.
func (r *Reader) Recovered() bool {
	return r.recovered
}

// Warnings returns the problems worked around so far. The list grows as
// more of the document is read.
func (r *Reader) Warnings() []Warning {
	return append([]Warning(nil), r.warnings...)
}

// Size returns the size of the source in bytes
func (r *Reader) Size() int64 {
	return r.src.Size()
}

// RawObject resolves id, following reference chains, without decoding
// stream bodies.
func (r *Reader) RawObject(id core.ObjectID) (core.Object, error) {
	return r.store.Resolve(id)
}

// Deref resolves obj if it is an indirect reference, otherwise returns it as-is
// Implements pages.ObjectResolver interface
func (r *Reader) Deref(obj core.Object) (core.Object, error) {
	return r.store.Deref(obj)
}

// ResolveDeep returns obj with every nested reference resolved
func (r *Reader) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.store.ResolveDeep(obj)
}

func (r *Reader) stream(id core.ObjectID) (*core.Stream, error) {
	obj, err := r.store.Resolve(id)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object %v is %s, not a stream", id, obj.Type())
	}
	return stream, nil
}

// StreamContent returns the body of stream id run through its filters.
// A failing filter yields a *core.FilterError; the undecoded body is still
// available from RawStreamContent.
func (r *Reader) StreamContent(id core.ObjectID) ([]byte, error) {
	if r.encrypted {
		return nil, fmt.Errorf("stream %v: %w", id, ErrEncrypted)
	}
	stream, err := r.stream(id)
	if err != nil {
		return nil, err
	}
	data, err := stream.Decoded()
	if err != nil {
		return nil, fmt.Errorf("stream %v: %w", id, err)
	}
	return data, nil
}

// RawStreamContent returns the undecoded body of stream id.
func (r *Reader) RawStreamContent(id core.ObjectID) ([]byte, error) {
	stream, err := r.stream(id)
	if err != nil {
		return nil, err
	}
	return stream.Data, nil
}

// PageContent returns the decoded content streams of page index, joined in
// drawing order with a newline between them.
func (r *Reader) PageContent(index int) ([]byte, error) {
	page, err := r.Page(index)
	if err != nil {
		return nil, err
	}
	ids, err := page.Contents()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for i, id := range ids {
		data, err := r.StreamContent(id)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// ensurePageTree loads the page tree if not already loaded
func (r *Reader) ensurePageTree() error {
	if r.pageTree != nil || r.pageErr != nil {
		return r.pageErr
	}

	root, rootRef, err := r.catalog.Pages()
	if err != nil {
		r.pageErr = err
		return err
	}
	r.pageTree = pages.NewPageTree(root, rootRef, r.store)

	for _, skipped := range r.pageTree.Skipped() {
		r.opts.logger.Warn("page tree node skipped", slog.Any("error", skipped))
		r.warn(-1, 0, skipped.Error())
	}
	for i, page := range r.pageTree.Pages() {
		if page.Err() != nil {
			r.opts.logger.Warn("page could not be loaded",
				slog.Int("page", i), slog.Int("object", page.Ref().Number), slog.Any("error", page.Err()))
			r.warn(-1, page.Ref().Number, fmt.Sprintf("page %d: %v", i, page.Err()))
		}
	}
	if declared, ok := r.pageTree.DeclaredCount(); ok && declared != r.pageTree.Count() {
		r.warn(-1, rootRef.Number, fmt.Sprintf("/Count says %d pages, tree has %d", declared, r.pageTree.Count()))
	}
	return nil
}

// PageCount returns the number of pages in the PDF
func (r *Reader) PageCount() (int, error) {
	if err := r.ensurePageTree(); err != nil {
		return 0, err
	}
	return r.pageTree.Count(), nil
}

// Page returns the page at the given index (0-based)
func (r *Reader) Page(index int) (*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.Page(index)
}

// Pages returns every page in document order, including entries for pages
// that failed to load (see pages.Page.Err).
func (r *Reader) Pages() ([]*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.Pages(), nil
}
