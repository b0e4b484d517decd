package pages

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// ObjectResolver interface for resolving indirect references
type ObjectResolver interface {
	Deref(obj core.Object) (core.Object, error)
}

// IndexError reports a page index outside the document.
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d)", e.Index, e.Count)
}

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{
		dict:     dict,
		resolver: resolver,
	}
}

// Dict returns the catalog dictionary
func (c *Catalog) Dict() core.Dict {
	return c.dict
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// Pages returns the page tree root and its object id. The id is the zero
// value when /Pages is a direct dictionary.
func (c *Catalog) Pages() (core.Dict, core.ObjectID, error) {
	pagesObj := c.dict.Get("Pages")
	if pagesObj == nil {
		return nil, core.ObjectID{}, fmt.Errorf("catalog missing /Pages entry")
	}
	ref, _ := pagesObj.(core.IndirectRef)

	resolved, err := c.resolver.Deref(pagesObj)
	if err != nil {
		return nil, ref, fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	pagesDict, ok := resolved.(core.Dict)
	if !ok {
		return nil, ref, fmt.Errorf("invalid /Pages type: %s", resolved.Type())
	}
	return pagesDict, ref, nil
}

// Metadata returns the metadata stream if present
func (c *Catalog) Metadata() (*core.Stream, error) {
	metadataObj := c.dict.Get("Metadata")
	if metadataObj == nil {
		return nil, nil // Optional
	}

	resolved, err := c.resolver.Deref(metadataObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Metadata: %w", err)
	}
	stream, ok := resolved.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("invalid /Metadata type: %s", resolved.Type())
	}
	return stream, nil
}

// Version returns the /Version entry, which overrides the header version
// when later than it.
func (c *Catalog) Version() string {
	name, _ := c.dict.GetName("Version")
	return string(name)
}

// inherited holds the attributes a page takes from its ancestors.
type inherited struct {
	resources core.Object
	mediaBox  core.Object
	cropBox   core.Object
	rotate    core.Object
}

// override returns a copy of in with the attributes node defines itself.
func (in inherited) override(node core.Dict) inherited {
	if v, ok := node["Resources"]; ok {
		in.resources = v
	}
	if v, ok := node["MediaBox"]; ok {
		in.mediaBox = v
	}
	if v, ok := node["CropBox"]; ok {
		in.cropBox = v
	}
	if v, ok := node["Rotate"]; ok {
		in.rotate = v
	}
	return in
}

// PageTree represents the PDF page tree
type PageTree struct {
	root     core.Dict
	rootRef  core.ObjectID
	resolver ObjectResolver

	pages   []*Page // Cached flattened page list
	skipped []error
	loaded  bool
}

// NewPageTree creates a new page tree from the root pages dictionary.
// rootRef is the root's object id, or the zero value if it is direct.
func NewPageTree(root core.Dict, rootRef core.ObjectID, resolver ObjectResolver) *PageTree {
	return &PageTree{
		root:     root,
		rootRef:  rootRef,
		resolver: resolver,
	}
}

// DeclaredCount returns the root's /Count, which damaged files may get wrong.
func (t *PageTree) DeclaredCount() (int, bool) {
	count, ok := t.root.GetInt("Count")
	return int(count), ok
}

// Count returns the number of pages found by walking the tree, including
// pages that could not be loaded.
func (t *PageTree) Count() int {
	t.load()
	return len(t.pages)
}

// Page returns the page at the given index (0-based). A page whose object
// could not be loaded returns the error it failed with.
func (t *PageTree) Page(index int) (*Page, error) {
	t.load()
	if index < 0 || index >= len(t.pages) {
		return nil, &IndexError{Index: index, Count: len(t.pages)}
	}
	page := t.pages[index]
	if page.err != nil {
		return nil, page.err
	}
	return page, nil
}

// Pages returns all pages in document order. Broken entries are included;
// check Page.Err.
func (t *PageTree) Pages() []*Page {
	t.load()
	return t.pages
}

// Skipped returns the problems met while walking the tree that did not
// produce a page entry: repeated nodes and unusable /Kids.
func (t *PageTree) Skipped() []error {
	t.load()
	return t.skipped
}

type frame struct {
	obj   core.Object // dictionary or reference to one
	ref   core.ObjectID
	attrs inherited
}

// load walks the tree depth first with an explicit stack, so deep trees
// cannot exhaust the goroutine stack.
func (t *PageTree) load() {
	if t.loaded {
		return
	}
	t.loaded = true

	visited := make(map[core.ObjectID]bool)
	stack := []frame{{obj: t.root, ref: t.rootRef}}
	if t.rootRef.Valid() {
		visited[t.rootRef] = true
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := f.obj.(core.Dict)
		if !ok {
			resolved, err := t.resolver.Deref(f.obj)
			if err != nil {
				t.pages = append(t.pages, &Page{ref: f.ref, err: fmt.Errorf("page node %v: %w", f.ref, err)})
				continue
			}
			if node, ok = resolved.(core.Dict); !ok {
				t.pages = append(t.pages, &Page{ref: f.ref, err: fmt.Errorf("page node %v is %s, not a dictionary", f.ref, resolved.Type())})
				continue
			}
		}
		attrs := f.attrs.override(node)

		if !isPagesNode(node) {
			t.pages = append(t.pages, &Page{ref: f.ref, dict: node, attrs: attrs, resolver: t.resolver})
			continue
		}

		kidsObj, err := t.resolver.Deref(node.Get("Kids"))
		if err != nil {
			t.skipped = append(t.skipped, fmt.Errorf("/Kids of %v: %w", f.ref, err))
			continue
		}
		kids, ok := kidsObj.(core.Array)
		if !ok {
			t.skipped = append(t.skipped, fmt.Errorf("/Kids of %v is not an array", f.ref))
			continue
		}

		// push in reverse so the first kid is visited first
		for i := len(kids) - 1; i >= 0; i-- {
			kid := kids[i]
			var ref core.ObjectID
			if r, ok := kid.(core.IndirectRef); ok {
				if visited[r] {
					t.skipped = append(t.skipped, fmt.Errorf("page tree node %v reached twice", r))
					continue
				}
				visited[r] = true
				ref = r
			}
			stack = append(stack, frame{obj: kid, ref: ref, attrs: attrs})
		}
	}
}

// isPagesNode decides between an intermediate node and a leaf. /Type is
// authoritative; without it a node with /Kids is intermediate.
func isPagesNode(node core.Dict) bool {
	switch typ, _ := node.GetName("Type"); typ {
	case "Pages":
		return true
	case "Page":
		return false
	}
	return node.Has("Kids")
}

// Page represents a single PDF page
type Page struct {
	ref      core.ObjectID
	dict     core.Dict
	attrs    inherited
	resolver ObjectResolver
	err      error
}

// Ref returns the page object's id (zero if the page is a direct object).
func (p *Page) Ref() core.ObjectID {
	return p.ref
}

// Dict returns the page dictionary as stored, without inherited entries.
func (p *Page) Dict() core.Dict {
	return p.dict
}

// Err returns why the page could not be loaded, or nil.
func (p *Page) Err() error {
	return p.err
}

// MediaBox returns the page media box [x1 y1 x2 y2]
// This is inheritable, so ancestors are consulted if the page has none
func (p *Page) MediaBox() ([]float64, error) {
	return p.box("MediaBox", p.attrs.mediaBox)
}

// CropBox returns the page crop box [x1 y1 x2 y2]
// This is inheritable, defaults to MediaBox if not present
func (p *Page) CropBox() ([]float64, error) {
	if p.attrs.cropBox == nil {
		return p.MediaBox()
	}
	return p.box("CropBox", p.attrs.cropBox)
}

func (p *Page) box(name string, boxObj core.Object) ([]float64, error) {
	if boxObj == nil {
		return nil, fmt.Errorf("%s not found", name)
	}

	resolved, err := p.resolver.Deref(boxObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid %s type: %s", name, resolved.Type())
	}
	if len(arr) != 4 {
		return nil, fmt.Errorf("invalid %s length: %d (expected 4)", name, len(arr))
	}

	box := make([]float64, 4)
	for i := range arr {
		elem, err := p.resolver.Deref(arr[i])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s[%d]: %w", name, i, err)
		}
		v, ok := core.Array{elem}.GetNumber(0)
		if !ok {
			return nil, fmt.Errorf("invalid %s element type: %s", name, elem.Type())
		}
		box[i] = v
	}

	// normalize so that [x1 y1] is the lower-left corner
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, nil
}

// Resources returns the page resources dictionary. It is inheritable; a
// page with no resources anywhere in its ancestry gets an empty dictionary.
func (p *Page) Resources() (core.Dict, error) {
	if p.attrs.resources == nil {
		return core.Dict{}, nil
	}

	resolved, err := p.resolver.Deref(p.attrs.resources)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}
	switch v := resolved.(type) {
	case core.Dict:
		return v, nil
	case core.Null:
		return core.Dict{}, nil
	}
	return nil, fmt.Errorf("invalid Resources type: %s", resolved.Type())
}

// Contents returns the ids of the page's content streams in drawing order.
func (p *Page) Contents() ([]core.ObjectID, error) {
	contentsObj := p.dict.Get("Contents")
	if contentsObj == nil {
		return nil, nil // Contents is optional
	}

	if ref, ok := contentsObj.(core.IndirectRef); ok {
		resolved, err := p.resolver.Deref(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Contents: %w", err)
		}
		// a reference to an array of references is allowed too
		arr, isArray := resolved.(core.Array)
		if !isArray {
			return []core.ObjectID{ref}, nil
		}
		contentsObj = arr
	}

	arr, ok := contentsObj.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid Contents type: %s", contentsObj.Type())
	}
	ids := make([]core.ObjectID, 0, len(arr))
	for i, elem := range arr {
		ref, ok := elem.(core.IndirectRef)
		if !ok {
			return nil, fmt.Errorf("Contents[%d] is %s, not a reference", i, elem.Type())
		}
		ids = append(ids, ref)
	}
	return ids, nil
}

// Rotate returns the page rotation (0, 90, 180, or 270)
// This is inheritable
func (p *Page) Rotate() int {
	if p.attrs.rotate == nil {
		return 0
	}
	resolved, err := p.resolver.Deref(p.attrs.rotate)
	if err != nil {
		return 0
	}
	rotate, ok := resolved.(core.Int)
	if !ok || rotate%90 != 0 {
		return 0
	}
	r := int(rotate) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// Width returns the page width (from MediaBox)
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the page height (from MediaBox)
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}
