package resolver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tsawler/pdfgraph/core"
)

// Store produces indirect objects on demand from the bytes of a document.
// Each object is located through the cross-reference table, parsed once and
// cached together with any failure, so repeated lookups are cheap and give
// the same answer for the life of the session.
//
// A Store is not safe for concurrent use.
type Store struct {
	src      core.Source
	xref     *core.XRefTable
	leniency core.Leniency
	logger   *slog.Logger

	cache    map[core.ObjectID]core.Object
	failures map[core.ObjectID]error
	objStms  map[int]*core.ObjectStream
	loading  map[int]bool
	deep     *ObjectResolver
}

// NewStore creates a store over src using xref to locate objects. A nil
// logger discards output.
func NewStore(src core.Source, xref *core.XRefTable, leniency core.Leniency, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		src:      src,
		xref:     xref,
		leniency: leniency,
		logger:   logger,
		cache:    make(map[core.ObjectID]core.Object),
		failures: make(map[core.ObjectID]error),
		objStms:  make(map[int]*core.ObjectStream),
		loading:  make(map[int]bool),
	}
	s.deep = NewResolver(s)
	return s
}

// XRef returns the table the store resolves against.
func (s *Store) XRef() *core.XRefTable {
	return s.xref
}

// Fetch returns the value of indirect object id without following it if
// that value is itself a reference. Failures are *core.ResolveError.
func (s *Store) Fetch(id core.ObjectID) (core.Object, error) {
	if obj, ok := s.cache[id]; ok {
		return obj, nil
	}
	if err, ok := s.failures[id]; ok {
		return nil, err
	}

	obj, err := s.load(id)
	if err != nil {
		var rerr *core.ResolveError
		if !errors.As(err, &rerr) || rerr.ID != id {
			err = &core.ResolveError{ID: id, Err: err}
		}
		// a cycle depends on what else is being loaded, so it is not final
		if !errors.Is(err, core.ErrReferenceCycle) {
			s.failures[id] = err
		}
		return nil, err
	}
	s.cache[id] = obj
	return obj, nil
}

func (s *Store) load(id core.ObjectID) (core.Object, error) {
	if !id.Valid() {
		return nil, core.ErrObjectMissing
	}
	entry, ok := s.xref.Get(id.Number)
	if !ok {
		return nil, core.ErrObjectMissing
	}
	if s.loading[id.Number] {
		return nil, fmt.Errorf("object %d is already being loaded: %w", id.Number, core.ErrReferenceCycle)
	}
	s.loading[id.Number] = true
	defer delete(s.loading, id.Number)

	switch entry.Type {
	case core.XRefFree:
		return nil, core.ErrObjectFree
	case core.XRefInUse:
		return s.loadDirect(id, entry)
	case core.XRefCompressed:
		return s.loadCompressed(id, entry)
	}
	return nil, fmt.Errorf("unknown xref entry type %d", entry.Type)
}

func (s *Store) checkGeneration(id core.ObjectID, found int) error {
	if found == id.Generation {
		return nil
	}
	if !s.leniency.TolerateGenerationMismatch {
		return fmt.Errorf("requested generation %d, found %d: %w", id.Generation, found, core.ErrGenerationMismatch)
	}
	s.logger.Debug("tolerating generation mismatch",
		slog.Int("object", id.Number),
		slog.Int("requested", id.Generation),
		slog.Int("found", found))
	return nil
}

func (s *Store) loadDirect(id core.ObjectID, entry *core.XRefEntry) (core.Object, error) {
	if err := s.checkGeneration(id, entry.Generation); err != nil {
		return nil, err
	}

	p := core.NewParserAt(s.src, entry.Offset)
	p.SetLeniency(s.leniency)
	p.SetReferenceResolver(s)
	indirect, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	if indirect.Ref.Number != id.Number {
		return nil, fmt.Errorf("expected object %d at offset %d, found %d: %w",
			id.Number, entry.Offset, indirect.Ref.Number, core.ErrObjectMismatch)
	}
	if err := s.checkGeneration(id, indirect.Ref.Generation); err != nil {
		return nil, err
	}
	return indirect.Object, nil
}

func (s *Store) loadCompressed(id core.ObjectID, entry *core.XRefEntry) (core.Object, error) {
	if err := s.checkGeneration(id, 0); err != nil {
		return nil, err
	}

	objStm, err := s.objectStream(entry.StreamNumber)
	if err != nil {
		return nil, err
	}

	obj, num, err := objStm.ObjectAt(entry.StreamIndex)
	if err == nil && num == id.Number {
		return obj, nil
	}
	if !s.leniency.TolerateGenerationMismatch {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("index %d of object stream %d holds object %d: %w",
			entry.StreamIndex, entry.StreamNumber, num, core.ErrObjectMismatch)
	}

	s.logger.Debug("object stream index mismatch, looking up by number",
		slog.Int("object", id.Number),
		slog.Int("stream", entry.StreamNumber),
		slog.Int("index", entry.StreamIndex))
	return objStm.ObjectByNumber(id.Number)
}

// objectStream returns the parsed container stream with the given number.
func (s *Store) objectStream(num int) (*core.ObjectStream, error) {
	if objStm, ok := s.objStms[num]; ok {
		return objStm, nil
	}

	container, err := s.Fetch(core.ObjectID{Number: num})
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	stream, ok := container.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("object %d is %s: %w", num, container.Type(), core.ErrNotObjectStream)
	}
	objStm, err := core.NewObjectStreamWith(stream, s.leniency)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	s.objStms[num] = objStm
	return objStm, nil
}

// Resolve fetches id and follows reference chains until a direct value is
// reached. A chain that revisits an object or grows longer than the
// configured reference depth fails with core.ErrReferenceCycle.
func (s *Store) Resolve(id core.ObjectID) (core.Object, error) {
	visited := map[core.ObjectID]bool{id: true}
	maxDepth := s.leniency.ReferenceDepth()

	obj, err := s.Fetch(id)
	for depth := 1; err == nil; depth++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		if visited[ref] || depth > maxDepth {
			return nil, &core.ResolveError{
				ID:  id,
				Err: fmt.Errorf("chain through %v: %w", ref, core.ErrReferenceCycle),
			}
		}
		visited[ref] = true
		obj, err = s.Fetch(ref)
	}
	return nil, err
}

// ResolveReference implements core.ReferenceResolver.
func (s *Store) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return s.Resolve(ref)
}

// Deref resolves obj if it is a reference and returns it unchanged
// otherwise.
func (s *Store) Deref(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return s.Resolve(ref)
	}
	return obj, nil
}

// ResolveDeep returns a copy of obj with nested references replaced by
// their values. References back into the path being expanded stay as
// references.
func (s *Store) ResolveDeep(obj core.Object) (core.Object, error) {
	return s.deep.ResolveDeep(obj)
}
