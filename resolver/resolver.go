package resolver

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// ObjectResolver expands indirect references inside dictionaries, arrays and
// stream dictionaries
type ObjectResolver struct {
	reader   ObjectReader
	maxDepth int
}

// ObjectReader interface allows the resolver to work with any object source
type ObjectReader interface {
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// Option configures the resolver
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum nesting depth (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// NewResolver creates a new object resolver
func NewResolver(reader ObjectReader, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		reader:   reader,
		maxDepth: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve follows obj if it is a reference; containers are returned as-is.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.reader.ResolveReference(ref)
	}
	return obj, nil
}

// ResolveDeep returns a copy of obj with every reachable reference replaced
// by its target. A reference back to an object already being expanded on
// the current path (a /Parent link, say) is left as a reference, so cyclic
// graphs terminate. References to missing or free objects become null.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	w := &deepWalk{
		r:      r,
		onPath: make(map[core.IndirectRef]bool),
		done:   make(map[core.IndirectRef]core.Object),
	}
	return w.resolve(obj, 0)
}

type deepWalk struct {
	r      *ObjectResolver
	onPath map[core.IndirectRef]bool
	done   map[core.IndirectRef]core.Object
}

func (w *deepWalk) resolve(obj core.Object, depth int) (core.Object, error) {
	if depth >= w.r.maxDepth {
		return nil, fmt.Errorf("maximum nesting depth (%d) exceeded: %w", w.r.maxDepth, core.ErrReferenceCycle)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if w.onPath[v] {
			return v, nil
		}
		if expanded, ok := w.done[v]; ok {
			return expanded, nil
		}

		target, err := w.r.reader.ResolveReference(v)
		if errors.Is(err, core.ErrObjectMissing) || errors.Is(err, core.ErrObjectFree) {
			return core.Null{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference %v: %w", v, err)
		}

		w.onPath[v] = true
		expanded, err := w.resolve(target, depth+1)
		delete(w.onPath, v)
		if err != nil {
			return nil, err
		}
		w.done[v] = expanded
		return expanded, nil

	case core.Dict:
		resolved := make(core.Dict, len(v))
		for key, value := range v {
			rv, err := w.resolve(value, depth+1)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve dict key %s: %w", key, err)
			}
			resolved[key] = rv
		}
		return resolved, nil

	case core.Array:
		resolved := make(core.Array, len(v))
		for i, elem := range v {
			re, err := w.resolve(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve array element %d: %w", i, err)
			}
			resolved[i] = re
		}
		return resolved, nil

	case *core.Stream:
		dict, err := w.resolve(v.Dict, depth+1)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream dict: %w", err)
		}
		return &core.Stream{Dict: dict.(core.Dict), Data: v.Data, Offset: v.Offset}, nil
	}

	return obj, nil
}

// ResolveDict is a convenience method for deep-resolving a dictionary
func (r *ObjectResolver) ResolveDict(dict core.Dict) (core.Dict, error) {
	resolved, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Dict), nil
}

// ResolveArray is a convenience method for deep-resolving an array
func (r *ObjectResolver) ResolveArray(arr core.Array) (core.Array, error) {
	resolved, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Array), nil
}
