// Package resolver turns indirect references into objects.
//
// PDF documents use indirect references (e.g., "5 0 R") to refer to objects
// stored elsewhere in the file. A Store locates each object through the
// cross-reference table, parses it from its offset or unpacks it from an
// object stream, and caches the result for the rest of the session:
//
//	store := resolver.NewStore(src, xref, core.DefaultLeniency(), logger)
//	obj, err := store.Resolve(core.ObjectID{Number: 5})
//
// Every failure is a *core.ResolveError naming the object; match the cause
// with errors.Is against core.ErrObjectMissing, core.ErrObjectFree,
// core.ErrGenerationMismatch and friends.
//
// # Deep Resolution
//
// For complete expansion of nested references in dictionaries and arrays:
//
//	resolved, err := store.ResolveDeep(obj)
//
// References that lead back into the part of the graph being expanded, such
// as a page's /Parent, are left as references.
//
// # Cycle Detection
//
// Reference chains ("1 0 R" whose value is "2 0 R" and so on) are followed
// up to Leniency.MaxReferenceDepth links. A chain that loops fails with
// core.ErrReferenceCycle, as does an object whose parse needs its own value.
// The nesting depth of deep resolution is configurable separately:
//
//	r := resolver.NewResolver(store, resolver.WithMaxDepth(50))
package resolver
