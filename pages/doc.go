// Package pages provides PDF page tree traversal and page access.
//
// PDF documents organize pages in a tree of /Pages nodes with /Page leaves.
// [PageTree] flattens that tree into document order the first time it is
// asked for a page:
//
//	tree := pages.NewPageTree(pagesDict, pagesRef, store)
//	n := tree.Count()
//	page, err := tree.Page(0) // 0-indexed
//
// The walk keeps its own stack, so arbitrarily deep trees are fine, and a
// node reached twice is skipped rather than looping. A kid that cannot be
// loaded still occupies its slot: Page returns its error while the other
// pages stay usable.
//
// # Inheritance
//
// /Resources, /MediaBox, /CropBox and /Rotate may be set on any ancestor.
// The nearest definition wins. CropBox falls back to MediaBox.
//
// # Object Resolution
//
// The [ObjectResolver] interface abstracts object lookup, so the tree does
// not depend on how objects are stored.
package pages
