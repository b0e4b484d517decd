package reader

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// ObjectKind is a coarse classification of an indirect object.
type ObjectKind int

const (
	KindValue        ObjectKind = iota // anything that is not a dictionary or stream
	KindDict                           // dictionary of no more specific kind
	KindPage                           // /Type /Page or /Pages
	KindFont                           // /Type /Font or /FontDescriptor
	KindStream                         // stream of no more specific kind
	KindImage                          // image XObject
	KindObjectStream                   // /Type /ObjStm
	KindXRefStream                     // /Type /XRef
	KindMetadata                       // /Type /Metadata stream
)

func (k ObjectKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindDict:
		return "dict"
	case KindPage:
		return "page"
	case KindFont:
		return "font"
	case KindStream:
		return "stream"
	case KindImage:
		return "image"
	case KindObjectStream:
		return "objstm"
	case KindXRefStream:
		return "xref"
	case KindMetadata:
		return "metadata"
	}
	return "unknown"
}

// Classify returns the kind of obj.
func Classify(obj core.Object) ObjectKind {
	switch v := obj.(type) {
	case core.Dict:
		switch typ, _ := v.GetName("Type"); typ {
		case "Page", "Pages":
			return KindPage
		case "Font", "FontDescriptor":
			return KindFont
		}
		return KindDict
	case *core.Stream:
		if sub, _ := v.Dict.GetName("Subtype"); sub == "Image" {
			return KindImage
		}
		switch typ, _ := v.Dict.GetName("Type"); typ {
		case "ObjStm":
			return KindObjectStream
		case "XRef":
			return KindXRefStream
		case "Metadata":
			return KindMetadata
		}
		return KindStream
	}
	return KindValue
}

// ObjectFilter selects objects during enumeration.
type ObjectFilter func(id core.ObjectID, obj core.Object) bool

// Filters for Objects.
var (
	AllObjects ObjectFilter = func(core.ObjectID, core.Object) bool { return true }

	StreamObjects ObjectFilter = func(_ core.ObjectID, obj core.Object) bool {
		_, ok := obj.(*core.Stream)
		return ok
	}

	ImageObjects ObjectFilter = func(_ core.ObjectID, obj core.Object) bool {
		return Classify(obj) == KindImage
	}

	ObjectStreams ObjectFilter = func(_ core.ObjectID, obj core.Object) bool {
		return Classify(obj) == KindObjectStream
	}
)

// OfKind returns a filter selecting objects of the given kinds.
func OfKind(kinds ...ObjectKind) ObjectFilter {
	return func(_ core.ObjectID, obj core.Object) bool {
		k := Classify(obj)
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}

// Objects loads every in-use object in the cross-reference table, in object
// number order, and returns those filter accepts. A nil filter accepts all.
// Objects that fail to load are skipped and recorded as warnings.
func (r *Reader) Objects(filter ObjectFilter) []*core.IndirectObject {
	if filter == nil {
		filter = AllObjects
	}

	var out []*core.IndirectObject
	for _, num := range r.xrefTable.Numbers() {
		entry := r.xrefTable.Entries[num]
		if !entry.InUse() || num == 0 {
			continue
		}
		id := core.ObjectID{Number: num}
		if entry.Type == core.XRefInUse {
			id.Generation = entry.Generation
		}

		obj, err := r.store.Fetch(id)
		if err != nil {
			r.warn(-1, num, err.Error())
			continue
		}
		if filter(id, obj) {
			out = append(out, &core.IndirectObject{Ref: id, Object: obj})
		}
	}
	return out
}

// Stats counts the in-use objects of each kind.
func (r *Reader) Stats() map[ObjectKind]int {
	stats := make(map[ObjectKind]int)
	for _, obj := range r.Objects(AllObjects) {
		stats[Classify(obj.Object)]++
	}
	return stats
}

// FormatStats renders stats one kind per line in kind order.
func FormatStats(stats map[ObjectKind]int) string {
	var out string
	for k := KindValue; k <= KindMetadata; k++ {
		if n := stats[k]; n > 0 {
			out += fmt.Sprintf("%-9s %d\n", k, n)
		}
	}
	return out
}
