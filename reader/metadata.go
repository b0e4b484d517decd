package reader

import (
	"fmt"
	"maps"

	"github.com/tsawler/pdfgraph/core"
)

// Metadata returns the document information as strings keyed by Info
// dictionary names (Title, Author, CreationDate...). Text strings are
// decoded to UTF-8; dates are left in PDF date syntax. Keys missing from the
// Info dictionary are filled from the catalog's XMP packet when there is
// one. A document without metadata yields an empty map, and so does an
// encrypted one since its strings cannot be read.
func (r *Reader) Metadata() map[string]string {
	if r.metadata == nil {
		r.metadata = make(map[string]string)
		if !r.encrypted {
			r.infoMetadata(r.metadata)
			r.xmpMetadata(r.metadata)
		}
	}
	return maps.Clone(r.metadata)
}

func (r *Reader) infoMetadata(md map[string]string) {
	infoObj := r.xrefTable.Trailer.Get("Info")
	if infoObj == nil {
		return // Info is optional
	}
	resolved, err := r.store.Deref(infoObj)
	if err != nil {
		r.warn(-1, 0, fmt.Sprintf("/Info: %v", err))
		return
	}
	info, ok := resolved.(core.Dict)
	if !ok {
		r.warn(-1, 0, fmt.Sprintf("/Info is %s, not a dictionary", resolved.Type()))
		return
	}

	for key, value := range info {
		value, err := r.store.Deref(value)
		if err != nil {
			r.warn(-1, 0, fmt.Sprintf("/Info /%s: %v", key, err))
			continue
		}
		if s := textValue(value); s != "" {
			md[key] = s
		}
	}
}

func (r *Reader) xmpMetadata(md map[string]string) {
	stream, err := r.catalog.Metadata()
	if err != nil {
		r.warn(-1, 0, err.Error())
		return
	}
	if stream == nil {
		return
	}
	packet, err := stream.Decoded()
	if err != nil {
		r.warn(stream.Offset, 0, fmt.Sprintf("XMP metadata: %v", err))
		return
	}
	for key, value := range parseXMP(packet) {
		if _, ok := md[key]; !ok {
			md[key] = value
		}
	}
}

func textValue(obj core.Object) string {
	switch v := obj.(type) {
	case core.String:
		return DecodeTextString(string(v))
	case core.Name:
		return string(v)
	case core.Int, core.Real, core.Bool:
		return v.String()
	}
	return ""
}
