package core

import (
	"fmt"

	"github.com/tsawler/pdfgraph/internal/filters"
)

// Decode runs the stream body through the filters named by /Filter, using
// /DecodeParms for their parameters. A stream without /Filter decodes to its
// raw body. Indirect filter entries are resolved through the resolver of the
// parser that read the stream.
func (s *Stream) Decode() ([]byte, error) {
	return s.DecodeWith(s.resolver)
}

// DecodeWith is Decode with an explicit resolver for indirect /Filter and
// /DecodeParms entries.
func (s *Stream) DecodeWith(resolver ReferenceResolver) ([]byte, error) {
	names, parms, err := s.FilterChainWith(resolver)
	if err != nil {
		return nil, err
	}
	return DecodeFilters(s.Data, names, parms)
}

// FilterChain returns the stream's filter names and the parameter dictionary
// for each; a filter without parameters has a nil Dict.
func (s *Stream) FilterChain() ([]Name, []Dict, error) {
	return s.FilterChainWith(s.resolver)
}

// FilterChainWith is FilterChain with an explicit resolver. An indirect
// entry that cannot be resolved is an error rather than a missing value.
func (s *Stream) FilterChainWith(resolver ReferenceResolver) ([]Name, []Dict, error) {
	filter, err := derefEntry(resolver, s.Dict.Get("Filter"))
	if err != nil {
		return nil, nil, &FilterError{Index: 0, Err: fmt.Errorf("/Filter: %w", err)}
	}

	var names []Name
	switch f := filter.(type) {
	case nil, Null:
		return nil, nil, nil
	case Name:
		names = []Name{f}
	case Array:
		for i, item := range f {
			item, err := derefEntry(resolver, item)
			if err != nil {
				return nil, nil, &FilterError{Index: i, Err: err}
			}
			name, ok := item.(Name)
			if !ok {
				return nil, nil, &FilterError{Index: i, Err: fmt.Errorf("filter is not a name: %T", item)}
			}
			names = append(names, name)
		}
	default:
		return nil, nil, &FilterError{Index: 0, Err: fmt.Errorf("invalid /Filter type: %T", f)}
	}

	decodeParms, err := derefEntry(resolver, s.Dict.Get("DecodeParms"))
	if err != nil {
		return nil, nil, &FilterError{Filter: string(names[0]), Index: 0, Err: fmt.Errorf("/DecodeParms: %w", err)}
	}
	parms := make([]Dict, len(names))
	switch p := decodeParms.(type) {
	case Dict:
		parms[0] = p
	case Array:
		for i := 0; i < len(p) && i < len(parms); i++ {
			item, err := derefEntry(resolver, p[i])
			if err != nil {
				return nil, nil, &FilterError{Filter: string(names[i]), Index: i, Err: fmt.Errorf("/DecodeParms: %w", err)}
			}
			parms[i], _ = item.(Dict)
		}
	}
	return names, parms, nil
}

// derefEntry follows obj when it is a reference.
func derefEntry(resolver ReferenceResolver, obj Object) (Object, error) {
	ref, ok := obj.(IndirectRef)
	if !ok {
		return obj, nil
	}
	if resolver == nil {
		return nil, fmt.Errorf("unresolved reference %s", ref)
	}
	return resolver.ResolveReference(ref)
}

// DecodeFilters applies the named filters to raw in order. parms may be
// shorter than names; missing entries mean no parameters. The first failure
// is reported as a *FilterError naming the filter and its position.
func DecodeFilters(raw []byte, names []Name, parms []Dict) ([]byte, error) {
	data := raw
	for i, name := range names {
		var p Dict
		if i < len(parms) {
			p = parms[i]
		}
		out, err := decodeWithFilter(data, name, p)
		if err != nil {
			return nil, &FilterError{Filter: string(name), Index: i, Err: err}
		}
		data = out
	}
	return data, nil
}

// decodeWithFilter applies a single filter. Abbreviated names from inline
// images are accepted too.
func decodeWithFilter(data []byte, name Name, params Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))
	case "LZWDecode", "LZW":
		return filters.LZWDecode(data, dictToParams(params))
	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)
	case "RunLengthDecode", "RL":
		return filters.RunLengthDecode(data)
	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, dictToParams(params))
	case "DCTDecode", "DCT", "JPXDecode":
		// image codecs: the encoded image is the useful form
		return data, nil
	case "Crypt":
		if n, ok := params.GetName("Name"); !ok || n == "Identity" {
			return data, nil
		}
	}
	return nil, ErrUnsupportedFilter
}

// dictToParams converts a Dict to filters.Params, translating PDF object
// types to Go primitive types (Int->int, Real->float64, Bool->bool, etc.).
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
