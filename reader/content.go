package reader

import (
	"fmt"

	"github.com/tsawler/pdfgraph/contentstream"
	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/pages"
)

// PageOperations splits the decoded content of page index into operations.
func (r *Reader) PageOperations(index int) ([]contentstream.Operation, error) {
	content, err := r.PageContent(index)
	if err != nil {
		return nil, err
	}
	return r.parseContent(content)
}

// PageStrings returns the raw string operands drawn by the text operators
// of page index. No font decoding is applied.
func (r *Reader) PageStrings(index int) ([]string, error) {
	ops, err := r.PageOperations(index)
	if err != nil {
		return nil, err
	}
	return contentstream.TextStrings(ops), nil
}

func (r *Reader) parseContent(content []byte) ([]contentstream.Operation, error) {
	p := contentstream.NewParser(content)
	p.SetLeniency(r.opts.leniency)
	return p.Parse()
}

// inlineImages decodes the BI ... EI images drawn by page. Named color
// spaces are looked up in the page resources.
func (r *Reader) inlineImages(page *pages.Page, resources core.Dict) []PageImage {
	ids, err := page.Contents()
	if err != nil || len(ids) == 0 {
		return nil
	}
	var content []byte
	for _, id := range ids {
		data, err := r.StreamContent(id)
		if err != nil {
			r.warn(-1, id.Number, fmt.Sprintf("content stream: %v", err))
			return nil
		}
		content = append(content, data...)
		content = append(content, '\n')
	}
	ops, err := r.parseContent(content)
	if err != nil {
		r.warn(-1, page.Ref().Number, fmt.Sprintf("content stream: %v", err))
		return nil
	}

	var named core.Dict
	if cs, err := r.store.Deref(resources.Get("ColorSpace")); err == nil {
		named, _ = cs.(core.Dict)
	}

	var images []PageImage
	for i, stream := range contentstream.InlineImages(ops) {
		if name, ok := stream.Dict.GetName("ColorSpace"); ok {
			if cs, ok := named[string(name)]; ok {
				stream.Dict["ColorSpace"] = cs
			}
		}
		name := fmt.Sprintf("inline%d", i+1)
		img, err := r.extractImage(name, stream)
		if err != nil {
			r.warn(-1, page.Ref().Number, fmt.Sprintf("image %s: %v", name, err))
			continue
		}
		images = append(images, *img)
	}
	return images
}
