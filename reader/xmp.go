package reader

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// xmpProperties maps XMP properties to the Info dictionary keys they mirror.
var xmpProperties = map[string]string{
	"dc:title":        "Title",
	"dc:creator":      "Author",
	"dc:description":  "Subject",
	"pdf:keywords":    "Keywords",
	"pdf:producer":    "Producer",
	"xmp:creatortool": "Creator",
	"xmp:createdate":  "CreationDate",
	"xmp:modifydate":  "ModDate",
	"pdf:trapped":     "Trapped",
}

// parseXMP extracts the Info-equivalent properties from an XMP packet.
// Properties may be elements, with the value as text or as rdf:li items, or
// attributes of rdf:Description. The first value seen for a key wins.
func parseXMP(packet []byte) map[string]string {
	props := make(map[string]string)
	z := html.NewTokenizer(bytes.NewReader(packet))

	var (
		current string // Info key of the open property element
		items   []string
		text    strings.Builder
		inItem  bool
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			return props

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if tag == "rdf:description" && hasAttr {
				for {
					key, val, more := z.TagAttr()
					if info, ok := xmpProperties[string(key)]; ok {
						if _, seen := props[info]; !seen {
							props[info] = strings.TrimSpace(string(val))
						}
					}
					if !more {
						break
					}
				}
				continue
			}
			if info, ok := xmpProperties[tag]; ok && current == "" {
				current = info
				items = items[:0]
				text.Reset()
				continue
			}
			if tag == "rdf:li" && current != "" {
				inItem = true
				text.Reset()
			}

		case html.TextToken:
			if current != "" {
				text.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "rdf:li" && inItem:
				if v := strings.TrimSpace(text.String()); v != "" {
					items = append(items, v)
				}
				text.Reset()
				inItem = false
			case current != "" && xmpProperties[tag] == current:
				value := strings.Join(items, ", ")
				if len(items) == 0 {
					value = strings.TrimSpace(text.String())
				}
				if _, seen := props[current]; !seen && value != "" {
					props[current] = value
				}
				current = ""
			}
		}
	}
}
