package parser

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StructuredData holds the machine-readable metadata a page publishes.
type StructuredData struct {
	JSONLD    []map[string]any `json:"json_ld,omitempty"`
	Microdata []map[string]any `json:"microdata,omitempty"`
}

// Structured extracts JSON-LD (including @graph members) and microdata
// from a document. Malformed JSON-LD blocks are skipped. OpenGraph and
// other meta tags are read through Document.Meta.
func Structured(d *Document) *StructuredData {
	sd := &StructuredData{}

	d.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		sd.JSONLD = append(sd.JSONLD, flattenJSONLD(data)...)
	})

	d.doc.Find("[itemscope]:not([itemscope] [itemscope])").Each(func(_ int, sel *goquery.Selection) {
		data := make(map[string]any)
		if itemType, ok := sel.Attr("itemtype"); ok {
			data["@type"] = itemType[strings.LastIndex(itemType, "/")+1:]
		}

		sel.Find("[itemprop]").Each(func(_ int, prop *goquery.Selection) {
			name, _ := prop.Attr("itemprop")
			if name == "" {
				return
			}
			if _, dup := data[name]; dup {
				return
			}

			var value string
			if content, ok := prop.Attr("content"); ok {
				value = content
			} else if src, ok := prop.Attr("src"); ok {
				value = src
			} else if href, ok := prop.Attr("href"); ok {
				value = href
			} else {
				value = cleanText(prop.Text())
			}
			if value != "" {
				data[name] = value
			}
		})

		if len(data) > 1 {
			sd.Microdata = append(sd.Microdata, data)
		}
	})

	return sd
}

// flattenJSONLD expands arrays and @graph containers into individual objects.
func flattenJSONLD(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var out []map[string]any
		for _, el := range v {
			out = append(out, flattenJSONLD(el)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{v}
		if graph, ok := v["@graph"]; ok {
			out = append(out, flattenJSONLD(graph)...)
		}
		return out
	}
	return nil
}

// FindType returns the first JSON-LD or microdata object whose @type
// matches one of the given types (case-insensitive).
func (sd *StructuredData) FindType(typeNames ...string) map[string]any {
	for _, group := range [][]map[string]any{sd.JSONLD, sd.Microdata} {
		for _, obj := range group {
			if hasType(obj, typeNames) {
				return obj
			}
		}
	}
	return nil
}

func hasType(obj map[string]any, typeNames []string) bool {
	var declared []string
	switch t := obj["@type"].(type) {
	case string:
		declared = []string{t}
	case []any:
		for _, el := range t {
			if s, ok := el.(string); ok {
				declared = append(declared, s)
			}
		}
	}
	for _, d := range declared {
		for _, want := range typeNames {
			if strings.EqualFold(d, want) {
				return true
			}
		}
	}
	return false
}

// Lookup walks a dotted key path through nested objects. Arrays are
// entered at their first element. Numbers are formatted without exponent.
func Lookup(obj map[string]any, path string) string {
	var cur any = obj
	for _, key := range strings.Split(path, ".") {
		if arr, ok := cur.([]any); ok {
			if len(arr) == 0 {
				return ""
			}
			cur = arr[0]
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}
	return scalarString(cur)
}

// Strings returns every string value under key, flattening arrays and
// {"url": ...} objects.
func Strings(obj map[string]any, key string) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case []any:
			for _, el := range t {
				walk(el)
			}
		case map[string]any:
			if u, ok := t["url"]; ok {
				walk(u)
			} else if n, ok := t["name"]; ok {
				walk(n)
			}
		}
	}
	walk(obj[key])
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return scalarString(t[0])
		}
	case map[string]any:
		if n, ok := t["name"]; ok {
			return scalarString(n)
		}
	}
	return ""
}
