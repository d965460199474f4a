package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
)

// SelectorKind is the query language of a Selector.
type SelectorKind int

const (
	KindCSS SelectorKind = iota
	KindXPath
	KindMeta
)

// Selector is one step in a fallback chain. Attr selects an attribute
// instead of text; "html" selects inner HTML.
type Selector struct {
	Kind SelectorKind
	Expr string
	Attr string
}

// CSS builds a text selector.
func CSS(expr string) Selector { return Selector{Kind: KindCSS, Expr: expr} }

// CSSAttr builds an attribute selector.
func CSSAttr(expr, attr string) Selector { return Selector{Kind: KindCSS, Expr: expr, Attr: attr} }

// XPath builds an XPath selector.
func XPath(expr string) Selector { return Selector{Kind: KindXPath, Expr: expr} }

// Meta builds a selector over <meta property|name=key content=...>.
func Meta(key string) Selector { return Selector{Kind: KindMeta, Expr: key} }

func (s Selector) String() string {
	switch s.Kind {
	case KindXPath:
		if s.Attr != "" {
			return "xpath:" + s.Expr + "@" + s.Attr
		}
		return "xpath:" + s.Expr
	case KindMeta:
		return "meta:" + s.Expr
	}
	if s.Attr != "" {
		return s.Expr + "@" + s.Attr
	}
	return s.Expr
}

// XPath returns every node matching an XPath expression. Invalid
// expressions match nothing.
func (d *Document) XPath(expr string) []Element {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Element{node: n})
	}
	return out
}

// All returns every non-empty value the selector yields.
func (d *Document) All(sel Selector) []string {
	if sel.Kind == KindMeta {
		if v := d.Meta(sel.Expr); v != "" {
			return []string{v}
		}
		return nil
	}

	var elems []Element
	if sel.Kind == KindXPath {
		elems = d.XPath(sel.Expr)
	} else {
		elems = d.Select(sel.Expr)
	}

	var values []string
	for _, el := range elems {
		var val string
		switch sel.Attr {
		case "", "text":
			val = el.Text()
		case "html":
			val = el.HTML()
		default:
			val = el.Attr(sel.Attr)
		}
		if val = strings.TrimSpace(val); val != "" {
			values = append(values, val)
		}
	}
	return values
}

// First walks the chain in priority order and returns the first non-empty
// value, or "".
func (d *Document) First(chain ...Selector) string {
	for _, sel := range chain {
		if vals := d.All(sel); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
