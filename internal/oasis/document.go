package oasis

import (
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Element is a parsed XML element. Tag is the qualified name as written in
// the document ("RTO" or "m:RTO"); Space is the namespace URI it resolves to.
type Element struct {
	Tag      string
	Space    string
	Local    string
	Children []Node
}

// Node is a child of an Element: either a nested element or a run of
// character data.
type Node struct {
	Element *Element
	Text    string
}

// IsText reports whether n is character data.
func (n Node) IsText() bool {
	return n.Element == nil
}

// Text returns the text of e's first child node. The second result is false
// when e has no children or its first child is an element.
func (e *Element) Text() (string, bool) {
	if len(e.Children) == 0 || !e.Children[0].IsText() {
		return "", false
	}
	return e.Children[0].Text, true
}

// walk visits every descendant element of e in document order.
func (e *Element) walk(fn func(*Element)) {
	for _, c := range e.Children {
		if c.Element == nil {
			continue
		}
		fn(c.Element)
		c.Element.walk(fn)
	}
}

// Parse reads a whole XML document. The returned element is a synthetic
// document node whose only child element is the document root.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	doc := &Element{}
	stack := []*Element{doc}
	scopes := []map[string]string{{"xml": xmlNamespace}}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "xml: read token")
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			scope := pushScope(scopes[len(scopes)-1], t.Attr)
			el := &Element{
				Tag:   qualified(t.Name),
				Space: scope[t.Name.Space],
				Local: t.Name.Local,
			}
			parent.Children = append(parent.Children, Node{Element: el})
			stack = append(stack, el)
			scopes = append(scopes, scope)

		case xml.EndElement:
			if len(stack) == 1 {
				return nil, eris.Errorf("xml: unexpected end element </%s>", qualified(t.Name))
			}
			if parent.Tag != qualified(t.Name) {
				return nil, eris.Errorf("xml: element <%s> closed by </%s>", parent.Tag, qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]

		case xml.CharData:
			if len(stack) == 1 {
				continue // whitespace around the root
			}
			if n := len(parent.Children); n > 0 && parent.Children[n-1].IsText() {
				parent.Children[n-1].Text += string(t)
				continue
			}
			parent.Children = append(parent.Children, Node{Text: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, eris.Errorf("xml: unclosed element <%s>", stack[len(stack)-1].Tag)
	}
	if rootCount(doc) != 1 {
		return nil, eris.New("xml: document must have exactly one root element")
	}
	return doc, nil
}

// pushScope returns the prefix->URI bindings in effect inside an element
// carrying attrs. The parent map is copied only when attrs declare a namespace.
func pushScope(parent map[string]string, attrs []xml.Attr) map[string]string {
	scope := parent
	copied := false
	for _, a := range attrs {
		var prefix string
		switch {
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix = ""
		default:
			continue
		}
		if !copied {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
			copied = true
		}
		scope[prefix] = a.Value
	}
	return scope
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func rootCount(doc *Element) int {
	n := 0
	for _, c := range doc.Children {
		if c.Element != nil {
			n++
		}
	}
	return n
}
